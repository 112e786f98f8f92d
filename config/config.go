package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/thisisjab/querybridge/api"
	"github.com/thisisjab/querybridge/engine"
	"github.com/thisisjab/querybridge/preprocessor"
	"github.com/thisisjab/querybridge/storage"
	"github.com/thisisjab/querybridge/template"
	"github.com/thisisjab/querybridge/translator"
	"github.com/thisisjab/querybridge/watch"
	"go.yaml.in/yaml/v3"
)

type Config struct {
	Logger        LoggerConfig         `yaml:"logger"`
	Translator    TranslatorConfig     `yaml:"translator"`
	Preprocessors []PreprocessorConfig `yaml:"preprocessors"`
	Template      template.Config      `yaml:"template"`
	API           api.Config           `yaml:"api"`
	Storage       *StorageConfig       `yaml:"storage"`
	Recorder      RecorderConfig       `yaml:"recorder"`
	WorkersCount  uint                 `yaml:"workers_count"`
}

type LoggerConfig struct {
	Level  string `yaml:"level"`
	Type   string `yaml:"type"`
	Output string `yaml:"output"`
}

type TranslatorConfig struct {
	DefaultField string   `yaml:"default_field"`
	KnownFields  []string `yaml:"known_fields"`
	MaxDepth     int      `yaml:"max_depth"`
	Dialect      string   `yaml:"dialect"`

	// KnownFieldsFile replaces KnownFields with the fields listed in the
	// file, one per line. The file is reloaded when it changes.
	KnownFieldsFile string `yaml:"known_fields_file"`
}

type PreprocessorConfig struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Config any    `yaml:"config"`
}

type StorageConfig struct {
	Type   string `yaml:"type"`
	Config any    `yaml:"config"`
}

// RecorderConfig controls the translation audit trail. It needs a storage.
type RecorderConfig struct {
	Enabled       bool          `yaml:"enabled"`
	BufferSize    uint          `yaml:"buffer_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// Storage is a log storage that can preview conditions and record
// translations.
type Storage interface {
	engine.Storage
	engine.Previewer
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
}

// Runtime holds everything built from a Config.
type Runtime struct {
	Engine engine.Config
	API    api.Config

	// Storage is nil when no storage is configured.
	Storage Storage

	// Watcher is nil when known fields are not read from a file.
	Watcher *watch.FieldsFileWatcher
}

// Default returns the configuration used for keys missing from the file.
func Default() Config {
	return Config{
		Logger: LoggerConfig{
			Level:  "info",
			Type:   "json",
			Output: "stdout",
		},
		Translator: TranslatorConfig{
			DefaultField: translator.DefaultField,
			Dialect:      translator.Doris.Name(),
		},
		Template: template.DefaultConfig,
		API: api.Config{
			Addr:         "localhost:8000",
			MaxBatchSize: api.DefaultMaxBatchSize,
			MaxBodySize:  api.DefaultMaxBodySize,
		},
		Recorder: RecorderConfig{
			BufferSize:    500,
			FlushInterval: 5 * time.Second,
		},
		WorkersCount: 8,
	}
}

func (cfg Config) Parse() (*Runtime, *slog.Logger, error) {
	logger, err := parseLoggerConfig(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot create logger: %w", err)
	}

	d, err := translator.DialectByName(cfg.Translator.Dialect)
	if err != nil {
		return nil, logger, fmt.Errorf("cannot create translator: %w", err)
	}

	t := translator.New(translator.Options{
		KnownFields:  cfg.Translator.KnownFields,
		DefaultField: cfg.Translator.DefaultField,
		MaxDepth:     cfg.Translator.MaxDepth,
		Dialect:      d,
		Logger:       logger.With("component", "translator"),
	})

	preprocessors := make([]preprocessor.Preprocessor, len(cfg.Preprocessors))
	for i, pc := range cfg.Preprocessors {
		p, err := parsePreprocessorConfig(pc)
		if err != nil {
			return nil, logger, fmt.Errorf("cannot create preprocessor `%s`: %w", pc.Name, err)
		}
		preprocessors[i] = p
	}

	rt := &Runtime{
		API: cfg.API,
		Engine: engine.Config{
			Translator:    t,
			Preprocessors: preprocessors,
			Template:      cfg.Template,
			WorkersCount:  cfg.WorkersCount,
		},
	}

	if cfg.Storage != nil {
		st, err := parseStorageConfig(*cfg.Storage)
		if err != nil {
			return nil, logger, fmt.Errorf("cannot create storage: %w", err)
		}

		rt.Storage = st
		rt.Engine.Previewer = st
	}

	if cfg.Recorder.Enabled {
		if rt.Storage == nil {
			return nil, logger, errors.New("recorder needs a storage")
		}

		rt.Engine.Storage = rt.Storage
		rt.Engine.TranslationsBufferMaxSize = cfg.Recorder.BufferSize
		rt.Engine.StorageFlushInterval = cfg.Recorder.FlushInterval
	}

	if cfg.Translator.KnownFieldsFile != "" {
		rt.Watcher = watch.NewFieldsFileWatcher(logger.With("component", "watcher"), cfg.Translator.KnownFieldsFile, t)
	}

	return rt, logger, nil
}

func parseLoggerConfig(cfg LoggerConfig) (*slog.Logger, error) {
	var logger *slog.Logger
	var handler slog.Handler

	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	var w *os.File
	switch cfg.Output {
	case "", "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		return nil, fmt.Errorf("invalid log output: %s", cfg.Output)
	}

	switch cfg.Type {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "text":
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	case "colored-text":
		handler = tint.NewHandler(w, &tint.Options{Level: level, AddSource: true})
	default:
		return nil, fmt.Errorf("invalid log type: %s", cfg.Type)
	}

	logger = slog.New(handler)

	return logger, nil
}

func parseStorageConfig(cfg StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "clickhouse":
		var clickHouseConfig storage.ClickHouseStorageConfig

		if err := remarshal(cfg.Config, &clickHouseConfig); err != nil {
			return nil, fmt.Errorf("cannot parse clickhouse storage config: %w", err)
		}

		s, err := storage.NewClickHouseStorage(clickHouseConfig)
		if err != nil {
			return nil, fmt.Errorf("cannot create clickhouse storage: %w", err)
		}

		return s, nil

	case "doris":
		var dorisConfig storage.DorisStorageConfig

		if err := remarshal(cfg.Config, &dorisConfig); err != nil {
			return nil, fmt.Errorf("cannot parse doris storage config: %w", err)
		}

		s, err := storage.NewDorisStorage(dorisConfig)
		if err != nil {
			return nil, fmt.Errorf("cannot create doris storage: %w", err)
		}

		return s, nil

	default:
		return nil, fmt.Errorf("invalid storage type: %s", cfg.Type)
	}
}

func parsePreprocessorConfig(cfg PreprocessorConfig) (preprocessor.Preprocessor, error) {
	switch cfg.Type {
	case "html":
		return preprocessor.NewHTMLPreprocessor(preprocessor.HTMLPreprocessorConfig{Name: cfg.Name})

	case "variables":
		var variablesConfig preprocessor.VariablesPreprocessorConfig
		err := remarshal(cfg.Config, &variablesConfig)
		if err != nil {
			return nil, fmt.Errorf("cannot create variables preprocessor: %w", err)
		}

		variablesConfig.Name = cfg.Name

		return preprocessor.NewVariablesPreprocessor(variablesConfig)

	case "lua":
		var luaConfig preprocessor.LuaPreprocessorConfig
		err := remarshal(cfg.Config, &luaConfig)
		if err != nil {
			return nil, fmt.Errorf("cannot create lua preprocessor: %w", err)
		}

		luaConfig.Name = cfg.Name

		p, err := preprocessor.NewLuaPreprocessor(luaConfig)
		if err != nil {
			return nil, fmt.Errorf("cannot create lua preprocessor: %w", err)
		}

		return p, nil

	default:
		return nil, fmt.Errorf("invalid preprocessor type: %s", cfg.Type)
	}
}

// remarshal takes an input value, marshals it to YAML, and then unmarshals it into a new value of the same type.
// This is useful for converting generic interfaces (like map[string]any) into concrete struct types.
// The output parameter must be a pointer to the target type.
func remarshal(input any, output any) error {
	// Marshal the input to YAML
	yamlBytes, err := yaml.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal to YAML: %w", err)
	}

	// Unmarshal the YAML into the output
	if err := yaml.Unmarshal(yamlBytes, output); err != nil {
		return fmt.Errorf("failed to unmarshal from YAML: %w", err)
	}

	return nil
}
