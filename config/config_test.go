package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/thisisjab/querybridge/storage"
)

const sampleConfig = `
logger:
  level: debug
  type: text
  output: stderr
translator:
  default_field: body
  known_fields: [level, host]
  max_depth: 10
preprocessors:
  - name: entities
    type: html
  - name: dashboard
    type: variables
    config:
      values:
        env: prod
  - name: scoped
    type: lua
    config:
      script: |
        function rewrite_query(q, ctx) return q end
template:
  limit: 50
storage:
  type: doris
  config:
    addr: 127.0.0.1:9030
    database: logs
    table: logs.app
    timeout: 3s
recorder:
  enabled: true
  buffer_size: 10
workers_count: 2
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("cannot write config: %v", err)
	}
	return path
}

func TestLoadAndParse(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Template.Limit != 50 || cfg.Template.Alias != "query_result" {
		t.Fatalf("template defaults were not merged: %+v", cfg.Template)
	}

	if cfg.API.Addr != "localhost:8000" {
		t.Fatalf("api defaults were not kept: %+v", cfg.API)
	}

	rt, logger, err := cfg.Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logger == nil {
		t.Fatalf("expected a logger")
	}

	if diff := cmp.Diff([]string{"host", "level"}, rt.Engine.Translator.KnownFields()); diff != "" {
		t.Fatalf("known fields mismatch (-want +got):\n%s", diff)
	}

	if actual := rt.Engine.Translator.Translate("oops"); actual != `body MATCH_PHRASE("oops")` {
		t.Fatalf("unexpected translation %s", actual)
	}

	if len(rt.Engine.Preprocessors) != 3 {
		t.Fatalf("expected 3 preprocessors, got %d", len(rt.Engine.Preprocessors))
	}

	if _, ok := rt.Storage.(*storage.DorisStorage); !ok {
		t.Fatalf("expected doris storage, got %T", rt.Storage)
	}

	if rt.Engine.Storage == nil || rt.Engine.TranslationsBufferMaxSize != 10 || rt.Engine.StorageFlushInterval != 5*time.Second {
		t.Fatalf("recorder was not wired: %+v", rt.Engine)
	}

	if rt.Watcher != nil {
		t.Fatalf("expected no watcher")
	}
}

func TestParseErrors(t *testing.T) {
	tests := map[string]struct {
		mutate func(*Config)
		err    string
	}{
		"log level": {
			mutate: func(c *Config) { c.Logger.Level = "verbose" },
			err:    "invalid log level",
		},
		"log type": {
			mutate: func(c *Config) { c.Logger.Type = "xml" },
			err:    "invalid log type",
		},
		"dialect": {
			mutate: func(c *Config) { c.Translator.Dialect = "oracle" },
			err:    "cannot create translator",
		},
		"preprocessor": {
			mutate: func(c *Config) { c.Preprocessors = []PreprocessorConfig{{Name: "x", Type: "sed"}} },
			err:    "invalid preprocessor type",
		},
		"storage": {
			mutate: func(c *Config) { c.Storage = &StorageConfig{Type: "postgres"} },
			err:    "invalid storage type",
		},
		"recorder": {
			mutate: func(c *Config) { c.Recorder.Enabled = true },
			err:    "recorder needs a storage",
		},
	}

	for name, tt := range tests {
		cfg := Default()
		tt.mutate(&cfg)

		_, _, err := cfg.Parse()
		if err == nil || !strings.Contains(err.Error(), tt.err) {
			t.Fatalf("%s: expected error containing %q, got %v", name, tt.err, err)
		}
	}
}

func TestParseWatcher(t *testing.T) {
	cfg := Default()
	cfg.Translator.KnownFieldsFile = "/etc/querybridge/fields.txt"

	rt, _, err := cfg.Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rt.Watcher == nil {
		t.Fatalf("expected a watcher")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
