package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/thisisjab/querybridge/app"
	"github.com/thisisjab/querybridge/config"
	"github.com/thisisjab/querybridge/engine"
	"github.com/thisisjab/querybridge/entity"
	"github.com/thisisjab/querybridge/template"
	"github.com/thisisjab/querybridge/translator"
	"gopkg.in/yaml.v3"
)

var (
	configPath   string
	dialect      string
	defaultField string
	knownFields  []string
	panelMode    bool
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "querybridge",
	Short: "Translate Lucene-style log queries into SQL conditions",
	Long: `querybridge turns log explorer queries such as

  level:error AND application_name:(api OR web) "connection refused"

into SQL conditions for Apache Doris or ClickHouse.`,
	SilenceUsage: true,
}

var translateCmd = &cobra.Command{
	Use:   "translate [query]",
	Short: "Translate a query",
	Long: `Translate a query given as argument, or one query per line from stdin.

Examples:
  querybridge translate 'level:error AND app:(a OR b)'
  querybridge translate --dialect clickhouse 'msg:"timeout"'
  cat queries.txt | querybridge translate`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTranslate,
}

var renderCmd = &cobra.Command{
	Use:   "render <template-file> <query-config-file>",
	Short: "Render a SQL template for a panel query",
	Long: `Render a SQL skeleton with ${queryCondition}, ${alias}, ${deviceIdField},
${groupByField} and ${limit} filled from a query config (YAML or JSON).
Other placeholders such as ${DorisSources} are kept for the dashboard.

With --panel the file holds a whole panel (queries, variables, transforms)
and one statement is printed per query.`,
	Args: cobra.ExactArgs(2),
	RunE: runRender,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		rt, logger, err := cfg.Parse()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return app.Run(ctx, rt, logger)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log diagnostics")

	translateCmd.Flags().StringVarP(&dialect, "dialect", "d", "doris", "SQL dialect (doris or clickhouse)")
	translateCmd.Flags().StringVar(&defaultField, "default-field", translator.DefaultField, "field searched by free text")
	translateCmd.Flags().StringSliceVar(&knownFields, "known-fields", nil, "fields matched exactly (default: built-in list)")

	renderCmd.Flags().StringVarP(&dialect, "dialect", "d", "doris", "SQL dialect (doris or clickhouse)")
	renderCmd.Flags().BoolVar(&panelMode, "panel", false, "read a panel instead of a single query config")

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "./.config.yaml", "path to config file")

	rootCmd.AddCommand(translateCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(serveCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}),
	)
}

func newEngine(logger *slog.Logger) (*engine.Engine, error) {
	d, err := translator.DialectByName(dialect)
	if err != nil {
		return nil, err
	}

	return engine.New(engine.Config{
		Translator: translator.New(translator.Options{
			KnownFields:  knownFields,
			DefaultField: defaultField,
			Dialect:      d,
			Logger:       logger,
		}),
		Template:     template.DefaultConfig,
		WorkersCount: 4,
	}, logger)
}

func runTranslate(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	e, err := newEngine(logger)
	if err != nil {
		return err
	}

	var queries []string
	if len(args) == 1 {
		queries = []string{args[0]}
	} else {
		input, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("cannot read stdin: %w", err)
		}
		for _, line := range strings.Split(string(input), "\n") {
			if strings.TrimSpace(line) != "" {
				queries = append(queries, line)
			}
		}
	}

	reqs := make([]engine.Request, len(queries))
	for i, q := range queries {
		reqs[i] = engine.Request{Query: q}
	}

	resps, err := e.TranslateBatch(cmd.Context(), reqs)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, resp := range resps {
		for _, d := range resp.Diagnostics {
			logger.Warn("degraded translation", "query", resp.Query, "code", d.Code, "pos", d.Pos, "message", d.Message)
		}
		fmt.Fprintln(out, resp.Condition)
	}

	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	skeleton, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("cannot read template: %w", err)
	}

	content, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("cannot read query config: %w", err)
	}

	e, err := newEngine(logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if panelMode {
		var panel entity.Panel
		if err := decodeFile(args[1], content, &panel); err != nil {
			return fmt.Errorf("cannot parse panel: %w", err)
		}

		resps, err := e.RenderPanel(cmd.Context(), engine.RenderPanelRequest{
			Template: string(skeleton),
			Panel:    panel,
		})
		if err != nil {
			return err
		}

		for _, resp := range resps {
			fmt.Fprintln(out, resp.SQL)
		}
		return nil
	}

	var query entity.QueryConfig
	if err := decodeFile(args[1], content, &query); err != nil {
		return fmt.Errorf("cannot parse query config: %w", err)
	}

	resp, err := e.Render(cmd.Context(), engine.RenderRequest{
		Template: string(skeleton),
		Query:    query,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, resp.SQL)
	return nil
}

// decodeFile decodes JSON files by extension and everything else as YAML.
func decodeFile(path string, content []byte, dst any) error {
	if strings.HasSuffix(path, ".json") {
		return json.Unmarshal(content, dst)
	}
	return yaml.Unmarshal(content, dst)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
