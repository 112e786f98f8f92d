package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/thisisjab/querybridge/entity"
	"github.com/thisisjab/querybridge/fault"
	"github.com/thisisjab/querybridge/preprocessor"
	"github.com/thisisjab/querybridge/storage"
	"github.com/thisisjab/querybridge/template"
	"github.com/thisisjab/querybridge/translator"
)

type Config struct {
	Translator    *translator.Translator
	Preprocessors []preprocessor.Preprocessor
	Template      template.Config

	// Storage keeps an audit trail of translations. Optional.
	Storage Storage
	// Previewer runs translated conditions against the log table. Optional.
	Previewer Previewer

	StorageFlushInterval      time.Duration
	TranslationsBufferMaxSize uint
	WorkersCount              uint
}

// Engine ties preprocessing, translation, template rendering, previews and
// the translation audit trail together.
type Engine struct {
	cfg            Config
	logger         *slog.Logger
	storageManager *storageManager
}

func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:    cfg,
		logger: logger,
	}

	if cfg.Storage != nil {
		e.storageManager = newStorageManager(logger, cfg.Storage, cfg.TranslationsBufferMaxSize, cfg.StorageFlushInterval)
	}

	return e, nil
}

func (c Config) validate() error {
	if c.Translator == nil {
		return errors.New("no translator is configured")
	}

	if c.Storage != nil && c.TranslationsBufferMaxSize == 0 && c.StorageFlushInterval == 0 {
		return errors.New("buffer max size and storage flush interval cannot both be zero")
	}

	if c.WorkersCount == 0 {
		return errors.New("workers count cannot be zero")
	}

	return nil
}

// Status describes the translation setup of the engine.
type Status struct {
	Dialect       string `json:"dialect"`
	DefaultField  string `json:"default_field"`
	KnownFields   int    `json:"known_fields"`
	Preprocessors int    `json:"preprocessors"`
	Recording     bool   `json:"recording"`
	Preview       bool   `json:"preview"`
}

func (e *Engine) Status() Status {
	return Status{
		Dialect:       e.cfg.Translator.Dialect().Name(),
		DefaultField:  e.cfg.Translator.DefaultField(),
		KnownFields:   len(e.cfg.Translator.KnownFields()),
		Preprocessors: len(e.cfg.Preprocessors),
		Recording:     e.storageManager != nil,
		Preview:       e.cfg.Previewer != nil,
	}
}

// Run flushes the translation audit trail until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	if e.storageManager == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	e.storageManager.run(ctx)
	return ctx.Err()
}

type Request struct {
	RequestID string
	Query     string

	// Dialect overrides the translator dialect, e.g. "clickhouse".
	Dialect string

	// Variables are substituted before the configured preprocessors run.
	Variables map[string]string
}

type Response struct {
	ID          uuid.UUID               `json:"id"`
	Query       string                  `json:"query"`
	Condition   string                  `json:"condition"`
	Dialect     string                  `json:"dialect"`
	Diagnostics []translator.Diagnostic `json:"diagnostics,omitempty"`

	// Error is only set by TranslateBatch.
	Error string `json:"error,omitempty"`
}

// Translate preprocesses and translates one query.
func (e *Engine) Translate(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	d, err := e.dialect(req.Dialect)
	if err != nil {
		return Response{}, err
	}

	query, err := e.preprocess(req.Query, req.Variables)
	if err != nil {
		return Response{}, err
	}

	started := time.Now()
	res := e.cfg.Translator.TranslateTo(query, d)

	resp := Response{
		ID:          uuid.New(),
		Query:       query,
		Condition:   res.Condition,
		Dialect:     d.Name(),
		Diagnostics: res.Diagnostics,
	}

	e.logger.Debug("translated query", "id", resp.ID, "request_id", req.RequestID, "dialect", resp.Dialect, "diagnostics", len(resp.Diagnostics))

	e.record(ctx, req.RequestID, resp, time.Since(started))

	return resp, nil
}

// TranslateBatch translates queries concurrently. The responses keep the
// order of reqs; a failed query carries its error in Response.Error.
func (e *Engine) TranslateBatch(ctx context.Context, reqs []Request) ([]Response, error) {
	pm := newProcessorManager(e.logger, e.Translate, int(e.cfg.WorkersCount))
	return pm.run(ctx, reqs)
}

type RenderRequest struct {
	RequestID  string
	Template   string
	Query      entity.QueryConfig
	Transforms []entity.Transform
	Dialect    string
	Variables  map[string]string
}

type RenderResponse struct {
	SQL         string                  `json:"sql"`
	Condition   string                  `json:"condition"`
	Diagnostics []translator.Diagnostic `json:"diagnostics,omitempty"`
}

// Render translates the query of req and fills the template placeholders.
func (e *Engine) Render(ctx context.Context, req RenderRequest) (RenderResponse, error) {
	if req.Template == "" {
		return RenderResponse{}, fault.New(fault.BadInputCode, "template is required").
			WithMetadata(fault.FieldErrorsMetadata{"template": {"must not be empty"}})
	}

	resp, err := e.Translate(ctx, Request{
		RequestID: req.RequestID,
		Query:     req.Query.Query.Content,
		Dialect:   req.Dialect,
		Variables: req.Variables,
	})
	if err != nil {
		return RenderResponse{}, err
	}

	sql, err := template.Build(req.Template, req.Query, resp.Condition, req.Transforms, e.cfg.Template)
	if err != nil {
		return RenderResponse{}, err
	}

	return RenderResponse{SQL: sql, Condition: resp.Condition, Diagnostics: resp.Diagnostics}, nil
}

type RenderPanelRequest struct {
	RequestID string
	Template  string
	Panel     entity.Panel
	Dialect   string
}

// RenderPanel renders the template once for every query of the panel. The
// panel variables and transforms apply to every query.
func (e *Engine) RenderPanel(ctx context.Context, req RenderPanelRequest) ([]RenderResponse, error) {
	if len(req.Panel.Queries) == 0 {
		return nil, fault.New(fault.BadInputCode, "panel has no queries").
			WithMetadata(fault.FieldErrorsMetadata{"queries": {"must contain at least one query"}})
	}

	resps := make([]RenderResponse, 0, len(req.Panel.Queries))

	for _, q := range req.Panel.Queries {
		resp, err := e.Render(ctx, RenderRequest{
			RequestID:  req.RequestID,
			Template:   req.Template,
			Query:      q,
			Transforms: req.Panel.Transforms,
			Dialect:    req.Dialect,
			Variables:  req.Panel.Variables,
		})
		if err != nil {
			return nil, err
		}
		resps = append(resps, resp)
	}

	return resps, nil
}

type PreviewRequest struct {
	RequestID string
	Query     string
	Start     time.Time
	End       time.Time
	Sort      []storage.SortField
	Limit     int
}

type PreviewResponse struct {
	Condition string        `json:"condition"`
	Rows      []storage.Row `json:"rows"`
}

// Preview translates the query for the configured log storage and returns
// the matching rows.
func (e *Engine) Preview(ctx context.Context, req PreviewRequest) (PreviewResponse, error) {
	if e.cfg.Previewer == nil {
		return PreviewResponse{}, fault.New(fault.UnavailableCode, "preview storage is not configured")
	}

	resp, err := e.Translate(ctx, Request{
		RequestID: req.RequestID,
		Query:     req.Query,
		Dialect:   e.cfg.Previewer.Dialect(),
	})
	if err != nil {
		return PreviewResponse{}, err
	}

	rows, err := e.cfg.Previewer.Preview(ctx, storage.PreviewRequest{
		Condition: resp.Condition,
		Start:     req.Start,
		End:       req.End,
		Sort:      req.Sort,
		Limit:     req.Limit,
	})
	if err != nil {
		if fault.CodeOf(err) != fault.UnknownCode {
			return PreviewResponse{}, err
		}
		return PreviewResponse{}, fault.New(fault.UnknownCode, "preview query failed").WithOriginal(err)
	}

	return PreviewResponse{Condition: resp.Condition, Rows: rows}, nil
}

func (e *Engine) dialect(name string) (translator.Dialect, error) {
	if name == "" {
		return e.cfg.Translator.Dialect(), nil
	}

	d, err := translator.DialectByName(name)
	if err != nil {
		return nil, fault.New(fault.UnsupportedCode, err.Error()).
			WithMetadata(fault.FieldErrorsMetadata{"dialect": {"must be doris or clickhouse"}})
	}

	return d, nil
}

func (e *Engine) preprocess(query string, variables map[string]string) (string, error) {
	preprocessors := e.cfg.Preprocessors
	if len(variables) > 0 {
		vars, err := preprocessor.NewVariablesPreprocessor(preprocessor.VariablesPreprocessorConfig{
			Name:   "request-variables",
			Values: variables,
			Multi:  true,
		})
		if err != nil {
			return "", fault.New(fault.BadInputCode, "invalid variables").WithOriginal(err)
		}
		preprocessors = append([]preprocessor.Preprocessor{vars}, preprocessors...)
	}

	query, err := preprocessor.Chain(query, preprocessors...)
	if err != nil {
		return "", fault.New(fault.BadInputCode, "cannot preprocess query").WithOriginal(err)
	}

	return query, nil
}

func (e *Engine) record(ctx context.Context, requestID string, resp Response, took time.Duration) {
	if e.storageManager == nil {
		return
	}

	codes := make([]string, 0, len(resp.Diagnostics))
	for _, d := range resp.Diagnostics {
		codes = append(codes, d.Code)
	}

	e.storageManager.addTranslations(ctx, entity.TranslationRecord{
		ID:          resp.ID,
		RequestID:   requestID,
		Query:       resp.Query,
		Condition:   resp.Condition,
		Dialect:     resp.Dialect,
		Diagnostics: codes,
		Duration:    took,
		Timestamp:   time.Now(),
	})
}
