package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/thisisjab/querybridge/engine"
)

// Service is the translation backend the handlers call.
type Service interface {
	Translate(ctx context.Context, req engine.Request) (engine.Response, error)
	TranslateBatch(ctx context.Context, reqs []engine.Request) ([]engine.Response, error)
	Render(ctx context.Context, req engine.RenderRequest) (engine.RenderResponse, error)
	RenderPanel(ctx context.Context, req engine.RenderPanelRequest) ([]engine.RenderResponse, error)
	Preview(ctx context.Context, req engine.PreviewRequest) (engine.PreviewResponse, error)
	Status() engine.Status
}

type server struct {
	cfg     Config
	logger  *slog.Logger
	service Service
}

func NewServer(cfg Config, logger *slog.Logger, service Service) (*server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.MaxBatchSize == 0 {
		cfg.MaxBatchSize = DefaultMaxBatchSize
	}

	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}

	return &server{
		cfg:     cfg,
		logger:  logger,
		service: service,
	}, nil
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthcheck", s.healthCheckHandler)
	mux.HandleFunc("POST /api/translate", s.translateHandler)
	mux.HandleFunc("POST /api/translate/batch", s.translateBatchHandler)
	mux.HandleFunc("POST /api/render", s.renderHandler)
	mux.HandleFunc("POST /api/render/panel", s.renderPanelHandler)
	mux.HandleFunc("POST /api/preview", s.previewHandler)

	return s.recoverPanicMiddleware(s.requestIDMiddleware(s.requestLoggerMiddleware(s.corsMiddleware(mux))))
}

func (s *server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.routes(),
	}

	// ListenAndServe returns as soon as Shutdown starts; shutdownDone closes
	// once in-flight requests are drained.
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		s.logger.Info("shutting down server", "addr", s.cfg.Addr)
		if err := srv.Shutdown(context.WithoutCancel(ctx)); err != nil {
			s.logger.Error("failed to shutdown server", "addr", s.cfg.Addr, "error", err)
		}
	}()

	var serverErr error
	if s.cfg.CertFile != "" && s.cfg.KeyFile != "" {
		s.logger.Info("starting server with TLS", "addr", s.cfg.Addr)
		serverErr = srv.ListenAndServeTLS(s.cfg.CertFile, s.cfg.KeyFile)
	} else {
		s.logger.Info("starting server without TLS", "addr", s.cfg.Addr)
		serverErr = srv.ListenAndServe()
	}

	if serverErr != nil && serverErr != http.ErrServerClosed {
		return serverErr
	}

	<-shutdownDone
	return nil
}
