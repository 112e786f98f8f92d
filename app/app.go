// Package app wires a parsed configuration into a running server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/thisisjab/querybridge/api"
	"github.com/thisisjab/querybridge/config"
	"github.com/thisisjab/querybridge/engine"
)

// Run connects the storage, loads the known fields, starts the watcher and
// the translation recorder, and serves the API until ctx is done. The
// recorder is stopped only after the server has drained its requests.
func Run(ctx context.Context, rt *config.Runtime, logger *slog.Logger) error {
	if rt.Storage != nil {
		if err := rt.Storage.Connect(ctx); err != nil {
			return fmt.Errorf("cannot connect to storage: %w", err)
		}
		defer rt.Storage.Close(context.WithoutCancel(ctx)) //nolint:errcheck
	}

	if rt.Watcher != nil {
		if err := rt.Watcher.Load(); err != nil {
			return fmt.Errorf("cannot load known fields: %w", err)
		}
	}

	e, err := engine.New(rt.Engine, logger.With("component", "engine"))
	if err != nil {
		return fmt.Errorf("cannot create engine: %w", err)
	}

	server, err := api.NewServer(rt.API, logger.With("component", "api"), e)
	if err != nil {
		return fmt.Errorf("cannot create server: %w", err)
	}

	serveCtx, stopServe := context.WithCancel(ctx)
	defer stopServe()

	recordCtx, stopRecorder := context.WithCancel(context.WithoutCancel(ctx))
	defer stopRecorder()

	var wg sync.WaitGroup

	if rt.Watcher != nil {
		wg.Go(func() {
			if err := rt.Watcher.Watch(serveCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("known fields watcher stopped", "error", err)
			}
		})
	}

	wg.Go(func() {
		if err := e.Run(recordCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("engine error.", "error", err)
		}
	})

	err = server.Serve(serveCtx)

	// No request is in flight anymore, so the final flush sees every record.
	stopServe()
	stopRecorder()
	wg.Wait()

	return err
}
