package engine

import (
	"context"
	"log/slog"
	"sync"
)

type translateFunc func(ctx context.Context, req Request) (Response, error)

type job struct {
	index int
	req   Request
}

// processorManager fans a batch of requests out to a fixed number of workers.
type processorManager struct {
	translate    translateFunc
	logger       *slog.Logger
	workersCount int
	wg           sync.WaitGroup
}

func newProcessorManager(logger *slog.Logger, translate translateFunc, workersCount int) *processorManager {
	return &processorManager{
		translate:    translate,
		logger:       logger,
		workersCount: workersCount,
	}
}

func (pm *processorManager) run(ctx context.Context, reqs []Request) ([]Response, error) {
	results := make([]Response, len(reqs))
	jobs := make(chan job)

	spawnWorker := func(workerId int) {
		for {
			select {
			case <-ctx.Done():
				return
			case j, ok := <-jobs:
				if !ok {
					// The jobs channel is closed and empty. No more work.
					return
				}

				resp, err := pm.translate(ctx, j.req)
				if err != nil {
					resp.Query = j.req.Query
					resp.Error = err.Error()
				}

				pm.logger.Debug("processed batch query", "worker_id", workerId, "index", j.index)

				// Each index is written by exactly one worker.
				results[j.index] = resp
			}
		}
	}

	for i := 0; i < min(pm.workersCount, max(len(reqs), 1)); i++ {
		pm.wg.Go(func() {
			spawnWorker(i)
		})
	}

feed:
	for i, r := range reqs {
		select {
		case jobs <- job{index: i, req: r}:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)

	pm.wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
