package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/thisisjab/querybridge/entity"
	"github.com/thisisjab/querybridge/storage"
)

// Storage keeps the translation audit trail.
// Storage doesn't need to buffer by itself; the engine batches records.
type Storage interface {
	StoreTranslations(ctx context.Context, records ...entity.TranslationRecord) error
}

// Previewer runs a translated condition against the log table. Dialect names
// the SQL dialect the condition must be rendered in.
type Previewer interface {
	Dialect() string
	Preview(ctx context.Context, req storage.PreviewRequest) ([]storage.Row, error)
}

// storageManager manages storage operations like inserting, buffering, and flushing translations.
// Note that you should never disable buffering and scheduled flushing together.
type storageManager struct {
	storage     Storage
	logger      *slog.Logger
	buffer      []entity.TranslationRecord
	bufferMutex sync.Mutex
	wg          sync.WaitGroup

	// stopped is set once run has made its final flush. Records added
	// afterwards are written directly.
	stopped bool

	// bufferMaxSize defines the maximum items that buffer holds before flushing.
	// If value is reached, buffer will be flushed immediately.
	// Setting this to zero will disable buffering.
	bufferMaxSize uint

	// flushInterval defines the interval at which buffer will be flushed.
	// Setting flushInterval to 0 will disable scheduled flushing.
	flushInterval time.Duration
}

func newStorageManager(logger *slog.Logger, storage Storage, bufferMaxSize uint, flushInterval time.Duration) *storageManager {
	return &storageManager{
		logger:        logger,
		storage:       storage,
		bufferMaxSize: bufferMaxSize,
		buffer:        make([]entity.TranslationRecord, 0, bufferMaxSize),
		flushInterval: flushInterval,
	}
}

func (sm *storageManager) run(ctx context.Context) {
	var tick <-chan time.Time

	// A nil channel blocks forever, which disables scheduled flushing.
	if sm.flushInterval > 0 {
		ticker := time.NewTicker(sm.flushInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			// The parent context is done; the final flush gets its own.
			sm.bufferMutex.Lock()
			sm.stopped = true
			sm.bufferMutex.Unlock()

			sm.flush(context.WithoutCancel(ctx))
			sm.wg.Wait()
			return
		case <-tick:
			sm.flush(ctx)
		}
	}
}

func (sm *storageManager) flush(ctx context.Context) {
	var toFlush []entity.TranslationRecord

	// Swap buffer
	sm.bufferMutex.Lock()
	if len(sm.buffer) > 0 {
		toFlush = sm.buffer
		sm.buffer = make([]entity.TranslationRecord, 0, sm.bufferMaxSize)
	}
	sm.bufferMutex.Unlock()

	if len(toFlush) > 0 {
		sm.store(ctx, toFlush)
	}
}

func (sm *storageManager) store(ctx context.Context, toFlush []entity.TranslationRecord) {
	sm.wg.Go(func() {
		if err := sm.storage.StoreTranslations(ctx, toFlush...); err != nil {
			sm.logger.Error("failed to flush translations", "error", err, "count", len(toFlush))
			return
		}

		sm.logger.Debug("flushed translations successfully", "count", len(toFlush))
	})
}

func (sm *storageManager) addTranslations(ctx context.Context, records ...entity.TranslationRecord) {
	if len(records) == 0 {
		return
	}

	var toFlush []entity.TranslationRecord

	sm.bufferMutex.Lock()
	if sm.stopped {
		sm.bufferMutex.Unlock()
		sm.logger.Warn("translation recorded after shutdown, storing directly", "count", len(records))
		if err := sm.storage.StoreTranslations(context.WithoutCancel(ctx), records...); err != nil {
			sm.logger.Error("failed to store translations", "error", err, "count", len(records))
		}
		return
	}

	sm.buffer = append(sm.buffer, records...)

	// Check if buffer reached flush size
	if sm.bufferMaxSize > 0 && uint(len(sm.buffer)) >= sm.bufferMaxSize {
		toFlush = sm.buffer
		sm.buffer = make([]entity.TranslationRecord, 0, sm.bufferMaxSize)
	}
	sm.bufferMutex.Unlock()

	// Flush asynchronously if needed. The request context may end before
	// the write does.
	if toFlush != nil {
		sm.store(context.WithoutCancel(ctx), toFlush)
	}
}
