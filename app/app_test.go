package app

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/thisisjab/querybridge/api"
	"github.com/thisisjab/querybridge/config"
	"github.com/thisisjab/querybridge/engine"
	"github.com/thisisjab/querybridge/entity"
	"github.com/thisisjab/querybridge/storage"
	"github.com/thisisjab/querybridge/translator"
	"github.com/thisisjab/querybridge/watch"
)

type fakeStorage struct {
	mu        sync.Mutex
	connected bool
	closed    bool
}

func (f *fakeStorage) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	return nil
}

func (f *fakeStorage) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeStorage) StoreTranslations(ctx context.Context, records ...entity.TranslationRecord) error {
	return nil
}

func (f *fakeStorage) Dialect() string {
	return "doris"
}

func (f *fakeStorage) Preview(ctx context.Context, req storage.PreviewRequest) ([]storage.Row, error) {
	return nil, nil
}

func newRuntime(tr *translator.Translator) *config.Runtime {
	return &config.Runtime{
		Engine: engine.Config{
			Translator:   tr,
			WorkersCount: 1,
		},
		API: api.Config{Addr: "127.0.0.1:0"},
	}
}

func TestRunFailsWhenKnownFieldsCannotBeLoaded(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	tr := translator.New(translator.Options{})

	rt := newRuntime(tr)
	rt.Watcher = watch.NewFieldsFileWatcher(logger, filepath.Join(t.TempDir(), "missing.txt"), tr)

	done := make(chan error, 1)
	go func() { done <- Run(context.Background(), rt, logger) }()

	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "cannot load known fields") {
			t.Fatalf("Run returned %v, want a known fields error", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run started serving without the known fields")
	}
}

func TestRunShutsDownCleanly(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	s := &fakeStorage{}

	rt := newRuntime(translator.New(translator.Options{}))
	rt.Storage = s
	rt.Engine.Storage = s
	rt.Engine.Previewer = s
	rt.Engine.TranslationsBufferMaxSize = 10

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, rt, logger) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancellation")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected || !s.closed {
		t.Fatalf("connected = %t, closed = %t, want both", s.connected, s.closed)
	}
}
