// Package watch reloads the known field set when its file changes.
package watch

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// FieldSetter receives the reloaded field list.
type FieldSetter interface {
	SetKnownFields(fields []string)
}

// FieldsFileWatcher loads a known fields file and reloads it whenever it is
// written. The file holds one field per line; blank lines and lines starting
// with # are skipped.
type FieldsFileWatcher struct {
	filePath string
	target   FieldSetter
	logger   *slog.Logger
}

func NewFieldsFileWatcher(logger *slog.Logger, filePath string, target FieldSetter) *FieldsFileWatcher {
	return &FieldsFileWatcher{
		logger:   logger,
		filePath: filePath,
		target:   target,
	}
}

// Load reads the file once and hands the fields to the target.
func (f *FieldsFileWatcher) Load() error {
	fields, err := ReadFields(f.filePath)
	if err != nil {
		return err
	}

	f.target.SetKnownFields(fields)
	f.logger.Info("loaded known fields", "path", f.filePath, "count", len(fields))

	return nil
}

// Watch loads the file and keeps reloading it until ctx is done. A reload
// that fails keeps the previous field set.
func (f *FieldsFileWatcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors that save by renaming a
	// new file over the old one replace the inode.
	if err := watcher.Add(filepath.Dir(f.filePath)); err != nil {
		return fmt.Errorf("cannot add directory to watcher: %w", err)
	}

	if err := f.Load(); err != nil {
		return err
	}

	target := filepath.Clean(f.filePath)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				f.logger.Debug("fsnotify watcher channel is closed.")
				return nil
			}

			if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			if err := f.Load(); err != nil {
				f.logger.Error("failed to reload known fields", "path", f.filePath, "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

// ReadFields parses a known fields file.
func ReadFields(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read fields file: %w", err)
	}

	var fields []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields = append(fields, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot parse fields file: %w", err)
	}

	return fields, nil
}
