package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the holder's YAML file and calls onChange with the newly
// active Config after every successful reload. It runs until ctx is
// cancelled.
//
// The parent directory is watched rather than the file so that atomic saves
// (write to temp, rename over) and a file created after startup are seen. A
// failed reload is logged and the previous config stays active.
func Watch(ctx context.Context, h *Holder, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watch: %w", err)
	}
	defer watcher.Close()

	target, err := filepath.Abs(h.Path())
	if err != nil {
		return fmt.Errorf("config watch: %w", err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("config watch %s: %w", filepath.Dir(target), err)
	}

	slog.Info("config: watching for changes", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			if err := h.Reload(); err != nil {
				slog.Error("config: reload failed, keeping previous config", "path", target, "error", err)
				continue
			}
			slog.Info("config: reloaded", "path", target)
			onChange(h.Get())

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "error", err)
		}
	}
}
