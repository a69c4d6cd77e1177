package config

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the config file when it changes on disk and hands the new
// configuration to a callback. Only a successful reload triggers the
// callback; a file that fails to parse keeps the previous configuration.
type Watcher struct {
	path     string
	logger   *zap.Logger
	onReload func(*Config)
}

// NewWatcher creates a config file watcher
func NewWatcher(path string, logger *zap.Logger, onReload func(*Config)) *Watcher {
	return &Watcher{path: path, logger: logger, onReload: onReload}
}

// Run watches the config file until the context is cancelled. Editors often
// replace files on save, so writes are debounced and the path is re-added
// after rename or remove events.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.path); err != nil {
		return err
	}

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				// Re-arm after a short delay so the replacing file exists
				time.AfterFunc(100*time.Millisecond, func() {
					if err := watcher.Add(w.path); err != nil {
						w.logger.Warn("failed to re-watch config file", zap.Error(err))
					}
				})
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(200*time.Millisecond, w.reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("config reload failed, keeping current configuration",
			zap.String("path", w.path),
			zap.Error(err),
		)
		return
	}
	w.logger.Info("configuration reloaded", zap.String("path", w.path))
	w.onReload(cfg)
}
