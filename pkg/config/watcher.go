package config

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/opsdeck/opsdeck/pkg/telemetry"
)

// reloadDelay debounces bursts of file system events into one reload.
const reloadDelay = 500 * time.Millisecond

// Watcher reloads the configuration when its file changes on disk.
type Watcher struct {
	path    string
	logger  *telemetry.Logger
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher for the given configuration file.
func NewWatcher(path string, logger *telemetry.Logger) *Watcher {
	return &Watcher{
		path:   path,
		logger: logger.NewComponentLogger("config-watcher"),
	}
}

// Watch starts watching the configuration file and calls reloadFn with
// every successfully reloaded configuration. It returns immediately; the
// watch loop runs until the context is cancelled.
func (w *Watcher) Watch(ctx context.Context, reloadFn func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	w.watcher = watcher

	if err := watcher.Add(w.path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}

	go w.processEvents(ctx, reloadFn)

	w.logger.WithField("path", w.path).Info("watching configuration file")
	return nil
}

func (w *Watcher) processEvents(ctx context.Context, reloadFn func(*Config)) {
	var reloadTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			_ = w.watcher.Close()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			w.logger.WithField("op", event.Op.String()).Debug("configuration file changed")

			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(reloadDelay, func() {
				w.reload(reloadFn)
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Error("watcher error")
		}
	}
}

// reload re-reads the file. Invalid configurations are logged and dropped;
// the previous configuration stays in effect.
func (w *Watcher) reload(reloadFn func(*Config)) {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.WithError(err).Error("failed to reload configuration")
		return
	}

	reloadFn(cfg)
	w.logger.Info("configuration reloaded")
}

// Stop stops watching for file changes.
func (w *Watcher) Stop() error {
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}
