package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/crontick/crontick/internal/logger"
)

// debounceDelay coalesces the burst of filesystem events editors
// produce on save (write, rename, chmod) into a single reload.
const debounceDelay = 250 * time.Millisecond

// Watch monitors the configuration file at path and sends every valid
// new configuration on the returned channel. Invalid or unparseable
// revisions are logged and skipped, the previous configuration stays
// in effect. The channel is closed when ctx is cancelled.
//
// The parent directory is watched rather than the file itself so that
// atomic-rename saves (vim, sed -i) keep being observed.
func Watch(ctx context.Context, path string, log *logger.Logger) (<-chan *Config, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	updates := make(chan *Config, 1)

	go func() {
		defer watcher.Close()
		defer close(updates)

		debounce := time.NewTimer(debounceDelay)
		debounce.Stop()
		defer debounce.Stop()

		base := filepath.Base(path)
		for {
			select {
			case <-ctx.Done():
				return
			case <-debounce.C:
				cfg, err := Load(path)
				if err != nil {
					log.Warn("config reload failed",
						logger.Field{Key: "path", Value: path},
						logger.Field{Key: "error", Value: err.Error()})
					continue
				}
				if errs := cfg.Validate(); len(errs) > 0 {
					log.Warn("config reload rejected",
						logger.Field{Key: "path", Value: path},
						logger.Field{Key: "errors", Value: len(errs)},
						logger.Field{Key: "first_error", Value: errs[0].Error()})
					continue
				}
				select {
				case updates <- cfg:
				case <-ctx.Done():
					return
				}
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != base {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					log.Debug("config change detected", logger.Field{Key: "path", Value: path})
					debounce.Reset(debounceDelay)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("config watch error", logger.Field{Key: "error", Value: err.Error()})
			}
		}
	}()

	return updates, nil
}
