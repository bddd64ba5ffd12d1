// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/goeda/goeda/log"
)

// Watcher reloads the configuration file when it changes and hands the
// validated result to a callback. Parse or validation errors keep the old
// configuration and are logged, not fatal.
type Watcher struct {
	loader   *Loader
	path     string
	onReload func(AppConfig)
	debounce time.Duration
	logger   zerolog.Logger
}

// NewWatcher creates a watcher for the given config file.
func NewWatcher(path string, onReload func(AppConfig)) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("config watcher: path is required")
	}
	if onReload == nil {
		return nil, fmt.Errorf("config watcher: callback is required")
	}
	return &Watcher{
		loader:   NewLoader(path),
		path:     path,
		onReload: onReload,
		debounce: 200 * time.Millisecond,
		logger:   log.WithComponent("config"),
	}, nil
}

// Watch blocks until the context is cancelled, reloading on file changes.
// Editors replace files instead of writing in place, so the parent directory
// is watched and events are filtered by name.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("config watcher error")
		case <-fire:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := w.loader.Load()
	if err != nil {
		w.logger.Error().Err(err).Str("path", w.path).Msg("config reload failed, keeping previous configuration")
		return
	}
	w.logger.Info().Str("path", w.path).Msg("configuration reloaded")
	w.onReload(cfg)
}
