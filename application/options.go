// SPDX-License-Identifier: MIT

package application

import (
	"context"

	"github.com/goeda/goeda/config"
	"github.com/goeda/goeda/eventstore"
)

// Option customises App construction.
type Option func(*options)

type options struct {
	banner         string
	version        string
	configPath     string
	config         *config.AppConfig
	oneShot        bool
	journal        eventstore.Journal
	afterBootstrap func(ctx context.Context, app *App) error
}

// WithBanner sets the banner printed at startup unless quiet mode is active.
func WithBanner(banner string) Option {
	return func(o *options) { o.banner = banner }
}

// WithVersion sets the build version reported by health checks.
func WithVersion(version string) Option {
	return func(o *options) { o.version = version }
}

// WithConfigPath points the loader at a YAML config file.
func WithConfigPath(path string) Option {
	return func(o *options) { o.configPath = path }
}

// WithConfig bypasses the loader entirely. Intended for tests and embedders
// that resolve configuration themselves.
func WithConfig(cfg config.AppConfig) Option {
	return func(o *options) { o.config = &cfg }
}

// WithOneShot forces one-shot mode regardless of configuration.
func WithOneShot() Option {
	return func(o *options) { o.oneShot = true }
}

// WithJournal injects an event journal instead of opening one from the
// store configuration.
func WithJournal(j eventstore.Journal) Option {
	return func(o *options) { o.journal = j }
}

// WithAfterBootstrap registers a hook that runs once, after bootstrap and
// before any primary port.
func WithAfterBootstrap(fn func(ctx context.Context, app *App) error) Option {
	return func(o *options) { o.afterBootstrap = fn }
}
