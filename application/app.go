// SPDX-License-Identifier: MIT

// Package application is the glue that binds adapters in the infrastructure
// layer to ports in the domain layer: it bootstraps the port registry, runs
// primary ports in priority order and dispatches events to listeners,
// cascading the events they produce.
package application

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/goeda/goeda/config"
	"github.com/goeda/goeda/event"
	"github.com/goeda/goeda/eventstore"
	"github.com/goeda/goeda/eventstore/badgerstore"
	"github.com/goeda/goeda/eventstore/sqlitestore"
	"github.com/goeda/goeda/log"
	"github.com/goeda/goeda/ports"
	"github.com/goeda/goeda/telemetry"
)

// App is the application layer instance.
type App struct {
	name    string
	banner  string
	version string
	cfg     config.AppConfig

	primaries []ports.PrimaryPort
	emitters  []event.Emitter
	journal   eventstore.Journal

	afterBootstrap func(ctx context.Context, app *App) error

	oneShot atomic.Bool

	mu       sync.Mutex
	hooks    []namedHook
	started  bool
	stopping bool

	logger zerolog.Logger
	tracer trace.Tracer
}

type namedHook struct {
	name string
	hook func(ctx context.Context) error
}

// New bootstraps the application: it loads configuration, configures
// logging, initializes the port registry and resolves the built-in ports.
func New(name string, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := resolveConfig(o)
	if err != nil {
		return nil, err
	}
	if cfg.Name != "" {
		name = cfg.Name
	}
	if name == "" {
		return nil, fmt.Errorf("application name is required")
	}

	log.Configure(log.Config{
		Level:   cfg.Log.Level,
		Console: cfg.Log.Console,
		Service: name,
	})
	logger := log.WithComponent("application")

	if len(ports.Registrations()) == 0 {
		return nil, ErrNoAdapters
	}
	ports.Initialize()

	for _, missing := range ports.Unimplemented() {
		logger.Warn().Str("port", missing).Msg("no adapter implements declared port")
	}

	a := &App{
		name:           name,
		banner:         o.banner,
		version:        o.version,
		cfg:            cfg,
		primaries:      ports.ResolvePrimaries(),
		afterBootstrap: o.afterBootstrap,
		logger:         logger,
		tracer:         telemetry.Tracer("goeda.application"),
	}
	a.oneShot.Store(cfg.OneShot || o.oneShot)

	for _, adapter := range ports.Resolve(ports.EventEmitter) {
		if em, ok := adapter.(event.Emitter); ok {
			a.emitters = append(a.emitters, em)
		} else {
			logger.Warn().Str("adapter", fmt.Sprintf("%T", adapter)).Msg("event emitter registration does not implement event.Emitter")
		}
	}

	if err := a.openJournal(o.journal); err != nil {
		return nil, err
	}

	logger.Info().
		Str("name", name).
		Int("primary_ports", len(a.primaries)).
		Int("emitters", len(a.emitters)).
		Bool("one_shot", a.oneShot.Load()).
		Msg("application bootstrapped")

	return a, nil
}

func resolveConfig(o options) (config.AppConfig, error) {
	if o.config != nil {
		if err := config.Validate(*o.config); err != nil {
			return config.AppConfig{}, fmt.Errorf("validate config: %w", err)
		}
		return *o.config, nil
	}
	path := o.configPath
	if path == "" {
		path = os.Getenv("GOEDA_CONFIG")
	}
	return config.NewLoader(path).Load()
}

func (a *App) openJournal(injected eventstore.Journal) error {
	if injected != nil {
		a.journal = injected
		a.RegisterShutdownHook("journal", func(context.Context) error { return a.journal.Close() })
		return nil
	}

	// A journal adapter registered through the ports registry takes
	// precedence over config-driven backends.
	if adapter, ok := ports.ResolveFirst(ports.EventJournal); ok {
		if j, isJournal := adapter.(eventstore.Journal); isJournal {
			a.journal = j
			a.RegisterShutdownHook("journal", func(context.Context) error { return a.journal.Close() })
			return nil
		}
	}

	var (
		j   eventstore.Journal
		err error
	)
	switch a.cfg.Store.Backend {
	case "":
		return nil
	case "memory":
		j = eventstore.NewMemoryJournal()
	case "badger":
		j, err = badgerstore.Open(a.cfg.Store.Path)
	case "sqlite":
		j, err = sqlitestore.Open(a.cfg.Store.Path)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStoreBackend, a.cfg.Store.Backend)
	}
	if err != nil {
		return fmt.Errorf("open %s journal: %w", a.cfg.Store.Backend, err)
	}
	a.journal = j
	a.logger.Info().Str("backend", a.cfg.Store.Backend).Str("path", a.cfg.Store.Path).Msg("event journal opened")
	a.RegisterShutdownHook("journal", func(context.Context) error { return a.journal.Close() })
	return nil
}

// Name returns the application name.
func (a *App) Name() string { return a.name }

// Banner returns the startup banner, or "" if none was configured.
func (a *App) Banner() string { return a.banner }

// Version returns the build version.
func (a *App) Version() string { return a.version }

// Config returns the resolved application configuration.
func (a *App) Config() config.AppConfig { return a.cfg }

// Journal returns the configured event journal, or nil when journaling is
// disabled.
func (a *App) Journal() eventstore.Journal { return a.journal }

// SetOneShot toggles one-shot behaviour.
func (a *App) SetOneShot(enabled bool) { a.oneShot.Store(enabled) }

// OneShot reports whether one-shot behaviour is active.
func (a *App) OneShot() bool { return a.oneShot.Load() }

// RegisterShutdownHook registers a cleanup function executed during graceful
// shutdown, in reverse registration order.
func (a *App) RegisterShutdownHook(name string, hook func(ctx context.Context) error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks = append(a.hooks, namedHook{name: name, hook: hook})
	a.logger.Debug().Str("hook", name).Msg("registered shutdown hook")
}

// WaitForShutdown returns a context cancelled on SIGINT or SIGTERM. The
// returned stop function releases the signal handler.
func WaitForShutdown() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// AttachEmitter adds an emitter after bootstrap. Meant for adapters whose
// construction depends on the loaded config, wired from the
// after-bootstrap hook. Not safe once Run has started.
func (a *App) AttachEmitter(em event.Emitter) {
	a.emitters = append(a.emitters, em)
}

// AttachPrimary adds a primary port after bootstrap, keeping the priority
// order. Not safe once Run has started.
func (a *App) AttachPrimary(p ports.PrimaryPort) {
	a.primaries = append(a.primaries, p)
	sort.SliceStable(a.primaries, func(i, j int) bool {
		return a.primaries[i].Priority() < a.primaries[j].Priority()
	})
}

var _ ports.Application = (*App)(nil)
