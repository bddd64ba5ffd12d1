// SPDX-License-Identifier: MIT

package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/goeda/goeda/ports"
	"github.com/goeda/goeda/telemetry"
)

const shutdownTimeout = 30 * time.Second

// Run starts the application and blocks until the context is cancelled, a
// primary port fails, or (in one-shot mode) every primary port returns. It
// then performs a graceful shutdown with a bounded, detached context.
func (a *App) Run(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("run context is nil")
	}
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return ErrAlreadyStarted
	}
	a.started = true
	a.mu.Unlock()

	a.logger.Info().
		Str("name", a.name).
		Str("version", a.version).
		Bool("one_shot", a.oneShot.Load()).
		Msg("starting application")

	if err := a.initTelemetry(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("telemetry initialization failed, continuing without tracing")
	}

	if a.afterBootstrap != nil {
		if err := a.afterBootstrap(ctx, a); err != nil {
			return fmt.Errorf("after-bootstrap hook: %w", err)
		}
	}

	primaries := a.filterOneShot(a.primaries)

	// All primary ports are configured, in priority order, before any
	// entrypoint starts.
	for _, p := range primaries {
		if err := p.Configure(ctx, a); err != nil {
			return fmt.Errorf("configure %T: %w", p, err)
		}
	}

	// A primary port may enable one-shot while configuring (the CLI port
	// does, for --one-shot), so filter again before launching entrypoints.
	primaries = a.filterOneShot(primaries)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	for _, p := range primaries {
		p := p
		g.Go(func() error {
			if err := p.Entrypoint(gctx, a); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("entrypoint %T: %w", p, err)
			}
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	var runErr error
	select {
	case runErr = <-done:
		if runErr != nil {
			a.logger.Error().Err(runErr).Msg("primary port failed, initiating shutdown")
		}
	case <-ctx.Done():
		a.logger.Info().Msg("shutdown signal received")
		cancel()
		select {
		case runErr = <-done:
		case <-time.After(shutdownTimeout):
			a.logger.Warn().Msg("primary ports did not stop within the shutdown timeout")
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancelShutdown()
	if err := a.Shutdown(shutdownCtx); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

// filterOneShot drops primary ports that cannot run in one-shot mode. A
// no-op while one-shot is off.
func (a *App) filterOneShot(primaries []ports.PrimaryPort) []ports.PrimaryPort {
	if !a.oneShot.Load() {
		return primaries
	}
	kept := primaries[:0:0]
	for _, p := range primaries {
		if p.OneShotCompatible() {
			kept = append(kept, p)
		} else {
			a.logger.Debug().Str("port", fmt.Sprintf("%T", p)).Msg("skipping primary port in one-shot mode")
		}
	}
	return kept
}

func (a *App) initTelemetry(ctx context.Context) error {
	tcfg := a.cfg.Telemetry
	if !tcfg.Enabled {
		return nil
	}
	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        true,
		ServiceName:    a.name,
		ServiceVersion: a.version,
		Environment:    tcfg.Environment,
		ExporterType:   tcfg.Exporter,
		Endpoint:       tcfg.Endpoint,
		SamplingRate:   tcfg.SamplingRate,
	})
	if err != nil {
		return err
	}
	a.RegisterShutdownHook("telemetry", provider.Shutdown)
	a.logger.Info().
		Str("exporter", tcfg.Exporter).
		Str("endpoint", tcfg.Endpoint).
		Float64("sampling_rate", tcfg.SamplingRate).
		Msg("telemetry initialized")
	return nil
}

// Shutdown executes the registered shutdown hooks in reverse order. It is
// idempotent; only the first call runs the hooks.
func (a *App) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("shutdown context is nil")
	}
	a.mu.Lock()
	if a.stopping {
		a.mu.Unlock()
		return nil
	}
	if !a.started {
		a.mu.Unlock()
		return ErrNotStarted
	}
	a.stopping = true
	hooks := make([]namedHook, len(a.hooks))
	copy(hooks, a.hooks)
	a.mu.Unlock()

	a.logger.Info().Int("hooks", len(hooks)).Msg("shutting down application")

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		hook := hooks[i]
		start := time.Now()
		if err := hook.hook(ctx); err != nil {
			a.logger.Error().
				Err(err).
				Str("hook", hook.name).
				Dur("duration", time.Since(start)).
				Msg("shutdown hook failed")
			errs = append(errs, fmt.Errorf("hook %s: %w", hook.name, err))
			continue
		}
		a.logger.Debug().
			Str("hook", hook.name).
			Dur("duration", time.Since(start)).
			Msg("shutdown hook completed")
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	a.logger.Info().Msg("application stopped cleanly")
	return nil
}
