// SPDX-License-Identifier: MIT

// Package httpapi exposes the application over HTTP: event ingestion,
// health probes and the metrics endpoint. It runs as a primary port.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/goeda/goeda/event"
	"github.com/goeda/goeda/health"
	"github.com/goeda/goeda/log"
	"github.com/goeda/goeda/metrics"
	"github.com/goeda/goeda/ports"
)

// Server accepts events over HTTP and serves health and metrics probes.
type Server struct {
	health *health.Manager
	logger zerolog.Logger

	srv *http.Server
}

// New builds the server. The health manager is shared so other adapters can
// register their checkers on it.
func New(healthManager *health.Manager) *Server {
	return &Server{
		health: healthManager,
		logger: log.WithComponent("httpapi"),
	}
}

// Priority places the server after internal adapters; it should come up
// last and expose readiness only once the rest is configured.
func (s *Server) Priority() int { return 100 }

// OneShotCompatible reports false. A listening server never settles, so
// one-shot runs skip it.
func (s *Server) OneShotCompatible() bool { return false }

// Configure builds the router and the http.Server from the application
// config. The listener is not opened yet.
func (s *Server) Configure(ctx context.Context, app ports.Application) error {
	cfg := app.Config().HTTP
	if !cfg.Enabled {
		return fmt.Errorf("http adapter registered but disabled in config")
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	if cfg.RequestLimit > 0 {
		r.Use(httprate.Limit(
			cfg.RequestLimit,
			cfg.RequestWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(rateLimitExceeded(cfg.RequestWindow)),
		))
	}

	r.Get("/healthz", s.health.HealthHandler())
	r.Get("/readyz", s.health.ReadyHandler())
	if app.Config().Metrics.Enabled {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}
	r.Post("/events", s.acceptEvent(app))

	var handler http.Handler = r
	if app.Config().Telemetry.Enabled {
		handler = otelhttp.NewHandler(r, "httpapi")
	}

	s.srv = &http.Server{
		Addr:           cfg.Listen,
		Handler:        handler,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	app.RegisterShutdownHook("httpapi", func(ctx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})
	return nil
}

// Entrypoint serves until the listener is closed by the shutdown hook or
// the context ends.
func (s *Server) Entrypoint(ctx context.Context, app ports.Application) error {
	if s.srv == nil {
		return fmt.Errorf("httpapi entrypoint before configure")
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("listen", s.srv.Addr).Msg("http api listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		// The shutdown hook drains the server; just stop accepting here.
		_ = s.srv.Close()
		<-errCh
		return ctx.Err()
	}
}

func (s *Server) acceptEvent(app ports.Application) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var env event.Envelope
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&env); err != nil {
			writeError(w, http.StatusBadRequest, "malformed envelope: "+err.Error())
			return
		}
		if err := env.Validate(); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		start := time.Now()
		produced, err := app.Accept(r.Context(), env.Event())
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("event", env.Name).
				Msg("http event dispatch failed")
			writeError(w, http.StatusInternalServerError, "dispatch failed")
			return
		}

		names := make([]string, 0, len(produced))
		for _, evt := range produced {
			names = append(names, evt.Name())
		}
		s.logger.Debug().
			Str("event", env.Name).
			Int("produced", len(produced)).
			Dur("duration", time.Since(start)).
			Msg("event accepted over http")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":       env.ID,
			"accepted": true,
			"produced": names,
		})
	}
}

func rateLimitExceeded(window time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate_limit_exceeded","detail":"Too many requests. Please try again later."}`))
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": detail})
}

var _ ports.PrimaryPort = (*Server)(nil)
