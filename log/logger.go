// SPDX-License-Identifier: MIT

// Package log wraps zerolog with process-wide configuration and a buffer for
// records emitted before the logging subsystem is configured.
package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config captures options for configuring the global logger.
type Config struct {
	Level   string    // optional log level ("debug", "info", etc.)
	Output  io.Writer // optional writer (defaults to os.Stdout)
	Service string    // optional service name attached to every log entry
	Console bool      // human-readable console output instead of JSON
}

var (
	mu         sync.Mutex
	configured bool
	base       zerolog.Logger
	pending    []pendingRecord
)

type pendingRecord struct {
	level     zerolog.Level
	component string
	message   string
}

// Configure initialises the global zerolog logger. The first call wins;
// subsequent calls only adjust the level. Records buffered before the first
// call are flushed in order.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	level := zerolog.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	} else if env := os.Getenv("GOEDA_LOG_LEVEL"); env != "" {
		if parsed, err := zerolog.ParseLevel(env); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)

	if configured {
		return
	}
	zerolog.TimeFieldFormat = time.RFC3339

	writer := cfg.Output
	if writer == nil {
		writer = os.Stdout
	}
	if cfg.Console {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.RFC3339}
	}

	service := cfg.Service
	if service == "" {
		service = os.Getenv("GOEDA_SERVICE")
		if service == "" {
			service = "goeda"
		}
	}

	base = zerolog.New(writer).With().
		Timestamp().
		Str("service", service).
		Logger()
	configured = true

	for _, rec := range pending {
		evt := base.WithLevel(rec.level)
		if rec.component != "" {
			evt = evt.Str("component", rec.component)
		}
		evt.Msg(rec.message)
	}
	pending = nil
}

// SetLevel adjusts the global log level at runtime.
func SetLevel(level string) error {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(parsed)
	return nil
}

// Deferred records a message that will be flushed once Configure is called.
// If the logger is already configured, the message is logged immediately.
func Deferred(level zerolog.Level, component, message string) {
	mu.Lock()
	if !configured {
		pending = append(pending, pendingRecord{level: level, component: component, message: message})
		mu.Unlock()
		return
	}
	logger := base
	mu.Unlock()

	evt := logger.WithLevel(level)
	if component != "" {
		evt = evt.Str("component", component)
	}
	evt.Msg(message)
}

func logger() zerolog.Logger {
	mu.Lock()
	ready := configured
	l := base
	mu.Unlock()
	if !ready {
		Configure(Config{})
		mu.Lock()
		l = base
		mu.Unlock()
	}
	return l
}

// Base returns the configured base logger instance.
func Base() zerolog.Logger {
	return logger()
}

// WithComponent returns a child logger annotated with the given component name.
func WithComponent(component string) zerolog.Logger {
	return logger().With().Str("component", component).Logger()
}

// Derive attaches arbitrary fields to a child logger using the provided builder function.
func Derive(build func(*zerolog.Context)) zerolog.Logger {
	ctx := logger().With()
	if build != nil {
		build(&ctx)
	}
	return ctx.Logger()
}
