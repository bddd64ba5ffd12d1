// SPDX-License-Identifier: MIT

// Package config loads application configuration with the precedence
// ENV > file > defaults.
package config

import (
	"fmt"
	"time"
)

// AppConfig is the full application configuration.
type AppConfig struct {
	// Name overrides the application name passed to application.New.
	Name string `yaml:"name"`

	Log       LogConfig       `yaml:"log"`
	OneShot   bool            `yaml:"one_shot"`
	HTTP      HTTPConfig      `yaml:"http"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Store     StoreConfig     `yaml:"store"`
	Redis     RedisConfig     `yaml:"redis"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// LogConfig controls the logging subsystem.
type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// HTTPConfig controls the HTTP API primary port.
type HTTPConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Listen          string        `yaml:"listen"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RequestLimit    int           `yaml:"request_limit"`
	RequestWindow   time.Duration `yaml:"request_window"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// StoreConfig selects the event journal backend.
type StoreConfig struct {
	// Backend is one of "", "memory", "badger", "sqlite". Empty disables
	// journaling.
	Backend string `yaml:"backend"`

	// Path is the Badger directory or the SQLite database file.
	Path string `yaml:"path"`
}

// RedisConfig controls the Redis event emitter and receiver.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"` // "grpc", "http" or "noop"
	Endpoint     string  `yaml:"endpoint"`
	Environment  string  `yaml:"environment"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

// Default returns the built-in defaults.
func Default() AppConfig {
	return AppConfig{
		Log: LogConfig{Level: "info"},
		HTTP: HTTPConfig{
			Enabled:         true,
			Listen:          ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 15 * time.Second,
			RequestLimit:    60,
			RequestWindow:   time.Minute,
		},
		Metrics: MetricsConfig{Enabled: true},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			Channel: "goeda.events",
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			Environment:  "production",
			SamplingRate: 1.0,
		},
	}
}

// Validate checks the configuration for field-level errors.
func Validate(cfg AppConfig) error {
	switch cfg.Store.Backend {
	case "", "memory", "badger", "sqlite":
	default:
		return fmt.Errorf("store.backend: unknown backend %q", cfg.Store.Backend)
	}
	if (cfg.Store.Backend == "badger" || cfg.Store.Backend == "sqlite") && cfg.Store.Path == "" {
		return fmt.Errorf("store.path: required for backend %q", cfg.Store.Backend)
	}
	if cfg.HTTP.Enabled {
		if cfg.HTTP.Listen == "" {
			return fmt.Errorf("http.listen: required when http is enabled")
		}
		if cfg.HTTP.ReadTimeout <= 0 || cfg.HTTP.WriteTimeout <= 0 {
			return fmt.Errorf("http: timeouts must be positive")
		}
		if cfg.HTTP.RequestLimit <= 0 || cfg.HTTP.RequestWindow <= 0 {
			return fmt.Errorf("http: request limit and window must be positive")
		}
	}
	if cfg.Redis.Enabled {
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("redis.addr: required when redis is enabled")
		}
		if cfg.Redis.Channel == "" {
			return fmt.Errorf("redis.channel: required when redis is enabled")
		}
	}
	if cfg.Telemetry.Enabled {
		switch cfg.Telemetry.Exporter {
		case "grpc", "http", "noop":
		default:
			return fmt.Errorf("telemetry.exporter: unknown exporter %q", cfg.Telemetry.Exporter)
		}
		if cfg.Telemetry.SamplingRate < 0 || cfg.Telemetry.SamplingRate > 1 {
			return fmt.Errorf("telemetry.sampling_rate: must be within [0,1]")
		}
	}
	return nil
}
