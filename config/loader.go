// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence ENV > file > defaults.
type Loader struct {
	configPath string
}

// NewLoader creates a configuration loader. An empty path skips the file
// stage.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

// Load resolves the configuration: defaults, then the YAML file if present,
// then GOEDA_* environment overrides, then validation.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Default()

	if l.configPath != "" {
		if err := l.mergeFile(&cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	mergeEnv(&cfg)

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (l *Loader) mergeFile(cfg *AppConfig) error {
	raw, err := os.ReadFile(l.configPath)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parse %s: %w", l.configPath, err)
	}
	return nil
}

func mergeEnv(cfg *AppConfig) {
	cfg.Name = envString("GOEDA_NAME", cfg.Name)
	cfg.Log.Level = envString("GOEDA_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Console = envBool("GOEDA_LOG_CONSOLE", cfg.Log.Console)
	cfg.OneShot = envBool("GOEDA_ONE_SHOT", cfg.OneShot)

	cfg.HTTP.Enabled = envBool("GOEDA_HTTP_ENABLED", cfg.HTTP.Enabled)
	cfg.HTTP.Listen = envString("GOEDA_HTTP_LISTEN", cfg.HTTP.Listen)
	cfg.HTTP.ReadTimeout = envDuration("GOEDA_HTTP_READ_TIMEOUT", cfg.HTTP.ReadTimeout)
	cfg.HTTP.WriteTimeout = envDuration("GOEDA_HTTP_WRITE_TIMEOUT", cfg.HTTP.WriteTimeout)
	cfg.HTTP.IdleTimeout = envDuration("GOEDA_HTTP_IDLE_TIMEOUT", cfg.HTTP.IdleTimeout)
	cfg.HTTP.ShutdownTimeout = envDuration("GOEDA_HTTP_SHUTDOWN_TIMEOUT", cfg.HTTP.ShutdownTimeout)
	cfg.HTTP.RequestLimit = envInt("GOEDA_HTTP_REQUEST_LIMIT", cfg.HTTP.RequestLimit)
	cfg.HTTP.RequestWindow = envDuration("GOEDA_HTTP_REQUEST_WINDOW", cfg.HTTP.RequestWindow)

	cfg.Metrics.Enabled = envBool("GOEDA_METRICS_ENABLED", cfg.Metrics.Enabled)

	cfg.Store.Backend = envString("GOEDA_STORE_BACKEND", cfg.Store.Backend)
	cfg.Store.Path = envString("GOEDA_STORE_PATH", cfg.Store.Path)

	cfg.Redis.Enabled = envBool("GOEDA_REDIS_ENABLED", cfg.Redis.Enabled)
	cfg.Redis.Addr = envString("GOEDA_REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envString("GOEDA_REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envInt("GOEDA_REDIS_DB", cfg.Redis.DB)
	cfg.Redis.Channel = envString("GOEDA_REDIS_CHANNEL", cfg.Redis.Channel)

	cfg.Telemetry.Enabled = envBool("GOEDA_TELEMETRY_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = envString("GOEDA_TELEMETRY_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = envString("GOEDA_OTLP_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.Environment = envString("GOEDA_ENVIRONMENT", cfg.Telemetry.Environment)
	cfg.Telemetry.SamplingRate = envFloat("GOEDA_SAMPLING_RATE", cfg.Telemetry.SamplingRate)
}

func envString(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return defaultValue
}

func envBool(key string, defaultValue bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func envFloat(key string, defaultValue float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func envDuration(key string, defaultValue time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}
