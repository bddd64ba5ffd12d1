// SPDX-License-Identifier: MIT

// Package redisbus carries events across processes over a Redis pub/sub
// channel. The Emitter publishes envelopes, the Receiver feeds incoming
// envelopes into the application as a primary port.
package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/goeda/goeda/config"
	"github.com/goeda/goeda/event"
	"github.com/goeda/goeda/log"
)

const (
	dialTimeout  = 5 * time.Second
	readTimeout  = 3 * time.Second
	writeTimeout = 3 * time.Second

	// publishBurst caps how many events may be published back to back
	// before the limiter starts pacing a hot cascade.
	publishBurst = 100
	publishRate  = rate.Limit(1000)

	// maxPublishAttempts bounds retries of a failed publish. Every attempt
	// takes a limiter token, so retries cannot outpace regular traffic.
	maxPublishAttempts = 3
)

// Emitter publishes event envelopes to a Redis channel.
type Emitter struct {
	client  *redis.Client
	channel string
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewEmitter connects to Redis and verifies the connection with a ping.
func NewEmitter(cfg config.RedisConfig) (*Emitter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger := log.WithComponent("redisbus")
	logger.Info().
		Str("addr", cfg.Addr).
		Int("db", cfg.DB).
		Str("channel", cfg.Channel).
		Msg("connected to redis event channel")

	return &Emitter{
		client:  client,
		channel: cfg.Channel,
		limiter: rate.NewLimiter(publishRate, publishBurst),
		logger:  logger,
	}, nil
}

// AdapterName identifies the emitter in emit failure metrics.
func (e *Emitter) AdapterName() string { return "redisbus" }

// Emit wraps the event in an envelope and publishes it. Failed publishes
// are retried; each attempt consumes a limiter token, bounding the retry
// pressure on a struggling server.
func (e *Emitter) Emit(ctx context.Context, evt event.Event) error {
	if evt == nil {
		return fmt.Errorf("emit event is nil")
	}

	env, err := event.Wrap(evt)
	if err != nil {
		return fmt.Errorf("wrap %q: %w", evt.Name(), err)
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope %q: %w", evt.Name(), err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxPublishAttempts; attempt++ {
		if err := e.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("publish rate limit: %w", err)
		}
		if err := e.client.Publish(ctx, e.channel, payload).Err(); err != nil {
			lastErr = err
			e.logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Str("event", evt.Name()).
				Msg("publish failed")
			continue
		}
		return nil
	}
	return fmt.Errorf("publish %q after %d attempts: %w", evt.Name(), maxPublishAttempts, lastErr)
}

// Ping verifies the connection is still alive. Used as a health checker.
func (e *Emitter) Ping(ctx context.Context) error {
	return e.client.Ping(ctx).Err()
}

// Close releases the Redis connection.
func (e *Emitter) Close() error {
	return e.client.Close()
}

var _ event.Emitter = (*Emitter)(nil)
