// SPDX-License-Identifier: MIT

package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/goeda/goeda/config"
	"github.com/goeda/goeda/event"
	"github.com/goeda/goeda/log"
	"github.com/goeda/goeda/ports"
)

// Receiver subscribes to the Redis event channel and dispatches every
// incoming envelope through the application. It runs as a primary port and
// stops when its context ends.
type Receiver struct {
	client  *redis.Client
	channel string
	logger  zerolog.Logger
}

// NewReceiver connects to Redis for the subscribe side.
func NewReceiver(cfg config.RedisConfig) (*Receiver, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &Receiver{
		client:  client,
		channel: cfg.Channel,
		logger:  log.WithComponent("redisbus"),
	}, nil
}

// Priority places the receiver after the CLI port but before outward
// facing servers.
func (r *Receiver) Priority() int { return 50 }

// OneShotCompatible reports false. A subscription never settles on its own,
// so one-shot runs skip it.
func (r *Receiver) OneShotCompatible() bool { return false }

// Configure is a no-op; the connection was verified at construction.
func (r *Receiver) Configure(ctx context.Context, app ports.Application) error {
	return nil
}

// Entrypoint consumes the channel until the context ends. Malformed
// envelopes are logged and skipped.
func (r *Receiver) Entrypoint(ctx context.Context, app ports.Application) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer func() { _ = sub.Close() }()

	// Wait for the subscription to be confirmed before consuming.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %q: %w", r.channel, err)
	}

	r.logger.Info().Str("channel", r.channel).Msg("listening for remote events")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(ctx, app, msg.Payload)
		}
	}
}

func (r *Receiver) handle(ctx context.Context, app ports.Application, payload string) {
	var env event.Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		r.logger.Warn().Err(err).Msg("discarding malformed envelope")
		return
	}
	if err := env.Validate(); err != nil {
		r.logger.Warn().Err(err).Str("event", env.Name).Msg("discarding invalid envelope")
		return
	}

	start := time.Now()
	if _, err := app.Accept(ctx, env.Event()); err != nil {
		r.logger.Error().
			Err(err).
			Str("event", env.Name).
			Dur("duration", time.Since(start)).
			Msg("remote event dispatch failed")
	}
}

// Close releases the Redis connection. Registered as a shutdown hook by
// callers that construct a receiver.
func (r *Receiver) Close() error {
	return r.client.Close()
}

var _ ports.PrimaryPort = (*Receiver)(nil)
