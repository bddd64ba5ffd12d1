// SPDX-License-Identifier: MIT

// Package memorybus provides an in-process event bus. It is not durable and
// delivers at-least-once to in-process subscribers while emit contexts
// remain active.
package memorybus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/goeda/goeda/event"
	"github.com/goeda/goeda/log"
	"github.com/goeda/goeda/metrics"
)

const (
	subscriberBuffer = 64
	dropLogEvery     = 100
)

// Bus fans events out to subscribers keyed by event name. The empty name
// subscribes to every event.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]chan event.Event

	dropCount atomic.Uint64
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[string][]chan event.Event)}
}

// AdapterName identifies the bus in emit failure metrics.
func (b *Bus) AdapterName() string { return "memorybus" }

func emitDropReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "context_done"
	}
}

// Emit delivers the event to every subscriber of its name plus the
// wildcard subscribers. A full subscriber channel blocks until the channel
// drains or the context ends.
func (b *Bus) Emit(ctx context.Context, evt event.Event) error {
	if ctx == nil {
		return fmt.Errorf("emit context is nil")
	}
	if evt == nil {
		return fmt.Errorf("emit event is nil")
	}

	b.mu.RLock()
	chs := append([]chan event.Event(nil), b.subs[evt.Name()]...)
	if evt.Name() != "" {
		chs = append(chs, b.subs[""]...)
	}
	b.mu.RUnlock()

	for _, ch := range chs {
		select {
		case ch <- evt:
		case <-ctx.Done():
			reason := emitDropReason(ctx.Err())
			metrics.IncBusDrop(evt.Name(), reason)
			count := b.dropCount.Add(1)
			if count%dropLogEvery == 0 {
				logger := log.Base()
				logger.Warn().
					Str("event", evt.Name()).
					Str("reason", reason).
					Uint64("dropped", count).
					Msg("memory bus dropped event on context cancellation")
			}
			return fmt.Errorf("emit %q: %w", evt.Name(), ctx.Err())
		}
	}
	return nil
}

// Subscribe registers a channel for the given event name. Name "" receives
// every event.
func (b *Bus) Subscribe(name string) *Subscription {
	ch := make(chan event.Event, subscriberBuffer)

	b.mu.Lock()
	b.subs[name] = append(b.subs[name], ch)
	b.mu.Unlock()

	return &Subscription{bus: b, name: name, ch: ch}
}

// Subscription is a live feed of events for one name. Close detaches it and
// closes the channel.
type Subscription struct {
	bus  *Bus
	name string
	ch   chan event.Event

	closeOnce sync.Once
}

// C returns the event channel. It is closed by Close.
func (s *Subscription) C() <-chan event.Event {
	return s.ch
}

// Close detaches the subscription from the bus.
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()

		lst := s.bus.subs[s.name]
		out := lst[:0]
		for _, c := range lst {
			if c != s.ch {
				out = append(out, c)
			}
		}
		if len(out) == 0 {
			delete(s.bus.subs, s.name)
		} else {
			s.bus.subs[s.name] = out
		}
		close(s.ch)
	})
	return nil
}

var _ event.Emitter = (*Bus)(nil)
