// SPDX-License-Identifier: MIT

package application

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/goeda/goeda/event"
	"github.com/goeda/goeda/metrics"
	"github.com/goeda/goeda/telemetry"
)

// Accept dispatches events to their listeners. Events produced by listeners
// are emitted, journaled and re-dispatched until the cascade settles. An
// event id is never dispatched twice within one call. Listener and journal
// failures are logged and counted but do not abort the cascade; only
// context cancellation does.
func (a *App) Accept(ctx context.Context, events ...event.Event) ([]event.Event, error) {
	return a.cascade(ctx, events, nil)
}

// Replay dispatches events that are already in the journal, so the initial
// events are not appended again. Events produced by the cascade are new and
// get journaled as usual.
func (a *App) Replay(ctx context.Context, events ...event.Event) ([]event.Event, error) {
	journaled := make(map[string]struct{}, len(events))
	for _, evt := range events {
		if evt != nil {
			journaled[evt.ID()] = struct{}{}
		}
	}
	return a.cascade(ctx, events, journaled)
}

func (a *App) cascade(ctx context.Context, events []event.Event, journaled map[string]struct{}) ([]event.Event, error) {
	var produced []event.Event
	seen := make(map[string]struct{})
	queue := make([]event.Event, 0, len(events))
	queue = append(queue, events...)

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return produced, err
		}
		evt := queue[0]
		queue = queue[1:]
		if evt == nil {
			continue
		}
		if _, dup := seen[evt.ID()]; dup {
			continue
		}
		seen[evt.ID()] = struct{}{}

		_, skipJournal := journaled[evt.ID()]
		queue = append(queue, a.dispatch(ctx, evt, &produced, skipJournal)...)
	}

	metrics.CascadeDepth.Observe(float64(len(produced)))
	return produced, nil
}

func (a *App) dispatch(ctx context.Context, evt event.Event, produced *[]event.Event, skipJournal bool) []event.Event {
	listeners := event.ListenersFor(evt.Name())

	spanCtx, span := a.tracer.Start(ctx, "event.dispatch",
		trace.WithAttributes(telemetry.EventAttributes(evt, len(listeners))...))
	defer span.End()

	metrics.EventsAcceptedTotal.WithLabelValues(evt.Name()).Inc()
	if !skipJournal {
		a.appendToJournal(spanCtx, evt)
	}

	var next []event.Event
	for _, listener := range listeners {
		if a.oneShot.Load() {
			if aware, ok := listener.(event.OneShotAware); ok && !aware.OneShotCompatible() {
				continue
			}
		}

		results, err := listener.Accept(spanCtx, evt)
		if err != nil {
			metrics.ListenerFailuresTotal.WithLabelValues(evt.Name()).Inc()
			span.SetAttributes(telemetry.ErrorAttributes(err)...)
			a.logger.Error().
				Err(err).
				Str("event", evt.Name()).
				Str("event_id", evt.ID()).
				Str("listener", fmt.Sprintf("%T", listener)).
				Msg("listener failed")
			continue
		}
		for _, res := range results {
			if res == nil {
				continue
			}
			if err := a.Emit(spanCtx, res); err != nil {
				a.logger.Warn().
					Err(err).
					Str("event", res.Name()).
					Msg("failed to emit produced event")
			}
			*produced = append(*produced, res)
			next = append(next, res)
		}
	}
	return next
}

func (a *App) appendToJournal(ctx context.Context, evt event.Event) {
	if a.journal == nil {
		return
	}
	if err := a.journal.Append(ctx, evt); err != nil {
		metrics.JournalFailuresTotal.Inc()
		a.logger.Error().
			Err(err).
			Str("event", evt.Name()).
			Str("event_id", evt.ID()).
			Msg("journal append failed")
		return
	}
	metrics.JournalAppendsTotal.Inc()
}

// Emit sends the event through every enabled emitter adapter. Failures are
// joined so one broken emitter does not hide the others.
func (a *App) Emit(ctx context.Context, evt event.Event) error {
	if evt == nil {
		return fmt.Errorf("emit: event is nil")
	}
	var errs []error
	for _, emitter := range a.emitters {
		if err := emitter.Emit(ctx, evt); err != nil {
			metrics.EmitFailuresTotal.WithLabelValues(adapterName(emitter)).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", adapterName(emitter), err))
		}
	}
	return errors.Join(errs...)
}

func adapterName(adapter any) string {
	if named, ok := adapter.(interface{ AdapterName() string }); ok {
		return named.AdapterName()
	}
	return fmt.Sprintf("%T", adapter)
}
