// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"

	"github.com/goeda/goeda/event"
)

// Common attribute keys for consistent tracing across the framework.
const (
	EventIDKey        = "event.id"
	EventNameKey      = "event.name"
	EventPreviousKey  = "event.previous_count"
	ListenerCountKey  = "event.listener_count"
	EmitterAdapterKey = "emitter.adapter"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// EventAttributes creates dispatch span attributes for an event.
func EventAttributes(evt event.Event, listenerCount int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(EventIDKey, evt.ID()),
		attribute.String(EventNameKey, evt.Name()),
		attribute.Int(EventPreviousKey, len(evt.PreviousEventIDs())),
		attribute.Int(ListenerCountKey, listenerCount),
	}
}

// ErrorAttributes creates error span attributes.
func ErrorAttributes(err error) []attribute.KeyValue {
	if err == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, err.Error()),
	}
}
