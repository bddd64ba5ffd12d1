// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus collectors for the event dispatch
// pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EventsAcceptedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goeda_events_accepted_total",
		Help: "Total number of events dispatched to listeners",
	}, []string{"event"})

	ListenerFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goeda_listener_failures_total",
		Help: "Total number of listener errors by event name",
	}, []string{"event"})

	EmitFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goeda_emit_failures_total",
		Help: "Total number of emitter failures by adapter",
	}, []string{"adapter"})

	JournalAppendsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "goeda_journal_appends_total",
		Help: "Total number of events appended to the journal",
	})

	JournalFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "goeda_journal_failures_total",
		Help: "Total number of journal append failures",
	})

	CascadeDepth = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "goeda_cascade_depth",
		Help:    "Number of events produced per Accept call, cascades included",
		Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
	})

	BusDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goeda_bus_dropped_total",
		Help: "Total number of in-memory bus drops by event name and reason",
	}, []string{"event", "reason"})
)

// IncBusDrop records a dropped bus message with a concrete reason.
func IncBusDrop(eventName, reason string) {
	if eventName == "" {
		eventName = "unknown"
	}
	if reason == "" {
		reason = "unknown"
	}
	BusDroppedTotal.WithLabelValues(eventName, reason).Inc()
}

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
