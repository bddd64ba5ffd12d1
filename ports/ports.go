// SPDX-License-Identifier: MIT

// Package ports binds adapters in the infrastructure layer to ports in the
// domain layer. Domain packages declare ports, infrastructure packages
// register adapters for them, and the application layer wires the two at
// bootstrap. Registration happens at init time; the dynamic package scanning
// of other ecosystems has no Go equivalent, so the registry is the discovery
// mechanism.
package ports

import (
	"context"

	"github.com/goeda/goeda/config"
	"github.com/goeda/goeda/event"
)

// Layer identifies the hexagonal layer a registration belongs to.
type Layer int

const (
	LayerDomain Layer = iota
	LayerInfrastructure
	LayerApplication
)

func (l Layer) String() string {
	switch l {
	case LayerDomain:
		return "domain"
	case LayerInfrastructure:
		return "infrastructure"
	case LayerApplication:
		return "application"
	default:
		return "unknown"
	}
}

// Well-known port names wired by the application layer itself.
const (
	// EventEmitter adapters send events outside the process. Optional.
	EventEmitter = "goeda.event.Emitter"

	// EventJournal adapters persist accepted events. Optional.
	EventJournal = "goeda.eventstore.Journal"

	// Primary is the pseudo-port grouping primary ports; they are resolved
	// independently of domain ports.
	Primary = "goeda.PrimaryPort"
)

// Application is the view of the application layer that adapters get. The
// concrete type lives in package application; the interface breaks the
// import cycle between adapters and the application core.
type Application interface {
	// Name returns the application name.
	Name() string

	// Banner returns the startup banner, or "" if none was configured.
	Banner() string

	// Version returns the build version.
	Version() string

	// Config returns the resolved application configuration.
	Config() config.AppConfig

	// Accept dispatches events to their listeners, cascading any events
	// produced in response, and returns the full set of produced events.
	Accept(ctx context.Context, events ...event.Event) ([]event.Event, error)

	// Emit sends an event through every enabled emitter adapter.
	Emit(ctx context.Context, evt event.Event) error

	// SetOneShot toggles one-shot behaviour: process the triggering events
	// once and exit instead of serving indefinitely.
	SetOneShot(enabled bool)

	// OneShot reports whether one-shot behaviour is active.
	OneShot() bool

	// RegisterShutdownHook registers a cleanup function executed during
	// graceful shutdown, in reverse registration order.
	RegisterShutdownHook(name string, hook func(ctx context.Context) error)
}

// PrimaryPort is an adapter that drives the application: a CLI, an HTTP
// server, a message consumer. Configure runs for every primary port before
// any Entrypoint starts.
type PrimaryPort interface {
	// Priority orders primary ports; lower runs first.
	Priority() int

	// OneShotCompatible reports whether the port may run in one-shot mode.
	OneShotCompatible() bool

	// Configure prepares the port. It must not block.
	Configure(ctx context.Context, app Application) error

	// Entrypoint runs the port until the context is cancelled.
	Entrypoint(ctx context.Context, app Application) error
}
