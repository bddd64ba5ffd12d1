// SPDX-License-Identifier: MIT

// Package event defines domain events and the listener registry that routes
// them. Events carry a unique id, the ids of the events that caused them and
// the time they occurred.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is a domain event.
type Event interface {
	// ID returns the unique event id.
	ID() string

	// Name returns the event name used for listener routing, e.g.
	// "greeter.greeting_requested".
	Name() string

	// PreviousEventIDs returns the ids of the events this one responds to.
	PreviousEventIDs() []string

	// OccurredAt returns when the event happened.
	OccurredAt() time.Time
}

// Base is an embeddable Event implementation. Concrete events embed Base and
// add their own payload fields.
type Base struct {
	EventID    string    `json:"id"`
	EventName  string    `json:"name"`
	Previous   []string  `json:"previous_event_ids,omitempty"`
	OccurredTS time.Time `json:"occurred_at"`
}

// NewBase builds a Base with a fresh uuid and the current time.
func NewBase(name string, previous ...string) Base {
	return Base{
		EventID:    uuid.NewString(),
		EventName:  name,
		Previous:   previous,
		OccurredTS: time.Now().UTC(),
	}
}

// CausedBy builds a Base whose previous-event ids are taken from the given
// causing events.
func CausedBy(name string, causes ...Event) Base {
	previous := make([]string, 0, len(causes))
	for _, c := range causes {
		if c != nil {
			previous = append(previous, c.ID())
		}
	}
	return NewBase(name, previous...)
}

func (b Base) ID() string { return b.EventID }

func (b Base) Name() string { return b.EventName }

func (b Base) PreviousEventIDs() []string { return b.Previous }

func (b Base) OccurredAt() time.Time { return b.OccurredTS }

var _ Event = Base{}
