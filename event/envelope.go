// SPDX-License-Identifier: MIT

package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is the wire and storage form of an event: routing metadata plus
// the concrete event serialized as JSON.
type Envelope struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Previous   []string        `json:"previous_event_ids,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Wrap serializes an event into an envelope. The payload is the JSON form of
// the concrete event type.
func Wrap(evt Event) (Envelope, error) {
	if evt == nil {
		return Envelope{}, fmt.Errorf("wrap: event is nil")
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return Envelope{}, fmt.Errorf("wrap %s: %w", evt.Name(), err)
	}
	return Envelope{
		ID:         evt.ID(),
		Name:       evt.Name(),
		Previous:   evt.PreviousEventIDs(),
		OccurredAt: evt.OccurredAt(),
		Payload:    payload,
	}, nil
}

// Validate checks the envelope carries the fields routing depends on.
func (e Envelope) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("envelope: missing id")
	}
	if e.Name == "" {
		return fmt.Errorf("envelope: missing name")
	}
	return nil
}

// Event converts the envelope back into an Event. The payload stays opaque;
// listeners for remote events unmarshal it themselves.
func (e Envelope) Event() Event {
	return Remote{
		Base: Base{
			EventID:    e.ID,
			EventName:  e.Name,
			Previous:   e.Previous,
			OccurredTS: e.OccurredAt,
		},
		Payload: e.Payload,
	}
}

// Remote is an event received from outside the process. Its payload is the
// JSON form of the original concrete event.
type Remote struct {
	Base
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Decode unmarshals the remote payload into the given concrete event.
func (r Remote) Decode(into any) error {
	if len(r.Payload) == 0 {
		return fmt.Errorf("decode %s: empty payload", r.Name())
	}
	return json.Unmarshal(r.Payload, into)
}
