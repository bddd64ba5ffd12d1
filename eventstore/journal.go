// SPDX-License-Identifier: MIT

// Package eventstore defines the append-only event journal port and its
// in-memory backend. Durable backends live in the badgerstore and
// sqlitestore subpackages.
package eventstore

import (
	"context"
	"errors"

	"github.com/goeda/goeda/event"
)

// ErrClosed is returned by journal operations after Close.
var ErrClosed = errors.New("eventstore: journal is closed")

// Record is a journaled event: the envelope plus its journal sequence.
// Sequences are contiguous per backend and start at 1.
type Record struct {
	Seq      uint64         `json:"seq"`
	Envelope event.Envelope `json:"envelope"`
}

// Journal is the event persistence port.
type Journal interface {
	// Append journals an event and assigns it the next sequence.
	Append(ctx context.Context, evt event.Event) error

	// ReadSince returns up to limit records with sequence greater than
	// since, in sequence order. limit <= 0 means no limit.
	ReadSince(ctx context.Context, since uint64, limit int) ([]Record, error)

	// LastSeq returns the highest assigned sequence, 0 when empty.
	LastSeq(ctx context.Context) (uint64, error)

	Close() error
}
