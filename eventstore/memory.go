// SPDX-License-Identifier: MIT

package eventstore

import (
	"context"
	"sync"

	"github.com/goeda/goeda/event"
)

// MemoryJournal is a non-durable journal for tests and one-shot runs.
type MemoryJournal struct {
	mu      sync.RWMutex
	records []Record
	closed  bool
}

// NewMemoryJournal creates an empty in-memory journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

func (j *MemoryJournal) Append(_ context.Context, evt event.Event) error {
	env, err := event.Wrap(evt)
	if err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrClosed
	}
	j.records = append(j.records, Record{
		Seq:      uint64(len(j.records) + 1),
		Envelope: env,
	})
	return nil
}

func (j *MemoryJournal) ReadSince(_ context.Context, since uint64, limit int) ([]Record, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return nil, ErrClosed
	}
	var out []Record
	for _, rec := range j.records {
		if rec.Seq <= since {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (j *MemoryJournal) LastSeq(_ context.Context) (uint64, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return 0, ErrClosed
	}
	return uint64(len(j.records)), nil
}

func (j *MemoryJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.closed = true
	return nil
}

var _ Journal = (*MemoryJournal)(nil)
