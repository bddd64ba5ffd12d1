// SPDX-License-Identifier: MIT

package eventstore

import (
	"context"
	"fmt"
	"path/filepath"
)

// Consumer reads the journal past a persisted checkpoint. Each consumer
// name gets its own checkpoint file so independent readers do not share
// progress.
type Consumer struct {
	name    string
	path    string
	journal Journal
	seq     uint64
}

// NewConsumer loads the consumer's checkpoint from dir, or starts from the
// beginning of the journal when none exists.
func NewConsumer(name, dir string, j Journal) (*Consumer, error) {
	if name == "" {
		return nil, fmt.Errorf("consumer: name is required")
	}
	if j == nil {
		return nil, fmt.Errorf("consumer %q: journal is required", name)
	}
	path := filepath.Join(dir, name+".checkpoint")
	cp, err := ReadCheckpoint(path, name)
	if err != nil {
		return nil, fmt.Errorf("consumer %q: %w", name, err)
	}
	return &Consumer{name: name, path: path, journal: j, seq: cp.Seq}, nil
}

// Seq returns the last committed sequence, 0 when nothing was committed.
func (c *Consumer) Seq() uint64 { return c.seq }

// Next returns up to limit records past the checkpoint. It does not advance
// the checkpoint; call Commit once the records are processed.
func (c *Consumer) Next(ctx context.Context, limit int) ([]Record, error) {
	records, err := c.journal.ReadSince(ctx, c.seq, limit)
	if err != nil {
		return nil, fmt.Errorf("consumer %q: %w", c.name, err)
	}
	return records, nil
}

// Commit persists seq as the consumer's checkpoint. Commits never move
// backwards.
func (c *Consumer) Commit(seq uint64) error {
	if seq <= c.seq {
		return nil
	}
	if err := WriteCheckpoint(c.path, Checkpoint{Consumer: c.name, Seq: seq}); err != nil {
		return fmt.Errorf("consumer %q: %w", c.name, err)
	}
	c.seq = seq
	return nil
}
