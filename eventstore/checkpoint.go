// SPDX-License-Identifier: MIT

package eventstore

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/renameio/v2"
)

// Checkpoint records how far a consumer has read the journal.
type Checkpoint struct {
	Consumer string `json:"consumer"`
	Seq      uint64 `json:"seq"`
}

// WriteCheckpoint persists a checkpoint atomically. A crash mid-write leaves
// either the previous file or the new one, never a torn file.
func WriteCheckpoint(path string, cp Checkpoint) error {
	if cp.Consumer == "" {
		return fmt.Errorf("checkpoint: consumer is required")
	}
	buf, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	if err := renameio.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("write checkpoint %s: %w", path, err)
	}
	return nil
}

// ReadCheckpoint loads a checkpoint. A missing file yields a zero checkpoint
// for the given consumer, not an error.
func ReadCheckpoint(path, consumer string) (Checkpoint, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Checkpoint{Consumer: consumer}, nil
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("read checkpoint %s: %w", path, err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("parse checkpoint %s: %w", path, err)
	}
	if cp.Consumer != consumer {
		return Checkpoint{}, fmt.Errorf("checkpoint %s belongs to consumer %q, not %q", path, cp.Consumer, consumer)
	}
	return cp, nil
}
