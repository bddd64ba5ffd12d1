// SPDX-License-Identifier: MIT

package eventstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goeda/goeda/event"
)

func TestMemoryJournalAssignsContiguousSequences(t *testing.T) {
	j := NewMemoryJournal()
	t.Cleanup(func() { _ = j.Close() })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, j.Append(ctx, event.NewBase("test.happened")))
	}

	last, err := j.LastSeq(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(3), last)

	records, err := j.ReadSince(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, rec := range records {
		require.Equal(t, uint64(i+1), rec.Seq)
		require.Equal(t, "test.happened", rec.Envelope.Name)
	}
}

func TestMemoryJournalReadSinceAndLimit(t *testing.T) {
	j := NewMemoryJournal()
	t.Cleanup(func() { _ = j.Close() })
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, j.Append(ctx, event.NewBase("test.happened")))
	}

	records, err := j.ReadSince(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, uint64(3), records[0].Seq)
	require.Equal(t, uint64(4), records[1].Seq)
}

func TestMemoryJournalClosed(t *testing.T) {
	j := NewMemoryJournal()
	require.NoError(t, j.Close())

	err := j.Append(context.Background(), event.NewBase("test.happened"))
	require.ErrorIs(t, err, ErrClosed)
	_, err = j.LastSeq(context.Background())
	require.ErrorIs(t, err, ErrClosed)
	_, err = j.ReadSince(context.Background(), 0, 0)
	require.ErrorIs(t, err, ErrClosed)
}
