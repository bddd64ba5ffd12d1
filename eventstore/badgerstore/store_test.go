// SPDX-License-Identifier: MIT

package badgerstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goeda/goeda/event"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppendAssignsContiguousSequences(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, s.Append(ctx, event.NewBase("test.happened")))
	}

	last, err := s.LastSeq(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(4), last)

	records, err := s.ReadSince(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, records, 4)
	for i, rec := range records {
		require.Equal(t, uint64(i+1), rec.Seq)
	}
}

func TestReadSinceSkipsAndLimits(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		evt := event.NewBase("test.happened")
		ids = append(ids, evt.ID())
		require.NoError(t, s.Append(ctx, evt))
	}

	records, err := s.ReadSince(ctx, 3, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, uint64(4), records[0].Seq)
	require.Equal(t, ids[3], records[0].Envelope.ID)
}

func TestJournalSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, event.NewBase("test.happened")))
	require.NoError(t, s.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	last, err := reopened.LastSeq(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), last)
}

func TestEmptyJournal(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	last, err := s.LastSeq(ctx)
	require.NoError(t, err)
	require.Zero(t, last)

	records, err := s.ReadSince(ctx, 0, 10)
	require.NoError(t, err)
	require.Empty(t, records)
}
