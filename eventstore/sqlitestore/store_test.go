// SPDX-License-Identifier: MIT

package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goeda/goeda/event"
)

type orderShipped struct {
	event.Base
	OrderID string `json:"order_id"`
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppendAndReadBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cause := event.NewBase("orders.order_placed")
	evt := orderShipped{Base: event.CausedBy("orders.order_shipped", cause), OrderID: "42"}
	require.NoError(t, s.Append(ctx, evt))

	records, err := s.ReadSince(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	require.Equal(t, uint64(1), rec.Seq)
	require.Equal(t, evt.ID(), rec.Envelope.ID)
	require.Equal(t, "orders.order_shipped", rec.Envelope.Name)
	require.Equal(t, []string{cause.ID()}, rec.Envelope.Previous)

	var decoded orderShipped
	require.NoError(t, rec.Envelope.Event().(event.Remote).Decode(&decoded))
	require.Equal(t, "42", decoded.OrderID)
}

func TestDuplicateEventIDRejected(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	evt := event.NewBase("orders.order_placed")
	require.NoError(t, s.Append(ctx, evt))
	require.Error(t, s.Append(ctx, evt))
}

func TestReadSinceAndLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(ctx, event.NewBase("orders.order_placed")))
	}

	records, err := s.ReadSince(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, uint64(3), records[0].Seq)

	last, err := s.LastSeq(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(5), last)
}

func TestEmptyJournalLastSeqIsZero(t *testing.T) {
	s := openTestStore(t)

	last, err := s.LastSeq(context.Background())
	require.NoError(t, err)
	require.Zero(t, last)
}
