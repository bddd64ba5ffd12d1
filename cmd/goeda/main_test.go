// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goeda/goeda/application"
	"github.com/goeda/goeda/config"
	"github.com/goeda/goeda/event"
	"github.com/goeda/goeda/eventstore"
	"github.com/goeda/goeda/health"
	"github.com/goeda/goeda/internal/greeter"
	"github.com/goeda/goeda/ports"
)

type nullEmitter struct{}

func (nullEmitter) Emit(ctx context.Context, evt event.Event) error { return nil }

func bootstrapApp(t *testing.T, j eventstore.Journal, storePath string) *application.App {
	t.Helper()
	ports.Reset()
	event.ResetListeners()
	t.Cleanup(ports.Reset)
	t.Cleanup(event.ResetListeners)

	ports.Register(ports.Registration{Name: "null", Port: ports.EventEmitter, Layer: ports.LayerInfrastructure, Adapter: nullEmitter{}})

	cfg := config.Default()
	cfg.HTTP.Enabled = false
	cfg.Metrics.Enabled = false
	cfg.Store.Backend = "memory"
	cfg.Store.Path = storePath

	app, err := application.New("goeda-test",
		application.WithConfig(cfg),
		application.WithJournal(j),
	)
	require.NoError(t, err)
	return app
}

func TestOptionalAdaptersRegisterStoreAndJournalCheckers(t *testing.T) {
	app := bootstrapApp(t, eventstore.NewMemoryJournal(), t.TempDir())
	healthManager := health.NewManager("test")

	hook := registerOptionalAdapters(healthManager, "")
	require.NoError(t, hook(context.Background(), app))

	resp := healthManager.Health(context.Background(), true)
	require.Contains(t, resp.Checks, "store")
	require.Contains(t, resp.Checks, "journal")
	require.Equal(t, health.StatusHealthy, resp.Checks["journal"].Status)
}

func TestReplayJournalRedispatchesUnseenEvents(t *testing.T) {
	dir := t.TempDir()
	j := eventstore.NewMemoryJournal()
	for i := 0; i < 3; i++ {
		require.NoError(t, j.Append(context.Background(), greeter.NewGreetingRequested("world")))
	}

	app := bootstrapApp(t, j, dir)

	var dispatched int
	event.RegisterListener(greeter.RequestedName, event.ListenerFunc(func(ctx context.Context, evt event.Event) ([]event.Event, error) {
		dispatched++
		return nil, nil
	}))

	require.NoError(t, replayJournal(context.Background(), app, "projector"))
	require.Equal(t, 3, dispatched)

	// Replayed events are not appended back to the journal.
	last, err := j.LastSeq(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(3), last)

	// A second replay finds the checkpoint and dispatches nothing.
	require.NoError(t, replayJournal(context.Background(), app, "projector"))
	require.Equal(t, 3, dispatched)
}

func TestReplayJournalStopsAtStartingSequence(t *testing.T) {
	dir := t.TempDir()
	j := eventstore.NewMemoryJournal()
	require.NoError(t, j.Append(context.Background(), greeter.NewGreetingRequested("world")))

	app := bootstrapApp(t, j, dir)
	greeter.Register()

	// The greeting listener produces an issued event, which gets journaled
	// during the replay; the replay must not chase it.
	require.NoError(t, replayJournal(context.Background(), app, "projector"))

	last, err := j.LastSeq(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(2), last)

	consumer, err := eventstore.NewConsumer("projector", dir, j)
	require.NoError(t, err)
	require.Equal(t, uint64(1), consumer.Seq())
}
