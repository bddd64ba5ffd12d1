// SPDX-License-Identifier: MIT

package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goeda/goeda/event"
	"github.com/goeda/goeda/eventstore"
	"github.com/goeda/goeda/ports"
)

type greetingRequested struct {
	event.Base
	Who string `json:"who"`
}

type greetingIssued struct {
	event.Base
	Text string `json:"text"`
}

func newGreetingRequested(who string) *greetingRequested {
	return &greetingRequested{Base: event.NewBase("greeting.Requested"), Who: who}
}

type oneShotListener struct {
	fn         func(ctx context.Context, evt event.Event) ([]event.Event, error)
	compatible bool
}

func (l *oneShotListener) Accept(ctx context.Context, evt event.Event) ([]event.Event, error) {
	return l.fn(ctx, evt)
}

func (l *oneShotListener) OneShotCompatible() bool { return l.compatible }

func acceptTestApp(t *testing.T) *App {
	t.Helper()
	ports.Reset()
	event.ResetListeners()
	t.Cleanup(ports.Reset)
	t.Cleanup(event.ResetListeners)

	ports.Register(ports.Registration{Name: "memory", Port: ports.EventEmitter, Layer: ports.LayerInfrastructure, Adapter: &recordingEmitter{name: "memory"}})
	return newTestApp(t)
}

func TestAcceptCascadesProducedEvents(t *testing.T) {
	app := acceptTestApp(t)

	event.RegisterListener("greeting.Requested", event.ListenerFunc(func(ctx context.Context, evt event.Event) ([]event.Event, error) {
		req := evt.(*greetingRequested)
		issued := &greetingIssued{
			Base: event.CausedBy("greeting.Issued", evt),
			Text: "hello " + req.Who,
		}
		return []event.Event{issued}, nil
	}))

	var heard []string
	event.RegisterListener("greeting.Issued", event.ListenerFunc(func(ctx context.Context, evt event.Event) ([]event.Event, error) {
		heard = append(heard, evt.(*greetingIssued).Text)
		return nil, nil
	}))

	requested := newGreetingRequested("world")
	produced, err := app.Accept(context.Background(), requested)
	require.NoError(t, err)
	require.Len(t, produced, 1)
	require.Equal(t, []string{"hello world"}, heard)
	require.Contains(t, produced[0].PreviousEventIDs(), requested.ID())
}

func TestAcceptDeduplicatesByEventID(t *testing.T) {
	app := acceptTestApp(t)

	calls := 0
	event.RegisterListener("greeting.Requested", event.ListenerFunc(func(ctx context.Context, evt event.Event) ([]event.Event, error) {
		calls++
		return nil, nil
	}))

	evt := newGreetingRequested("world")
	_, err := app.Accept(context.Background(), evt, evt)
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestAcceptListenerErrorDoesNotAbortCascade(t *testing.T) {
	app := acceptTestApp(t)

	event.RegisterListener("greeting.Requested", event.ListenerFunc(func(ctx context.Context, evt event.Event) ([]event.Event, error) {
		return nil, errors.New("boom")
	}))
	var heard int
	event.RegisterListener("greeting.Requested", event.ListenerFunc(func(ctx context.Context, evt event.Event) ([]event.Event, error) {
		heard++
		return nil, nil
	}))

	produced, err := app.Accept(context.Background(), newGreetingRequested("world"))
	require.NoError(t, err)
	require.Empty(t, produced)
	require.Equal(t, 1, heard)
}

func TestAcceptSkipsIncompatibleListenersInOneShot(t *testing.T) {
	app := acceptTestApp(t)
	app.SetOneShot(true)

	var compatible, incompatible int
	event.RegisterListener("greeting.Requested", &oneShotListener{
		compatible: true,
		fn: func(ctx context.Context, evt event.Event) ([]event.Event, error) {
			compatible++
			return nil, nil
		},
	})
	event.RegisterListener("greeting.Requested", &oneShotListener{
		compatible: false,
		fn: func(ctx context.Context, evt event.Event) ([]event.Event, error) {
			incompatible++
			return nil, nil
		},
	})

	_, err := app.Accept(context.Background(), newGreetingRequested("world"))
	require.NoError(t, err)
	require.Equal(t, 1, compatible)
	require.Zero(t, incompatible)
}

func TestAcceptStopsOnCancelledContext(t *testing.T) {
	app := acceptTestApp(t)

	event.RegisterListener("greeting.Requested", event.ListenerFunc(func(ctx context.Context, evt event.Event) ([]event.Event, error) {
		return nil, nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := app.Accept(ctx, newGreetingRequested("world"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestReplayDoesNotRejournalInitialEvents(t *testing.T) {
	ports.Reset()
	event.ResetListeners()
	t.Cleanup(ports.Reset)
	t.Cleanup(event.ResetListeners)
	ports.Register(ports.Registration{Name: "memory", Port: ports.EventEmitter, Layer: ports.LayerInfrastructure, Adapter: &recordingEmitter{name: "memory"}})

	j := eventstore.NewMemoryJournal()
	app, err := New("testapp", WithConfig(testConfig()), WithJournal(j))
	require.NoError(t, err)

	event.RegisterListener("greeting.Requested", event.ListenerFunc(func(ctx context.Context, evt event.Event) ([]event.Event, error) {
		return []event.Event{&greetingIssued{Base: event.CausedBy("greeting.Issued", evt), Text: "hi"}}, nil
	}))

	evt := newGreetingRequested("world")
	require.NoError(t, j.Append(context.Background(), evt))

	produced, err := app.Replay(context.Background(), evt)
	require.NoError(t, err)
	require.Len(t, produced, 1)

	// The replayed event stays at seq 1; only the produced event was
	// appended.
	last, err := j.LastSeq(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(2), last)

	records, err := j.ReadSince(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "greeting.Issued", records[0].Envelope.Name)
}

func TestEmitJoinsEmitterFailures(t *testing.T) {
	ports.Reset()
	event.ResetListeners()
	t.Cleanup(ports.Reset)
	t.Cleanup(event.ResetListeners)

	good := &recordingEmitter{name: "good"}
	bad := &recordingEmitter{name: "bad", fail: errors.New("wire down")}
	ports.Register(ports.Registration{Name: "good", Port: ports.EventEmitter, Layer: ports.LayerInfrastructure, Adapter: good})
	ports.Register(ports.Registration{Name: "bad", Port: ports.EventEmitter, Layer: ports.LayerInfrastructure, Adapter: bad})

	app := newTestApp(t)
	err := app.Emit(context.Background(), newGreetingRequested("world"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad")
	require.Len(t, good.events, 1)
}
