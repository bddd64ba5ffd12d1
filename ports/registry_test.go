// SPDX-License-Identifier: MIT

package ports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeEmitter struct{ tag string }

func (f *fakeEmitter) Emit(ctx context.Context, evt any) error { return nil }

type fakePrimary struct {
	priority int
	oneShot  bool
}

func (p *fakePrimary) Priority() int           { return p.priority }
func (p *fakePrimary) OneShotCompatible() bool { return p.oneShot }

func (p *fakePrimary) Configure(ctx context.Context, app Application) error { return nil }

func (p *fakePrimary) Entrypoint(ctx context.Context, app Application) error { return nil }

func TestResolveBeforeInitializeYieldsNothing(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register(Registration{Name: "a", Port: EventEmitter, Layer: LayerInfrastructure, Adapter: &fakeEmitter{tag: "a"}})
	require.Empty(t, Resolve(EventEmitter))
	require.False(t, Initialized())

	Initialize()
	require.Len(t, Resolve(EventEmitter), 1)
}

func TestResolveOrderIsRegistrationOrder(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register(Registration{Name: "first", Port: EventEmitter, Layer: LayerInfrastructure, Adapter: &fakeEmitter{tag: "first"}})
	Register(Registration{Name: "second", Port: EventEmitter, Layer: LayerInfrastructure, Adapter: &fakeEmitter{tag: "second"}})
	Initialize()

	adapters := Resolve(EventEmitter)
	require.Len(t, adapters, 2)
	require.Equal(t, "first", adapters[0].(*fakeEmitter).tag)
	require.Equal(t, "second", adapters[1].(*fakeEmitter).tag)
}

func TestDuplicateAdapterNamePanics(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register(Registration{Name: "dup", Port: EventEmitter, Layer: LayerInfrastructure, Adapter: &fakeEmitter{}})
	require.Panics(t, func() {
		Register(Registration{Name: "dup", Port: EventEmitter, Layer: LayerInfrastructure, Adapter: &fakeEmitter{}})
	})
}

func TestDisableExcludesAdapterFromResolution(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register(Registration{Name: "a", Port: EventEmitter, Layer: LayerInfrastructure, Adapter: &fakeEmitter{}})
	require.NoError(t, Disable("a"))
	Initialize()
	require.Empty(t, Resolve(EventEmitter))

	require.NoError(t, Enable("a"))
	Initialize()
	require.Len(t, Resolve(EventEmitter), 1)

	require.Error(t, Disable("missing"))
}

func TestUnimplementedSkipsOptionalPorts(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Declare("greeter.GreetingRepository")
	Declare(EventEmitter, Optional())
	require.Equal(t, []string{"greeter.GreetingRepository"}, Unimplemented())

	Register(Registration{Name: "repo", Port: "greeter.GreetingRepository", Layer: LayerInfrastructure, Adapter: &fakeEmitter{}})
	require.Empty(t, Unimplemented())
}

func TestResolvePrimariesSortsByPriority(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register(Registration{Name: "late", Port: Primary, Layer: LayerInfrastructure, Adapter: &fakePrimary{priority: 100}})
	Register(Registration{Name: "early", Port: Primary, Layer: LayerInfrastructure, Adapter: &fakePrimary{priority: -100}})
	Initialize()

	primaries := ResolvePrimaries()
	require.Len(t, primaries, 2)
	require.Equal(t, -100, primaries[0].Priority())
	require.Equal(t, 100, primaries[1].Priority())
}

func TestResolveFirst(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	_, ok := ResolveFirst(EventEmitter)
	require.False(t, ok)

	Register(Registration{Name: "a", Port: EventEmitter, Layer: LayerInfrastructure, Adapter: &fakeEmitter{tag: "a"}})
	Initialize()
	got, ok := ResolveFirst(EventEmitter)
	require.True(t, ok)
	require.Equal(t, "a", got.(*fakeEmitter).tag)
}
