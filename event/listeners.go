// SPDX-License-Identifier: MIT

package event

import (
	"context"
	"sync"
)

// Listener processes an event and may produce new events in response.
type Listener interface {
	Accept(ctx context.Context, evt Event) ([]Event, error)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(ctx context.Context, evt Event) ([]Event, error)

func (f ListenerFunc) Accept(ctx context.Context, evt Event) ([]Event, error) {
	return f(ctx, evt)
}

// OneShotAware is implemented by listeners that opt out of one-shot runs.
// Listeners without the method are treated as compatible.
type OneShotAware interface {
	OneShotCompatible() bool
}

// Emitter sends events outside the process. It is an optional port: an
// application without emitter adapters dispatches in-process only.
type Emitter interface {
	Emit(ctx context.Context, evt Event) error
}

var listeners = struct {
	mu      sync.RWMutex
	byName  map[string][]Listener
	ordered []string
}{byName: make(map[string][]Listener)}

// RegisterListener subscribes a listener to events with the given name.
// Registration order is preserved per event name.
func RegisterListener(name string, l Listener) {
	if name == "" || l == nil {
		panic("event: RegisterListener requires a name and a listener")
	}
	listeners.mu.Lock()
	defer listeners.mu.Unlock()
	if _, ok := listeners.byName[name]; !ok {
		listeners.ordered = append(listeners.ordered, name)
	}
	listeners.byName[name] = append(listeners.byName[name], l)
}

// ListenersFor returns the listeners subscribed to the given event name.
func ListenersFor(name string) []Listener {
	listeners.mu.RLock()
	defer listeners.mu.RUnlock()
	out := make([]Listener, len(listeners.byName[name]))
	copy(out, listeners.byName[name])
	return out
}

// ListenedNames returns every event name with at least one listener, in
// first-registration order.
func ListenedNames() []string {
	listeners.mu.RLock()
	defer listeners.mu.RUnlock()
	out := make([]string, len(listeners.ordered))
	copy(out, listeners.ordered)
	return out
}

// ResetListeners removes all listener registrations. Intended for tests.
func ResetListeners() {
	listeners.mu.Lock()
	defer listeners.mu.Unlock()
	listeners.byName = make(map[string][]Listener)
	listeners.ordered = nil
}
