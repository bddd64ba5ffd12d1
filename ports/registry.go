// SPDX-License-Identifier: MIT

package ports

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/goeda/goeda/log"
)

// Registration describes an adapter bound to a port.
type Registration struct {
	// Name uniquely identifies the adapter, e.g. "redisbus.emitter".
	Name string

	// Port is the name of the port the adapter implements.
	Port string

	// Layer is the hexagonal layer the adapter belongs to.
	Layer Layer

	// Adapter is the implementation. Resolvers type-assert it against the
	// port's interface.
	Adapter any

	// Disabled registrations are kept but skipped at resolve time.
	Disabled bool
}

type declaration struct {
	name     string
	optional bool
}

var reg = struct {
	mu           sync.RWMutex
	entries      []Registration
	byName       map[string]int
	declarations []declaration
	declared     map[string]bool
	mappings     map[string][]any
	initialized  bool
}{
	byName:   make(map[string]int),
	declared: make(map[string]bool),
}

// Declare announces a domain port by name. Bootstrap warns about declared
// ports with no adapter unless the port was declared optional.
func Declare(port string, opts ...DeclareOption) {
	if port == "" {
		panic("ports: Declare requires a port name")
	}
	d := declaration{name: port}
	for _, opt := range opts {
		opt(&d)
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.declared[port] {
		return
	}
	reg.declared[port] = true
	reg.declarations = append(reg.declarations, d)
}

// DeclareOption customises a port declaration.
type DeclareOption func(*declaration)

// Optional marks a declared port as allowed to go unimplemented.
func Optional() DeclareOption {
	return func(d *declaration) { d.optional = true }
}

// Register records an adapter for a port. It panics if the adapter name is
// already taken, following the database/sql driver convention.
func Register(r Registration) {
	if r.Name == "" || r.Port == "" || r.Adapter == nil {
		panic("ports: Register requires a name, a port and an adapter")
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, dup := reg.byName[r.Name]; dup {
		panic(fmt.Sprintf("ports: adapter %q registered twice", r.Name))
	}
	reg.byName[r.Name] = len(reg.entries)
	reg.entries = append(reg.entries, r)

	// Registration usually happens before logging is configured; the
	// record is buffered until then.
	log.Deferred(zerolog.DebugLevel, "ports",
		fmt.Sprintf("adapter %q registered for port %q (%s)", r.Name, r.Port, r.Layer))
}

// Enable re-enables a previously disabled registration.
func Enable(name string) error {
	return setDisabled(name, false)
}

// Disable keeps a registration but excludes it from resolution.
func Disable(name string) error {
	return setDisabled(name, true)
}

func setDisabled(name string, disabled bool) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	idx, ok := reg.byName[name]
	if !ok {
		return fmt.Errorf("ports: unknown adapter %q", name)
	}
	reg.entries[idx].Disabled = disabled
	return nil
}

// Registrations returns a snapshot of all registrations in registration
// order.
func Registrations() []Registration {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]Registration, len(reg.entries))
	copy(out, reg.entries)
	return out
}

// Unimplemented returns the declared, non-optional ports that have no
// enabled adapter.
func Unimplemented() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	implemented := make(map[string]bool)
	for _, e := range reg.entries {
		if !e.Disabled {
			implemented[e.Port] = true
		}
	}
	var missing []string
	for _, d := range reg.declarations {
		if !d.optional && !implemented[d.name] {
			missing = append(missing, d.name)
		}
	}
	sort.Strings(missing)
	return missing
}

// Initialize builds the port mappings from enabled registrations. The
// application layer calls it once during bootstrap; calling Resolve before
// Initialize yields nothing.
func Initialize() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	mappings := make(map[string][]any)
	for _, e := range reg.entries {
		if e.Disabled {
			continue
		}
		mappings[e.Port] = append(mappings[e.Port], e.Adapter)
	}
	reg.mappings = mappings
	reg.initialized = true
}

// Initialized reports whether Initialize has run.
func Initialized() bool {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.initialized
}

// Resolve returns the enabled adapters for a port, in registration order.
func Resolve(port string) []any {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	if !reg.initialized {
		return nil
	}
	out := make([]any, len(reg.mappings[port]))
	copy(out, reg.mappings[port])
	return out
}

// ResolveFirst returns the first enabled adapter for a port.
func ResolveFirst(port string) (any, bool) {
	adapters := Resolve(port)
	if len(adapters) == 0 {
		return nil, false
	}
	return adapters[0], true
}

// ResolvePrimaries returns all enabled primary ports sorted by priority,
// ties broken by registration order.
func ResolvePrimaries() []PrimaryPort {
	var out []PrimaryPort
	for _, a := range Resolve(Primary) {
		if p, ok := a.(PrimaryPort); ok {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority() < out[j].Priority() })
	return out
}

// Reset clears the registry. Intended for tests.
func Reset() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.entries = nil
	reg.byName = make(map[string]int)
	reg.declarations = nil
	reg.declared = make(map[string]bool)
	reg.mappings = nil
	reg.initialized = false
}
