// Package registry assigns every process a stable identity and a
// human-readable name, and lets the runtime look up a local handle by
// either. It is grounded on the actor engine's Registry (add/get by PID)
// in the example pack's hollywood-style actor engine, reshaped around
// monotonically assigned identities. Identity assignment is lock-free;
// lookups take a read lock.
package registry

import (
	"sync"
	"sync/atomic"

	"github.com/fluxorio/relay/pkg/core"
)

// Identity is an opaque, monotonically assigned process identity.
type Identity uint64

// Sender is the routing capability a Handle carries: enough to enqueue an
// envelope into the owning process's mailbox. process.Process implements
// this over its own mailbox so that registry never imports process.
type Sender interface {
	Route(values []interface{}) error
}

// Handle is an opaque, copyable reference to a process (spec §3). Holding
// a Handle does not keep the process alive; liveness is tracked via a
// shared atomic flag so every copy observes termination instantly.
type Handle struct {
	id    Identity
	name  string
	alive *atomic.Bool
	route Sender
}

// NewHandle constructs a Handle. alive must be the same flag the owning
// process flips on termination so every Handle copy stays in sync.
func NewHandle(id Identity, name string, alive *atomic.Bool, route Sender) Handle {
	return Handle{id: id, name: name, alive: alive, route: route}
}

// ID returns the process's stable identity.
func (h Handle) ID() Identity { return h.id }

// Name returns the process's human readable name, fixed at spawn time.
func (h Handle) Name() string { return h.name }

// IsAlive reports whether the process has not yet terminated.
func (h Handle) IsAlive() bool {
	if h.alive == nil {
		return false
	}
	return h.alive.Load()
}

// Valid reports whether this Handle was ever bound to a process.
func (h Handle) Valid() bool { return h.route != nil }

// Send enqueues values as an envelope in the owning process's mailbox.
// Non-blocking; a dead target silently drops the message (spec §4.1).
func (h Handle) Send(values ...interface{}) error {
	if !h.IsAlive() {
		return nil
	}
	return h.route.Route(values)
}

// Equal compares two handles by identity, irrespective of which copy of
// the route/alive fields they carry.
func (h Handle) Equal(other Handle) bool { return h.id == other.id }

// Registry is the process-wide identity/name lookup table. Writes are
// serialized by a mutex; the counter itself is lock-free (atomic.Uint64).
type Registry struct {
	counter atomic.Uint64

	mu     sync.RWMutex
	byID   map[Identity]Handle
	byName map[string]Handle
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		byID:   make(map[Identity]Handle),
		byName: make(map[string]Handle),
	}
}

// NextIdentity assigns the next monotonic identity.
func (r *Registry) NextIdentity() Identity {
	return Identity(r.counter.Add(1))
}

// Register adds h to the registry, indexed by both identity and name.
func (r *Registry) Register(h Handle) error {
	if err := core.ValidateName(h.name); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[h.id] = h
	r.byName[h.name] = h
	return nil
}

// Unregister removes a process from the registry (spec §4.3 step 3: exit
// fan-out removes P from the registry after link teardown).
func (r *Registry) Unregister(id Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.byID[id]
	if !ok {
		return
	}
	delete(r.byID, id)
	if existing, ok := r.byName[h.name]; ok && existing.id == id {
		delete(r.byName, h.name)
	}
}

// Lookup resolves a handle by name.
func (r *Registry) Lookup(name string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.byName[name]
	return h, ok
}

// Get resolves a handle by identity.
func (r *Registry) Get(id Identity) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.byID[id]
	return h, ok
}

// Snapshot returns every currently registered handle.
func (r *Registry) Snapshot() []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Handle, 0, len(r.byID))
	for _, h := range r.byID {
		out = append(out, h)
	}
	return out
}

// Len reports the number of registered processes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
