// Package runtime owns the global, process-wide singleton state the
// design notes call for: the identity registry, the link graph, the
// distinguished root process, and the default process flavor (spec §9:
// "package it as a runtime object created once at program start and
// torn down on exit"). It implements process.Spawner, the capability
// every process.Context uses to spawn, terminate, wait on peers and
// perform the checked receiver-table mutation that enforces the root
// invariant (spec §4.6).
package runtime

import (
	"context"
	"fmt"
	osruntime "runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fluxorio/relay/pkg/admin"
	"github.com/fluxorio/relay/pkg/audit"
	"github.com/fluxorio/relay/pkg/core"
	"github.com/fluxorio/relay/pkg/linkgraph"
	"github.com/fluxorio/relay/pkg/process"
	"github.com/fluxorio/relay/pkg/registry"
)

// RootName is the reserved name of the distinguished root process (spec
// §3, §4.6, GLOSSARY).
const RootName = "__main__"

// Runtime is the bootstrap object: one per program. It is safe for
// concurrent use by every process it spawns.
type Runtime struct {
	opts     Options
	registry *registry.Registry
	graph    *linkgraph.Graph

	mu     sync.RWMutex
	procs  map[registry.Identity]*process.Process
	rootID registry.Identity
	hasRoot atomic.Bool
}

// New creates a Runtime. Call Bootstrap to start the root process.
func New(opts Options) *Runtime {
	opts = opts.withDefaults()
	return &Runtime{
		opts:     opts,
		registry: registry.New(),
		graph:    linkgraph.New(),
		procs:    make(map[registry.Identity]*process.Process),
	}
}

// Bootstrap starts the distinguished root process (name __main__) and
// runs body in its context to install initial receivers, then returns
// its handle. Bootstrap may be called exactly once per Runtime.
func (rt *Runtime) Bootstrap(body process.Body) (registry.Handle, error) {
	if rt.hasRoot.Load() {
		return registry.Handle{}, fmt.Errorf("runtime: already bootstrapped")
	}
	h, err := rt.spawn(0, RootName, rt.opts.DefaultFlavor, body, false, true)
	if err != nil {
		return registry.Handle{}, err
	}
	rt.mu.Lock()
	rt.rootID = h.ID()
	rt.mu.Unlock()
	rt.hasRoot.Store(true)
	return h, nil
}

// Root returns the root process's handle. Valid only after Bootstrap.
func (rt *Runtime) Root() (registry.Handle, bool) {
	if !rt.hasRoot.Load() {
		return registry.Handle{}, false
	}
	return rt.registry.Get(rt.rootID)
}

// Spawn implements process.Spawner: starts a new process, linked to
// parent when linked is true.
func (rt *Runtime) Spawn(parent registry.Identity, name string, flavor process.Flavor, body process.Body, linked bool) (registry.Handle, error) {
	return rt.spawn(parent, name, flavor, body, linked, false)
}

func (rt *Runtime) spawn(parent registry.Identity, name string, flavor process.Flavor, body process.Body, linked, isRoot bool) (registry.Handle, error) {
	id := rt.registry.NextIdentity()
	if name == "" {
		name = fmt.Sprintf("proc-%d", id)
	}

	p := process.New(id, name, flavor, rt, rt.opts.Logger)
	if err := rt.registry.Register(p.Handle()); err != nil {
		return registry.Handle{}, err
	}

	rt.mu.Lock()
	rt.procs[id] = p
	rt.mu.Unlock()

	rt.opts.Audit.Record(context.Background(), audit.Event{
		Kind: audit.KindSpawn, ProcessID: uint64(id), Name: name, At: time.Now(),
	})

	// The link edge must exist before the child's dispatch loop can run,
	// so that a child dying on its very first tick still delivers EXIT
	// to the parent (spec §4.4).
	if linked && !isRoot {
		rt.graph.Link(parent, id)
		rt.opts.Audit.Record(context.Background(), audit.Event{
			Kind: audit.KindLink, ProcessID: uint64(parent), PeerID: uint64(id), Name: name, At: time.Now(),
		})
	}

	onTerminate := func(reason process.Reason) {
		rt.onTerminate(id, reason)
	}
	if flavor == process.FlavorOS {
		// Pin the dispatch loop to its own OS thread for the lifetime of
		// the process, approximating the isolation an actual OS-process
		// flavor gets for free (spec §4.6, §9: "differ only in the
		// execution substrate"). runtime.LockOSThread's goroutine never
		// returns to the scheduler's pool, so this thread is this
		// process's alone until it terminates.
		go func() {
			osruntime.LockOSThread()
			defer osruntime.UnlockOSThread()
			p.Run(body, onTerminate)
		}()
	} else {
		go p.Run(body, onTerminate)
	}

	return p.Handle(), nil
}

// Terminate implements process.Spawner.
func (rt *Runtime) Terminate(id registry.Identity) {
	rt.mu.RLock()
	p, ok := rt.procs[id]
	rt.mu.RUnlock()
	if ok {
		p.RequestTermination()
	}
}

// Wait implements process.Spawner. An identity the runtime no longer
// knows about is treated as already terminated.
func (rt *Runtime) Wait(ctx context.Context, id registry.Identity) error {
	rt.mu.RLock()
	p, ok := rt.procs[id]
	rt.mu.RUnlock()
	if !ok {
		return nil
	}
	select {
	case <-p.Done():
		return nil
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return core.ErrTimeout
		}
		return ctx.Err()
	}
}

// InstallReceiver implements process.Spawner, enforcing the root
// invariant (spec §4.6): a process may always install on its own
// receiver table; installing on any other process's table — notably the
// root's — is rejected unless caller and target coincide.
func (rt *Runtime) InstallReceiver(caller, target registry.Identity, pattern process.Pattern, handler process.HandlerFunc) error {
	rt.mu.RLock()
	p, ok := rt.procs[target]
	rootID := rt.rootID
	rt.mu.RUnlock()
	if !ok {
		return core.ErrNoSuchProcess
	}
	if caller != target {
		if target == rootID {
			return core.ErrNotMainProcess
		}
		return core.ErrNotOwner
	}
	p.Table().Set(pattern, handler)
	return nil
}

// onTerminate runs synchronously once, right after a process's dispatch
// loop stops: it fans EXIT out and deregisters the identity (spec
// §4.3), and — if the dying process was root — requests termination of
// every process still running (spec §4.6: "On root termination, the
// runtime must terminate every child").
//
// A plain process's death only reaches its link peers: that is the
// link graph's whole purpose. Root's death is different (spec §4.6;
// see test_killing_main_should_kill__all__processes): every process
// still registered observes it, linked to root or not, because root
// going away ends the whole fleet, not just root's own link
// neighborhood.
func (rt *Runtime) onTerminate(id registry.Identity, reason process.Reason) {
	dead, _ := rt.registry.Get(id)
	peers := rt.graph.Remove(id)

	rt.mu.Lock()
	isRoot := id == rt.rootID
	delete(rt.procs, id)
	rt.mu.Unlock()

	if isRoot {
		for _, h := range rt.registry.Snapshot() {
			if h.ID() == id {
				continue
			}
			_ = h.Send(process.ExitTag, dead)
		}
	} else {
		for _, peerID := range peers {
			if peer, ok := rt.registry.Get(peerID); ok {
				_ = peer.Send(process.ExitTag, dead)
			}
		}
	}

	rt.registry.Unregister(id)

	rt.opts.Audit.Record(context.Background(), audit.Event{
		Kind: audit.KindExit, ProcessID: uint64(id), Name: dead.Name(), Reason: string(reason), At: time.Now(),
	})

	if isRoot {
		rt.killAll()
	}
}

func (rt *Runtime) killAll() {
	rt.mu.RLock()
	remaining := make([]*process.Process, 0, len(rt.procs))
	for _, p := range rt.procs {
		remaining = append(remaining, p)
	}
	rt.mu.RUnlock()
	for _, p := range remaining {
		p.RequestTermination()
	}
}

// Shutdown requests termination of every live process and blocks until
// each has finished, or ctx is done first.
func (rt *Runtime) Shutdown(ctx context.Context) error {
	rt.mu.RLock()
	remaining := make([]*process.Process, 0, len(rt.procs))
	for _, p := range rt.procs {
		remaining = append(remaining, p)
	}
	rt.mu.RUnlock()

	for _, p := range remaining {
		p.RequestTermination()
	}
	for _, p := range remaining {
		select {
		case <-p.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Len reports the number of currently live processes, root included.
func (rt *Runtime) Len() int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return len(rt.procs)
}

// Stats reports the live process count, the summed depth of every live
// mailbox, and the audit recorder's write queue depth (0 if Options.Audit
// doesn't implement audit.Introspectable) — the numbers telemetry's
// periodic collector samples into Prometheus gauges.
func (rt *Runtime) Stats() (live, mailboxDepth, auditQueueDepth int) {
	rt.mu.RLock()
	live = len(rt.procs)
	for _, p := range rt.procs {
		mailboxDepth += p.Mailbox().Len()
	}
	rt.mu.RUnlock()

	if q, ok := rt.opts.Audit.(audit.Introspectable); ok {
		auditQueueDepth = q.QueueDepth()
	}
	return live, mailboxDepth, auditQueueDepth
}

// Processes implements admin.Fleet: a point-in-time snapshot of every
// live process, its mailbox depth and its current link set. Used by the
// admin HTTP surface's /processes endpoint; telemetry's periodic gauge
// collector reads Stats instead.
func (rt *Runtime) Processes() []admin.ProcessInfo {
	rt.mu.RLock()
	procs := make([]*process.Process, 0, len(rt.procs))
	for _, p := range rt.procs {
		procs = append(procs, p)
	}
	rt.mu.RUnlock()

	out := make([]admin.ProcessInfo, 0, len(procs))
	for _, p := range procs {
		h := p.Handle()
		out = append(out, admin.ProcessInfo{
			ID:         h.ID(),
			Name:       h.Name(),
			Alive:      h.IsAlive(),
			MailboxLen: p.Mailbox().Len(),
			Links:      rt.graph.LinksOf(h.ID()),
		})
	}
	return out
}
