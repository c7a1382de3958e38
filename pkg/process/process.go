// Package process implements the per-process dispatch loop, receiver
// table and state machine (spec §3-§5). Spawning, linking, the root
// invariant and the identity/link-graph bookkeeping that a process must
// consult on termination are owned by package runtime, which implements
// the Spawner interface declared here — process never imports runtime,
// keeping the dependency one-directional.
package process

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fluxorio/relay/pkg/core"
	"github.com/fluxorio/relay/pkg/mailbox"
	"github.com/fluxorio/relay/pkg/registry"
)

// Flavor selects the execution substrate a process runs on (spec §4.6,
// §5: "two interchangeable process flavors ... differ only in the
// execution substrate"). Both share the dispatch loop below verbatim.
type Flavor int

const (
	// FlavorThread runs the dispatch loop on a goroutine.
	FlavorThread Flavor = iota
	// FlavorOS runs the dispatch loop on a goroutine locked to its own
	// OS thread, approximating the OS-process-backed flavor's isolation
	// without the cost of an actual subprocess per actor.
	FlavorOS
)

// Spawner is the capability a Context needs to reach back into the
// runtime that owns it: spawning children, requesting termination,
// waiting on another process, and performing the checked receiver-table
// mutation that enforces the root invariant (spec §4.6).
type Spawner interface {
	Spawn(parent registry.Identity, name string, flavor Flavor, body Body, linked bool) (registry.Handle, error)
	Terminate(id registry.Identity)
	Wait(ctx context.Context, id registry.Identity) error
	InstallReceiver(caller, target registry.Identity, pattern Pattern, handler HandlerFunc) error
}

// Process is one independently scheduled unit of execution: a private
// mailbox, an insertion-ordered receiver table, and a dispatch loop
// (spec §2 item 4, §5).
type Process struct {
	handle  registry.Handle
	alive   *atomic.Bool
	flavor  Flavor
	mailbox *mailbox.Mailbox
	table   *ReceiverTable
	state   *machine
	logger  core.Logger
	spawner Spawner

	ctx    *Context
	cancel context.CancelFunc
	runCtx context.Context

	doneOnce sync.Once
	done     chan struct{}
}

// New constructs a Process identified by id/name. Liveness starts true;
// the returned Process implements registry.Sender over its own mailbox,
// so its own Handle() is immediately routable. The caller is responsible
// for registering Handle() in the identity registry and starting the
// dispatch loop via Run.
func New(id registry.Identity, name string, flavor Flavor, spawner Spawner, logger core.Logger) *Process {
	runCtx, cancel := context.WithCancel(context.Background())
	alive := &atomic.Bool{}
	alive.Store(true)

	p := &Process{
		alive:   alive,
		flavor:  flavor,
		mailbox: mailbox.New(),
		table:   NewReceiverTable(),
		state:   newMachine(),
		logger:  logger,
		spawner: spawner,
		runCtx:  runCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	p.handle = registry.NewHandle(id, name, alive, p)
	p.ctx = &Context{self: p.handle, proc: p, spawner: spawner}
	return p
}

// Handle returns this process's handle.
func (p *Process) Handle() registry.Handle { return p.handle }

// Mailbox exposes the process's mailbox for introspection (the runtime
// reads its Len for Stats and Processes). Routing into it goes through
// Route, which Process implements as its handle's registry.Sender.
func (p *Process) Mailbox() *mailbox.Mailbox { return p.mailbox }

// Table exposes the receiver table for the checked InstallReceiver path
// implemented by package runtime.
func (p *Process) Table() *ReceiverTable { return p.table }

// State reports the current lifecycle state and, once terminated, the
// terminal reason.
func (p *Process) State() (State, Reason) { return p.state.current() }

// Done returns a channel closed once the process reaches terminated.
func (p *Process) Done() <-chan struct{} { return p.done }

// RequestTermination asks the process to transition to terminating at
// its next safe point (spec §5: "between handler invocations"). Safe to
// call multiple times or after the process has already terminated.
func (p *Process) RequestTermination() {
	p.state.advance(StateTerminating, ReasonExplicitTerminate)
	p.cancel()
}

// Run executes body once to install initial receivers, then advances to
// running and drives the dispatch loop until termination. onTerminate is
// invoked exactly once, synchronously, right before Run returns, so the
// owning runtime can fan out EXIT envelopes and deregister the identity
// (spec §4.3) before any waiter unblocks.
func (p *Process) Run(body Body, onTerminate func(reason Reason)) {
	if !p.runBody(body) {
		p.terminate(onTerminate)
		return
	}
	p.state.advance(StateRunning, ReasonNone)
	p.dispatchLoop()
	p.terminate(onTerminate)
}

func (p *Process) runBody(body Body) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("process body panicked", "process", p.handle.Name(), "panic", r)
			p.state.advance(StateTerminating, ReasonUncaughtHandlerFailure)
			ok = false
		}
	}()
	if body != nil {
		body(p.ctx)
	}
	return true
}

func (p *Process) dispatchLoop() {
	for {
		raw, err := p.mailbox.Receive(p.runCtx)
		if err != nil {
			// Context cancelled (RequestTermination) or mailbox closed
			// out from under us; either way this is a safe point to stop.
			p.state.advance(StateTerminating, ReasonExplicitTerminate)
			return
		}

		env, _ := raw.(Envelope)
		handler, found := p.table.Match(env)
		if !found {
			reason := ReasonUnhandledMessage
			if len(env) > 0 {
				if tag, ok := env[0].(string); ok && tag == ExitTag {
					reason = ReasonExitSignal
				}
			}
			if reason == ReasonUnhandledMessage {
				p.logger.Error("process received unhandled message", "process", p.handle.Name(), "envelope", env)
			}
			p.state.advance(StateTerminating, reason)
			return
		}

		switch out, herr := p.invoke(handler, env); out {
		case outcomeStop:
			p.state.advance(StateTerminating, ReasonNormal)
			return
		case outcomeFailed:
			p.logger.Error("process handler failed", "process", p.handle.Name(), "error", herr)
			p.state.advance(StateTerminating, ReasonUncaughtHandlerFailure)
			return
		default:
			// continue the loop
		}
	}
}

func (p *Process) invoke(handler HandlerFunc, env Envelope) (out outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
			out = outcomeFailed
		}
	}()
	err = handler(p.ctx, []interface{}(env))
	return classify(err), err
}

func (p *Process) terminate(onTerminate func(reason Reason)) {
	// Mark not-alive before fan-out so that any peer observing this
	// process mid-EXIT-delivery sees it as dead (spec §4.3 step 1).
	p.alive.Store(false)
	p.mailbox.Close()
	p.cancel()
	_, reason := p.state.current()
	if onTerminate != nil {
		onTerminate(reason)
	}
	p.state.advance(StateTerminated, ReasonNone)
	p.doneOnce.Do(func() { close(p.done) })
}

// Route implements registry.Sender by enqueueing values as an Envelope.
func (p *Process) Route(values []interface{}) error {
	return p.mailbox.Send(Envelope(values))
}

// Context is the collaborator passed to a process's Body and to every
// handler invocation. It is the only way a process observes or acts on
// the rest of the fleet: spawning, sending, linking and installing
// receivers all flow through it (spec §4, §6).
type Context struct {
	self    registry.Handle
	proc    *Process
	spawner Spawner
}

// Self returns this process's own handle.
func (c *Context) Self() registry.Handle { return c.self }

// Send enqueues values into target's mailbox; non-blocking, silently
// dropped if target is dead (spec §4.1, §7).
func (c *Context) Send(target registry.Handle, values ...interface{}) error {
	return target.Send(values...)
}

// Receive installs handler for pattern on this process's own receiver
// table. Self-registration is always permitted (spec §5: single-writer,
// the owning process's own dispatch context).
func (c *Context) Receive(pattern Pattern, handler HandlerFunc) error {
	return c.InstallOn(c.self, pattern, handler)
}

// InstallOn attempts to install handler for pattern on target's receiver
// table. This is the general form the root invariant guards: it only
// succeeds unconditionally when target is the caller itself; mutating
// another process's table — most notably the root process's — is
// rejected by the runtime unless the caller is that process (spec §4.6).
func (c *Context) InstallOn(target registry.Handle, pattern Pattern, handler HandlerFunc) error {
	return c.spawner.InstallReceiver(c.self.ID(), target.ID(), pattern, handler)
}

// Spawn starts a new, unlinked process (spec §4.4).
func (c *Context) Spawn(name string, flavor Flavor, body Body) (registry.Handle, error) {
	return c.spawner.Spawn(c.self.ID(), name, flavor, body, false)
}

// SpawnLink starts a new process linked to the caller before the child
// can terminate (spec §4.4).
func (c *Context) SpawnLink(name string, flavor Flavor, body Body) (registry.Handle, error) {
	return c.spawner.Spawn(c.self.ID(), name, flavor, body, true)
}

// Terminate requests target's termination (spec §5, §6).
func (c *Context) Terminate(target registry.Handle) {
	c.spawner.Terminate(target.ID())
}

// Wait blocks until target terminates or timeout elapses, returning true
// if target terminated and false on timeout. A zero timeout waits
// indefinitely (spec §5, §6: "wait(handle, timeout?)").
func (c *Context) Wait(target registry.Handle, timeout time.Duration) bool {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return c.spawner.Wait(ctx, target.ID()) == nil
}

// IsAlive reports target's liveness.
func (c *Context) IsAlive(target registry.Handle) bool {
	return target.IsAlive()
}
