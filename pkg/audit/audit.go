// Package audit records spawn/link/exit lifecycle events to a durable
// store, the same DB-backed-component shape other lifecycle-hook-driven
// services use (a Pool wrapped by a small lifecycle-aware component).
// This is explicitly NOT mailbox persistence — spec §1's Non-goals rule
// out resurrecting a process's mailbox across restarts; an audit
// Recorder only ever appends an immutable log of what happened, useful
// for postmortems and never read back by the runtime itself.
package audit

import (
	"context"
	"time"
)

// Kind enumerates the lifecycle events a Recorder stores.
type Kind string

const (
	KindSpawn Kind = "spawn"
	KindLink  Kind = "link"
	KindExit  Kind = "exit"
)

// Event is one lifecycle record. PeerID and Reason are populated
// according to Kind: PeerID for link (the linked child), Reason for exit
// (the terminal reason string from pkg/process.Reason). An exit event
// records the dead process as ProcessID and leaves PeerID zero.
type Event struct {
	Kind      Kind
	ProcessID uint64
	Name      string
	PeerID    uint64
	Reason    string
	At        time.Time
}

// Recorder persists Events. Implementations must not block the
// runtime's dispatch or link-graph goroutines on slow I/O; both
// SQLiteRecorder and PostgresRecorder hand writes to a worker pool and
// return once the write is queued.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
	Close() error
}

// NoopRecorder discards every event. The zero value of Runtime's audit
// field should be this, not nil, so callers never need a nil check.
type NoopRecorder struct{}

func (NoopRecorder) Record(context.Context, Event) error { return nil }
func (NoopRecorder) Close() error                        { return nil }

// Introspectable is implemented by Recorder backends whose write queue
// depth is worth reporting — SQLiteRecorder and PostgresRecorder both
// hand writes to a pkg/worker.WorkerPool and forward its QueueDepth.
// NoopRecorder does not implement it: there is no queue to report on.
type Introspectable interface {
	QueueDepth() int
}
