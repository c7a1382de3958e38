// Package mailbox implements the process mailbox: a FIFO queue of
// envelopes with conceptually unbounded capacity. This queue never drops
// a message while the owner is alive — enqueue is non-blocking and
// always succeeds; dequeue blocks the single consumer until an envelope
// arrives, the mailbox closes, or ctx is cancelled.
package mailbox

import (
	"context"
	"sync"

	"github.com/fluxorio/relay/pkg/core"
)

// Mailbox is a multi-producer, single-consumer FIFO queue of envelopes.
type Mailbox struct {
	mu     sync.Mutex
	queue  []interface{}
	closed bool
	signal chan struct{}
}

// New creates an empty, open mailbox.
func New() *Mailbox {
	return &Mailbox{signal: make(chan struct{}, 1)}
}

// Send enqueues v. It never blocks and never fails: a send against a
// closed mailbox is silently dropped (spec §3: "subsequent sends are
// silently dropped"; §7: "send on a dead target does not raise").
func (m *Mailbox) Send(v interface{}) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.queue = append(m.queue, v)
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
	return nil
}

// Receive blocks until an envelope is available, the mailbox is closed
// with nothing left to drain, or ctx is cancelled.
func (m *Mailbox) Receive(ctx context.Context) (interface{}, error) {
	for {
		m.mu.Lock()
		if len(m.queue) > 0 {
			v := m.queue[0]
			m.queue = m.queue[1:]
			m.mu.Unlock()
			return v, nil
		}
		closed := m.closed
		m.mu.Unlock()

		if closed {
			return nil, core.ErrMailboxClosed
		}

		select {
		case <-m.signal:
		case <-ctx.Done():
			// A send may have landed concurrently with the cancellation;
			// re-check under the lock before honoring ctx, since select
			// between two ready cases picks arbitrarily and we must not
			// drop a message that is already queued.
			m.mu.Lock()
			if len(m.queue) > 0 {
				v := m.queue[0]
				m.queue = m.queue[1:]
				m.mu.Unlock()
				return v, nil
			}
			m.mu.Unlock()
			return nil, ctx.Err()
		}
	}
}

// Close marks the mailbox closed. Pending envelopes are abandoned (spec
// §4.1: "Closing the mailbox drains no envelopes; pending envelopes are
// abandoned"). Idempotent.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.queue = nil
	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// Len reports the number of envelopes currently queued. Intended for
// introspection (admin/metrics surfaces), not for flow control.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}
