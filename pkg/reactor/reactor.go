// Package reactor implements a single-consumer event loop: a bounded
// mailbox of closures drained sequentially on one goroutine. relay uses
// it to drive pkg/telemetry's periodic Prometheus gauge sampling off the
// scheduling goroutine (see Collector); the same loop shape other
// verticle-fronting designs use for request handling, just with metric
// sample ticks as the events being sequenced instead of HTTP callbacks.
package reactor

import (
	"context"
	"errors"
	"time"
)

// ErrBackpressure is returned by Submit when the reactor's mailbox is
// full; the caller should retry or drop the event.
var ErrBackpressure = errors.New("reactor mailbox is full")

// Event is one unit of work the Reactor's loop executes in order.
type Event func()

// Reactor drains a bounded mailbox of Events sequentially on a single
// goroutine, so none of its events ever run concurrently with another.
type Reactor struct {
	mailbox chan Event
	stop    chan struct{}
}

// NewReactor creates a new Reactor with a given mailbox size.
func NewReactor(mailboxSize int) *Reactor {
	return &Reactor{
		mailbox: make(chan Event, mailboxSize),
		stop:    make(chan struct{}),
	}
}

// Start begins the reactor's event loop.
func (r *Reactor) Start() {
	go r.run()
}

// Stop gracefully stops the reactor. It waits for all pending events to be processed.
func (r *Reactor) Stop(ctx context.Context) {
	// Send a stop signal which will be processed after all other events,
	// waiting for mailbox room if it is full.
	select {
	case r.mailbox <- func() { close(r.stop) }:
	case <-ctx.Done():
		return
	}

	// Wait for the stop signal to be processed or for the context to be done.
	select {
	case <-r.stop:
		// reactor has stopped
	case <-ctx.Done():
		// timeout waiting for reactor to stop
	}
}

// run is the reactor's event loop.
func (r *Reactor) run() {
	for {
		select {
		case event := <-r.mailbox:
			event()
		case <-r.stop:
			return
		}
	}
}

// Submit sends an event to the reactor's mailbox for processing.
// It returns ErrBackpressure if the mailbox is full.
func (r *Reactor) Submit(event Event) error {
	select {
	case r.mailbox <- event:
		return nil
	default:
		return ErrBackpressure
	}
}

// Schedule submits an event to be executed after a specified duration.
func (r *Reactor) Schedule(event Event, delay time.Duration) *time.Timer {
	return time.AfterFunc(delay, func() {
		// It's possible for this to be called after the reactor is stopped.
		// We will try to submit, but ignore backpressure errors if the reactor is shutting down.
		_ = r.Submit(event)
	})
}

// QueueDepth reports how many submitted Events are waiting to run.
// telemetry.Collector samples this into a Prometheus gauge so an
// operator can see the sampling loop falling behind before Submit
// starts returning ErrBackpressure.
func (r *Reactor) QueueDepth() int {
	return len(r.mailbox)
}

// Capacity reports the reactor's mailbox capacity.
func (r *Reactor) Capacity() int {
	return cap(r.mailbox)
}
