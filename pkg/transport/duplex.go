// Package transport supplies the cross-process duplex channel spec §1
// and §6 describe as an external collaborator: "the core only requires
// ordered, at-most-once, lossless delivery between two endpoints while
// both are alive." Neither the core nor cmd/relay imports this package;
// processes of either flavor, including pkg/process.FlavorOS, run as
// goroutines in one address space and never use these channels.
//
// Three concrete channels are provided, each grounded on a sibling
// example repo's own use of the same third-party client: an in-memory
// Pipe for tests, a websocket channel (gorilla/websocket, grounded on
// quadgatefoundation-fluxor's eventbus_ws.go bridge), and a NATS channel
// (nats.go + an embeddable nats-server, grounded on that repo's
// eventbus_cluster_nats.go).
package transport

import (
	"context"
	"errors"
)

// ErrClosed is returned by Send or Receive once the channel has been
// closed locally.
var ErrClosed = errors.New("transport: channel closed")

// DuplexChannel is the minimal contract the core's cross-process
// boundary requires: ordered, at-most-once, lossless delivery of opaque
// byte payloads between two endpoints while both are alive (spec §1).
// Serialization of the payload itself is layered on top by Codec; a
// DuplexChannel never interprets the bytes it carries.
type DuplexChannel interface {
	// Send transmits data to the peer. It may block until the peer's
	// read buffer (or the network) accepts it, but never reorders
	// relative to earlier successful Sends on the same channel.
	Send(ctx context.Context, data []byte) error

	// Receive blocks until the next payload arrives, the channel is
	// closed (returning ErrClosed), or ctx is cancelled.
	Receive(ctx context.Context) ([]byte, error)

	// Close releases the channel's resources. Safe to call more than
	// once; a Send or Receive racing a concurrent Close may observe
	// ErrClosed rather than completing.
	Close() error
}
