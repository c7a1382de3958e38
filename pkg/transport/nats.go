package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

const readyTimeout = 4 * time.Second

// NATSChannel is a DuplexChannel over a pair of NATS subjects: one this
// end publishes on, one it subscribes to. Grounded on
// quadgatefoundation-fluxor's eventbus_cluster_nats.go (address mapping
// onto subjects under a prefix); here the "address" is simply the two
// peer-specific subjects a pair of nodes agree on out of band (e.g. via
// RouteDescriptor.Address).
type NATSChannel struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	sendSub string
	msgs    chan *nats.Msg
}

// NATSConfig configures a NATSChannel endpoint.
type NATSConfig struct {
	// URL is the NATS server URL, e.g. "nats://127.0.0.1:4222".
	URL string
	// SendSubject is the subject this end publishes envelopes on.
	SendSubject string
	// RecvSubject is the subject this end subscribes to.
	RecvSubject string
}

// DialNATS connects to a NATS server and wires a DuplexChannel over the
// configured subject pair.
func DialNATS(cfg NATSConfig) (*NATSChannel, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("transport: nats connect: %w", err)
	}

	msgs := make(chan *nats.Msg, 64)
	sub, err := nc.ChanSubscribe(cfg.RecvSubject, msgs)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("transport: nats subscribe: %w", err)
	}

	return &NATSChannel{nc: nc, sub: sub, sendSub: cfg.SendSubject, msgs: msgs}, nil
}

// Send publishes data on the configured send subject.
func (c *NATSChannel) Send(ctx context.Context, data []byte) error {
	if err := c.nc.Publish(c.sendSub, data); err != nil {
		return err
	}
	return c.nc.FlushWithContext(ctx)
}

// Receive blocks for the next message on the configured receive subject.
func (c *NATSChannel) Receive(ctx context.Context) ([]byte, error) {
	select {
	case msg, ok := <-c.msgs:
		if !ok {
			return nil, ErrClosed
		}
		return msg.Data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close unsubscribes and closes the connection without draining it.
func (c *NATSChannel) Close() error {
	if c.sub != nil {
		_ = c.sub.Unsubscribe()
	}
	c.nc.Close()
	return nil
}

// EmbeddedBroker wraps an in-process nats-server, used by transport
// tests (and single-host demos) so a NATSChannel pair never needs an
// external broker — the same embedding pattern nats-server/v2 documents
// for its own test suite.
type EmbeddedBroker struct {
	srv *server.Server
}

// StartEmbeddedBroker starts an in-process NATS server bound to a local,
// ephemeral port and blocks until it is ready for connections.
func StartEmbeddedBroker() (*EmbeddedBroker, error) {
	opts := &server.Options{
		Host:           "127.0.0.1",
		Port:           -1, // ephemeral
		NoLog:          true,
		NoSigs:         true,
		MaxControlLine: 4096,
	}
	srv, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("transport: start embedded nats: %w", err)
	}
	go srv.Start()
	if !srv.ReadyForConnections(readyTimeout) {
		return nil, fmt.Errorf("transport: embedded nats not ready")
	}
	return &EmbeddedBroker{srv: srv}, nil
}

// URL returns the client URL for this embedded broker.
func (b *EmbeddedBroker) URL() string {
	return b.srv.ClientURL()
}

// Shutdown stops the embedded broker.
func (b *EmbeddedBroker) Shutdown() {
	b.srv.Shutdown()
}
