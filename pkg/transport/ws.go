package transport

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// WSChannel is a DuplexChannel over a single gorilla/websocket
// connection. Event-bus bridges that frame JSON "publish/send/request"
// operations over one conn per client are the shape this is grounded
// on; this channel strips the operation envelope down to the bare
// duplex-byte contract pkg/transport.DuplexChannel requires, leaving
// framing of the payload itself (WireEnvelope, via EncodeJSON/DecodeJSON)
// to the caller.
type WSChannel struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	closeMu sync.Mutex
	closed  bool
}

// NewWSChannel wraps an already-established websocket connection
// (either the server side, from Upgrade, or the client side, from
// websocket.Dial) as a DuplexChannel.
func NewWSChannel(conn *websocket.Conn) *WSChannel {
	return &WSChannel{conn: conn}
}

// DialWS connects to a peer's websocket listener and returns a
// DuplexChannel over the new connection.
func DialWS(ctx context.Context, url string) (*WSChannel, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return NewWSChannel(conn), nil
}

// upgrader is shared across AcceptWS calls; CheckOrigin is permissive
// for intra-fleet traffic that never crosses a browser origin.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// AcceptWS upgrades an incoming HTTP request to a websocket connection
// and returns it as a DuplexChannel, for the server side of a transport
// listener.
func AcceptWS(w http.ResponseWriter, r *http.Request) (*WSChannel, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return NewWSChannel(conn), nil
}

// Send writes data as one binary websocket frame. Writes are serialized
// with a mutex since gorilla/websocket forbids concurrent writers on one
// connection.
func (c *WSChannel) Send(ctx context.Context, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.isClosed() {
		return ErrClosed
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

// Receive blocks for the next binary frame. ctx cancellation closes the
// underlying connection to unblock the read, mirroring the way the
// teacher's client loop exits on a read error.
func (c *WSChannel) Receive(ctx context.Context) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		_, data, err := c.conn.ReadMessage()
		done <- result{data, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if c.isClosed() {
				return nil, ErrClosed
			}
			return nil, r.err
		}
		return r.data, nil
	case <-ctx.Done():
		c.Close()
		return nil, ctx.Err()
	}
}

func (c *WSChannel) isClosed() bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	return c.closed
}

// Close closes the underlying connection. Idempotent.
func (c *WSChannel) Close() error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}
