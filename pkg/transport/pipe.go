package transport

import (
	"context"
	"sync"
)

// pipeEnd is one end of an in-memory DuplexChannel pair, used by this
// package's tests. NewPipe returns both ends; a Send on one end is
// observed by a Receive on the other.
type pipeEnd struct {
	out chan []byte
	in  chan []byte

	mu     sync.Mutex
	closed bool
}

// NewPipe creates two connected DuplexChannel endpoints.
func NewPipe(bufSize int) (a, b DuplexChannel) {
	ab := make(chan []byte, bufSize)
	ba := make(chan []byte, bufSize)
	ea := &pipeEnd{out: ab, in: ba}
	eb := &pipeEnd{out: ba, in: ab}
	return ea, eb
}

func (e *pipeEnd) Send(ctx context.Context, data []byte) error {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return ErrClosed
	}
	select {
	case e.out <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *pipeEnd) Receive(ctx context.Context) ([]byte, error) {
	select {
	case data, ok := <-e.in:
		if !ok {
			return nil, ErrClosed
		}
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *pipeEnd) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	close(e.out)
	return nil
}
