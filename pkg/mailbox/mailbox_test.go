package mailbox

import (
	"context"
	"testing"
	"time"
)

func TestSendReceiveFIFO(t *testing.T) {
	m := New()
	for i := 0; i < 5; i++ {
		if err := m.Send(i); err != nil {
			t.Fatalf("Send(%d): %v", i, err)
		}
	}

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		v, err := m.Receive(ctx)
		if err != nil {
			t.Fatalf("Receive: %v", err)
		}
		if v.(int) != i {
			t.Fatalf("out of order: got %v, want %d", v, i)
		}
	}
}

func TestReceiveBlocksUntilSend(t *testing.T) {
	m := New()
	done := make(chan interface{}, 1)

	go func() {
		v, err := m.Receive(context.Background())
		if err != nil {
			t.Error(err)
			return
		}
		done <- v
	}()

	time.Sleep(10 * time.Millisecond)
	if err := m.Send("hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case v := <-done:
		if v != "hello" {
			t.Fatalf("got %v, want hello", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Receive did not unblock after Send")
	}
}

func TestSendAfterCloseIsNoop(t *testing.T) {
	m := New()
	m.Close()
	if err := m.Send("x"); err != nil {
		t.Fatalf("Send on closed mailbox should not error, got %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("closed mailbox should not retain sends")
	}
}

func TestReceiveAfterCloseReturnsErr(t *testing.T) {
	m := New()
	m.Close()
	_, err := m.Receive(context.Background())
	if err == nil {
		t.Fatal("expected error receiving from closed, drained mailbox")
	}
}

func TestCloseAbandonsPending(t *testing.T) {
	m := New()
	_ = m.Send("a")
	_ = m.Send("b")
	m.Close()
	if m.Len() != 0 {
		t.Fatalf("Close should discard pending envelopes")
	}
}

func TestReceiveRespectsContextCancellation(t *testing.T) {
	m := New()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := m.Receive(ctx)
	if err == nil {
		t.Fatal("expected context deadline error")
	}
}
