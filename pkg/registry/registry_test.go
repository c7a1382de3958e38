package registry

import (
	"sync/atomic"
	"testing"
)

type stubSender struct{ routed [][]interface{} }

func (s *stubSender) Route(values []interface{}) error {
	s.routed = append(s.routed, values)
	return nil
}

func newTestHandle(r *Registry, name string) (Handle, *stubSender, *atomic.Bool) {
	alive := &atomic.Bool{}
	alive.Store(true)
	sender := &stubSender{}
	h := NewHandle(r.NextIdentity(), name, alive, sender)
	return h, sender, alive
}

func TestRegisterLookupGet(t *testing.T) {
	r := New()
	h, _, _ := newTestHandle(r, "ponger")
	if err := r.Register(h); err != nil {
		t.Fatalf("Register: %v", err)
	}

	byName, ok := r.Lookup("ponger")
	if !ok || !byName.Equal(h) {
		t.Fatalf("Lookup(ponger) = %v, %v", byName, ok)
	}

	byID, ok := r.Get(h.ID())
	if !ok || !byID.Equal(h) {
		t.Fatalf("Get(%v) = %v, %v", h.ID(), byID, ok)
	}
}

func TestRegisterRejectsEmptyName(t *testing.T) {
	r := New()
	h, _, _ := newTestHandle(r, "")
	if err := r.Register(h); err == nil {
		t.Fatal("expected error registering an unnamed handle")
	}
}

func TestUnregisterRemovesBothIndexes(t *testing.T) {
	r := New()
	h, _, _ := newTestHandle(r, "dying_proc")
	_ = r.Register(h)

	r.Unregister(h.ID())

	if _, ok := r.Get(h.ID()); ok {
		t.Fatal("Get should fail after Unregister")
	}
	if _, ok := r.Lookup("dying_proc"); ok {
		t.Fatal("Lookup should fail after Unregister")
	}
}

func TestHandleSendRoutesWhileAlive(t *testing.T) {
	r := New()
	h, sender, alive := newTestHandle(r, "ponger")

	if err := h.Send("pong", h); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(sender.routed) != 1 {
		t.Fatalf("expected one routed envelope, got %d", len(sender.routed))
	}

	alive.Store(false)
	if err := h.Send("pong", h); err != nil {
		t.Fatalf("Send on dead handle should not error: %v", err)
	}
	if len(sender.routed) != 1 {
		t.Fatal("Send on dead handle should be dropped, not routed")
	}
}

func TestHandleEqualIgnoresRouteIdentity(t *testing.T) {
	r := New()
	h, _, _ := newTestHandle(r, "ponger")
	copy1 := NewHandle(h.ID(), h.Name(), &atomic.Bool{}, &stubSender{})
	if !h.Equal(copy1) {
		t.Fatal("handles with the same identity should compare equal")
	}
}

func TestNextIdentityIsMonotonic(t *testing.T) {
	r := New()
	a := r.NextIdentity()
	b := r.NextIdentity()
	if b <= a {
		t.Fatalf("NextIdentity should increase: %v then %v", a, b)
	}
}
