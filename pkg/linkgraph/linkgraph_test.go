package linkgraph

import (
	"sort"
	"testing"

	"github.com/fluxorio/relay/pkg/registry"
)

func ids(vs ...int) []registry.Identity {
	out := make([]registry.Identity, len(vs))
	for i, v := range vs {
		out[i] = registry.Identity(v)
	}
	return out
}

func sorted(in []registry.Identity) []registry.Identity {
	out := append([]registry.Identity(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestLinkIsSymmetric(t *testing.T) {
	g := New()
	g.Link(1, 2)

	if got := sorted(g.LinksOf(1)); len(got) != 1 || got[0] != 2 {
		t.Fatalf("LinksOf(1) = %v, want [2]", got)
	}
	if got := sorted(g.LinksOf(2)); len(got) != 1 || got[0] != 1 {
		t.Fatalf("LinksOf(2) = %v, want [1]", got)
	}
}

func TestLinkIsIdempotent(t *testing.T) {
	g := New()
	g.Link(1, 2)
	g.Link(1, 2)
	if got := g.LinksOf(1); len(got) != 1 {
		t.Fatalf("duplicate Link should not duplicate the edge, got %v", got)
	}
}

func TestUnlinkRemovesBothDirections(t *testing.T) {
	g := New()
	g.Link(1, 2)
	g.Unlink(1, 2)

	if got := g.LinksOf(1); len(got) != 0 {
		t.Fatalf("LinksOf(1) after Unlink = %v, want empty", got)
	}
	if got := g.LinksOf(2); len(got) != 0 {
		t.Fatalf("LinksOf(2) after Unlink = %v, want empty", got)
	}
}

func TestRemoveSnapshotsAndSeversAllEdges(t *testing.T) {
	g := New()
	g.Link(1, 2)
	g.Link(1, 3)
	g.Link(2, 3)

	peers := sorted(g.Remove(1))
	want := ids(2, 3)
	if len(peers) != len(want) || peers[0] != want[0] || peers[1] != want[1] {
		t.Fatalf("Remove(1) peers = %v, want %v", peers, want)
	}

	if got := g.LinksOf(1); len(got) != 0 {
		t.Fatalf("LinksOf(1) after Remove = %v, want empty", got)
	}
	if got := sorted(g.LinksOf(2)); len(got) != 1 || got[0] != 3 {
		t.Fatalf("LinksOf(2) after Remove(1) = %v, want [3]", got)
	}
	if got := sorted(g.LinksOf(3)); len(got) != 1 || got[0] != 2 {
		t.Fatalf("LinksOf(3) after Remove(1) = %v, want [2]", got)
	}
}

func TestSelfLinkIsNoop(t *testing.T) {
	g := New()
	g.Link(1, 1)
	if got := g.LinksOf(1); len(got) != 0 {
		t.Fatalf("self-link should be a no-op, got %v", got)
	}
}

func TestUnlinkedPeerUnaffected(t *testing.T) {
	g := New()
	g.Link(1, 2)
	peers := g.Remove(2)
	if len(peers) != 1 || peers[0] != 1 {
		t.Fatalf("Remove(2) peers = %v, want [1]", peers)
	}
	if got := g.LinksOf(3); len(got) != 0 {
		t.Fatalf("unrelated identity should have no links, got %v", got)
	}
}
