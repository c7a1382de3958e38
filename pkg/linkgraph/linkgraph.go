// Package linkgraph implements the Link Graph: a symmetric, globally
// coordinated relation between process identities consulted on
// termination to fan out EXIT envelopes (spec §3, §4.3). Grounded on the
// symmetric peer-set bookkeeping in the example pack's reign-style
// remoteMailboxes (a map of identity to the set of identities notified on
// its death), collapsed here to a single local process space.
package linkgraph

import (
	"sync"

	"github.com/fluxorio/relay/pkg/registry"
)

// Graph is a symmetric relation between process identities. All mutation
// and fan-out snapshots are serialized under a single lock, matching
// spec §5: "mutations are serialized by the Spawner under a lock (or
// equivalent), and fan-out snapshots the set under that lock."
type Graph struct {
	mu    sync.Mutex
	peers map[registry.Identity]map[registry.Identity]struct{}
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{peers: make(map[registry.Identity]map[registry.Identity]struct{})}
}

// Link adds the undirected edge between a and b. Idempotent; a self-link
// is a no-op since a process is never linked to itself.
func (g *Graph) Link(a, b registry.Identity) {
	if a == b {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.attach(a, b)
	g.attach(b, a)
}

func (g *Graph) attach(from, to registry.Identity) {
	set, ok := g.peers[from]
	if !ok {
		set = make(map[registry.Identity]struct{})
		g.peers[from] = set
	}
	set[to] = struct{}{}
}

// Unlink removes the undirected edge between a and b, if present.
func (g *Graph) Unlink(a, b registry.Identity) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.detach(a, b)
	g.detach(b, a)
}

func (g *Graph) detach(from, to registry.Identity) {
	set, ok := g.peers[from]
	if !ok {
		return
	}
	delete(set, to)
	if len(set) == 0 {
		delete(g.peers, from)
	}
}

// LinksOf returns a snapshot of p's current link peers.
func (g *Graph) LinksOf(p registry.Identity) []registry.Identity {
	g.mu.Lock()
	defer g.mu.Unlock()
	set := g.peers[p]
	out := make([]registry.Identity, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// Remove atomically snapshots p's link peers and severs every edge
// touching p, returning the peer snapshot for exit fan-out (spec §4.3
// step 1: "Atomically mark P not-alive and snapshot its link set L").
func (g *Graph) Remove(p registry.Identity) []registry.Identity {
	g.mu.Lock()
	defer g.mu.Unlock()

	set := g.peers[p]
	peers := make([]registry.Identity, 0, len(set))
	for id := range set {
		peers = append(peers, id)
	}
	delete(g.peers, p)
	for _, peer := range peers {
		g.detach(peer, p)
	}
	return peers
}
