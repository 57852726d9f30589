// Package browse implements address-space discovery: a single-pass,
// cycle-safe walk over the server's hierarchical reference graph.
package browse

import "github.com/uaforge/uaexport/internal/session"

// Edge is a hierarchical parent/child link recorded when the child is first
// visited. A node reachable through several parents keeps only the edge from
// whichever parent reached it first; callers must not assume a canonical
// parent for re-linked nodes.
type Edge struct {
	Parent session.NodeID
	Child  session.NodeID
}

// Inventory is the result of one discovery pass: every reachable node
// exactly once, in pre-order depth-first discovery order. It is populated
// only by the Crawler and read-only afterwards.
type Inventory struct {
	nodes []session.NodeID
	edges []Edge
	seen  map[session.NodeID]struct{}
}

func newInventory() *Inventory {
	return &Inventory{seen: make(map[session.NodeID]struct{})}
}

// add marks the node visited and appends it, in that order. Returns false
// when the node was already present.
func (inv *Inventory) add(id session.NodeID) bool {
	if _, ok := inv.seen[id]; ok {
		return false
	}
	inv.seen[id] = struct{}{}
	inv.nodes = append(inv.nodes, id)
	return true
}

// Contains reports whether the node id has been discovered. O(1).
func (inv *Inventory) Contains(id session.NodeID) bool {
	_, ok := inv.seen[id]
	return ok
}

// Len returns the number of discovered nodes.
func (inv *Inventory) Len() int { return len(inv.nodes) }

// Nodes returns the discovery-ordered node list. The slice is shared;
// callers must treat it as read-only.
func (inv *Inventory) Nodes() []session.NodeID { return inv.nodes }

// Edges returns the first-visit parent/child edges, one per non-root node.
func (inv *Inventory) Edges() []Edge { return inv.edges }

// Parents returns a child-to-parent lookup built from the first-visit edges.
func (inv *Inventory) Parents() map[session.NodeID]session.NodeID {
	out := make(map[session.NodeID]session.NodeID, len(inv.edges))
	for _, e := range inv.edges {
		out[e.Child] = e.Parent
	}
	return out
}
