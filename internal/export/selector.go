// Package export filters a discovery inventory by namespace and serializes
// it as a NodeSet-style XML document.
package export

import (
	"github.com/uaforge/uaexport/internal/browse"
	"github.com/uaforge/uaexport/internal/session"
)

// NamespaceFilter selects which namespace ordinals to export. The zero
// value is the "all namespaces" sentinel.
type NamespaceFilter struct {
	set map[uint16]struct{}
}

// AllNamespaces returns the pass-everything filter.
func AllNamespaces() NamespaceFilter { return NamespaceFilter{} }

// Namespaces returns a filter matching exactly the given ordinals. With no
// ordinals it degenerates to the all-namespaces sentinel, matching the CLI
// behavior when no -n flag is given.
func Namespaces(ords ...uint16) NamespaceFilter {
	if len(ords) == 0 {
		return NamespaceFilter{}
	}
	set := make(map[uint16]struct{}, len(ords))
	for _, o := range ords {
		set[o] = struct{}{}
	}
	return NamespaceFilter{set: set}
}

// All reports whether the filter passes every namespace.
func (f NamespaceFilter) All() bool { return f.set == nil }

// Contains reports whether the ordinal passes the filter.
func (f NamespaceFilter) Contains(ns uint16) bool {
	if f.set == nil {
		return true
	}
	_, ok := f.set[ns]
	return ok
}

// Select returns the order-preserving subsequence of the inventory whose
// namespace ordinals pass the filter. The all sentinel returns the full
// node list unchanged. The inventory is never mutated.
func Select(inv *browse.Inventory, f NamespaceFilter) []session.NodeID {
	nodes := inv.Nodes()
	if f.All() {
		return nodes
	}
	out := make([]session.NodeID, 0, len(nodes))
	for _, n := range nodes {
		if f.Contains(n.Namespace) {
			out = append(out, n)
		}
	}
	return out
}
