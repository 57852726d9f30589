package session

import (
	"context"
	"fmt"
	"sort"
)

// NamespaceIndex maps namespace ordinals to namespace URIs. It is built once
// after session establishment and never mutated afterwards.
type NamespaceIndex map[uint16]string

// BuildNamespaceIndex lists all namespace URIs from the server and resolves
// each one back to its ordinal. One round-trip for the array, one per URI.
func BuildNamespaceIndex(ctx context.Context, s Session) (NamespaceIndex, error) {
	uris, err := s.NamespaceArray(ctx)
	if err != nil {
		return nil, fmt.Errorf("list namespaces: %w", err)
	}

	idx := make(NamespaceIndex, len(uris))
	for _, uri := range uris {
		ord, err := s.NamespaceOrdinal(ctx, uri)
		if err != nil {
			return nil, fmt.Errorf("resolve namespace %q: %w", uri, err)
		}
		idx[ord] = uri
	}
	return idx, nil
}

// URI returns the URI for an ordinal.
func (idx NamespaceIndex) URI(ord uint16) (string, bool) {
	uri, ok := idx[ord]
	return uri, ok
}

// Ordinals returns all known ordinals in ascending order.
func (idx NamespaceIndex) Ordinals() []uint16 {
	out := make([]uint16, 0, len(idx))
	for ord := range idx {
		out = append(out, ord)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
