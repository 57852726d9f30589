// Package mirror pushes a discovered address space into an external graph
// store for ad-hoc querying.
package mirror

import (
	"context"

	"github.com/uaforge/uaexport/internal/browse"
)

// Mirror persists the node set and its first-visit hierarchy edges.
type Mirror interface {
	// StoreAddressSpace writes the inventory for the given server endpoint,
	// replacing nothing: nodes and edges are merged by identity so repeated
	// runs converge.
	StoreAddressSpace(ctx context.Context, endpoint string, inv *browse.Inventory) error
	// Close releases resources.
	Close(ctx context.Context) error
}
