package snapshot

import (
	"fmt"
	"io"
	"sort"
)

// RunDiff is the change set between two discovery records.
type RunDiff struct {
	OldID           string           `json:"old_id"`
	NewID           string           `json:"new_id"`
	Added           []NodeEntry      `json:"added,omitempty"`
	Removed         []NodeEntry      `json:"removed,omitempty"`
	NamespaceDeltas []NamespaceDelta `json:"namespace_deltas,omitempty"`
}

// NamespaceDelta is a per-namespace node-count change.
type NamespaceDelta struct {
	Ordinal  uint16 `json:"ordinal"`
	OldCount int    `json:"old_count"`
	NewCount int    `json:"new_count"`
}

// Diff compares two records by node identity. Added nodes appear in new
// discovery order, removed nodes in old discovery order.
func Diff(old, new *Record) *RunDiff {
	d := &RunDiff{OldID: old.ID, NewID: new.ID}

	oldSet := make(map[string]struct{}, len(old.Nodes))
	for _, n := range old.Nodes {
		oldSet[n.ID] = struct{}{}
	}
	newSet := make(map[string]struct{}, len(new.Nodes))
	for _, n := range new.Nodes {
		newSet[n.ID] = struct{}{}
	}

	for _, n := range new.Nodes {
		if _, ok := oldSet[n.ID]; !ok {
			d.Added = append(d.Added, n)
		}
	}
	for _, n := range old.Nodes {
		if _, ok := newSet[n.ID]; !ok {
			d.Removed = append(d.Removed, n)
		}
	}

	oldPerNS := countPerNamespace(old.Nodes)
	newPerNS := countPerNamespace(new.Nodes)
	seen := make(map[uint16]struct{})
	var ords []uint16
	for ns := range oldPerNS {
		seen[ns] = struct{}{}
		ords = append(ords, ns)
	}
	for ns := range newPerNS {
		if _, ok := seen[ns]; !ok {
			ords = append(ords, ns)
		}
	}
	sort.Slice(ords, func(i, j int) bool { return ords[i] < ords[j] })

	for _, ns := range ords {
		if oldPerNS[ns] != newPerNS[ns] {
			d.NamespaceDeltas = append(d.NamespaceDeltas, NamespaceDelta{
				Ordinal:  ns,
				OldCount: oldPerNS[ns],
				NewCount: newPerNS[ns],
			})
		}
	}
	return d
}

// Empty reports whether the two records describe the same node set.
func (d *RunDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// Render writes the diff in a terse, line-per-change format.
func (d *RunDiff) Render(w io.Writer) error {
	if d.Empty() {
		_, err := fmt.Fprintf(w, "%s -> %s: no node changes\n", d.OldID, d.NewID)
		return err
	}
	if _, err := fmt.Fprintf(w, "%s -> %s: +%d nodes, -%d nodes\n", d.OldID, d.NewID, len(d.Added), len(d.Removed)); err != nil {
		return err
	}
	for _, n := range d.Added {
		if _, err := fmt.Fprintf(w, "  + %s\n", n.ID); err != nil {
			return err
		}
	}
	for _, n := range d.Removed {
		if _, err := fmt.Fprintf(w, "  - %s\n", n.ID); err != nil {
			return err
		}
	}
	for _, nd := range d.NamespaceDeltas {
		if _, err := fmt.Fprintf(w, "  NS%d: %d -> %d\n", nd.Ordinal, nd.OldCount, nd.NewCount); err != nil {
			return err
		}
	}
	return nil
}

func countPerNamespace(nodes []NodeEntry) map[uint16]int {
	out := make(map[uint16]int)
	for _, n := range nodes {
		out[n.Namespace]++
	}
	return out
}
