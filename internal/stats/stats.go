// Package stats derives per-namespace node-class statistics from a
// discovery inventory.
package stats

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/uaforge/uaexport/internal/browse"
	"github.com/uaforge/uaexport/internal/session"
)

// ClassCount is one node-class bucket within a namespace.
type ClassCount struct {
	Label string
	Count int
}

// NamespaceStats aggregates one namespace. Classes keeps the order in which
// each class label was first encountered during the pass.
type NamespaceStats struct {
	Ordinal uint16
	URI     string
	Classes []ClassCount
}

// Report is the outcome of one aggregation pass over a full inventory.
// Total counts every inventory node, including those whose class read
// failed; the per-class buckets exclude failed nodes.
type Report struct {
	Namespaces []NamespaceStats
	Total      int
	Failed     int
}

// ProgressFunc receives (processed, total) after each node.
type ProgressFunc func(done, total int)

// Option configures Summarize.
type Option func(*aggregator)

// WithProgress installs a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(a *aggregator) { a.progress = fn }
}

// WithLogger installs the logger used for per-node read failures.
func WithLogger(log *slog.Logger) Option {
	return func(a *aggregator) { a.log = log }
}

type aggregator struct {
	progress ProgressFunc
	log      *slog.Logger
}

type nsAcc struct {
	order  []string
	counts map[string]int
}

// Summarize reads each inventory node's class and groups counts by
// (namespace ordinal, class label). A single node's failed read is logged
// and skipped; it must not invalidate the rest of the report. The namespace
// index must be built first.
func Summarize(ctx context.Context, sess session.Session, inv *browse.Inventory, idx session.NamespaceIndex, opts ...Option) (*Report, error) {
	if idx == nil {
		return nil, fmt.Errorf("summarize: %w", session.ErrNamespaceNotResolved)
	}

	a := &aggregator{log: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}

	total := inv.Len()
	perNS := make(map[uint16]*nsAcc)
	rep := &Report{Total: total}

	for i, node := range inv.Nodes() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cls, err := sess.NodeClass(ctx, node)
		if err != nil {
			a.log.Warn("node class read failed, excluded from breakdown",
				"id", node.String(), "error", err)
			rep.Failed++
		} else {
			acc := perNS[node.Namespace]
			if acc == nil {
				acc = &nsAcc{counts: make(map[string]int)}
				perNS[node.Namespace] = acc
			}
			label := cls.String()
			if _, seen := acc.counts[label]; !seen {
				acc.order = append(acc.order, label)
			}
			acc.counts[label]++
		}

		if a.progress != nil {
			a.progress(i+1, total)
		}
	}

	ords := make([]uint16, 0, len(perNS))
	for ord := range perNS {
		ords = append(ords, ord)
	}
	sort.Slice(ords, func(i, j int) bool { return ords[i] < ords[j] })

	for _, ord := range ords {
		uri, ok := idx.URI(ord)
		if !ok {
			uri = "(unresolved)"
		}
		ns := NamespaceStats{Ordinal: ord, URI: uri}
		acc := perNS[ord]
		for _, label := range acc.order {
			ns.Classes = append(ns.Classes, ClassCount{Label: label, Count: acc.counts[label]})
		}
		rep.Namespaces = append(rep.Namespaces, ns)
	}
	return rep, nil
}

// Render writes the human-readable report.
func (r *Report) Render(w io.Writer) error {
	for _, ns := range r.Namespaces {
		if _, err := fmt.Fprintf(w, "NS%d (%s)\n", ns.Ordinal, ns.URI); err != nil {
			return err
		}
		for _, cc := range ns.Classes {
			if _, err := fmt.Fprintf(w, "\t%s:\t%d\n", cc.Label, cc.Count); err != nil {
				return err
			}
		}
	}
	if r.Failed > 0 {
		if _, err := fmt.Fprintf(w, "\tunreadable:\t%d\n", r.Failed); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\tTOTAL:\t%d\n", r.Total)
	return err
}
