package browse

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uaforge/uaexport/internal/session"
)

// ProgressFunc receives the inventory size after each appended node. The
// total is unknown in advance: the address space size is discovered, not
// declared.
type ProgressFunc func(count int)

// Option configures a Crawler.
type Option func(*Crawler)

// WithProgress installs a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Crawler) { c.progress = fn }
}

// WithLogger installs a logger for per-node debug output.
func WithLogger(log *slog.Logger) Option {
	return func(c *Crawler) { c.log = log }
}

// Crawler walks the hierarchical reference graph of a session.
type Crawler struct {
	sess     session.Session
	progress ProgressFunc
	log      *slog.Logger
}

// NewCrawler builds a Crawler over an established session.
func NewCrawler(sess session.Session, opts ...Option) *Crawler {
	c := &Crawler{sess: sess, log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type frame struct {
	id     session.NodeID
	parent session.NodeID
}

// Discover walks the graph from root in pre-order depth-first order and
// returns the inventory of every hierarchically reachable node, each exactly
// once. An explicit work-stack replaces recursion so hierarchy depth cannot
// exhaust the stack. Any failed browse aborts discovery: a partial inventory
// must never be mistaken for a complete one.
func (c *Crawler) Discover(ctx context.Context, root session.NodeID) (*Inventory, error) {
	inv := newInventory()
	stack := []frame{{id: root}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// A node queued through several parents is expanded only on its
		// first pop. Marking visited before expanding children is what
		// breaks reference cycles.
		if !inv.add(f.id) {
			continue
		}
		if !f.parent.IsZero() {
			inv.edges = append(inv.edges, Edge{Parent: f.parent, Child: f.id})
		}
		c.log.Debug("node discovered", "id", f.id.String(), "count", inv.Len())
		if c.progress != nil {
			c.progress(inv.Len())
		}

		children, err := c.sess.Children(ctx, f.id)
		if err != nil {
			return nil, fmt.Errorf("discover aborted at %s: %w", f.id, err)
		}

		// Push in reverse so children pop in enumeration order, matching
		// the recursive pre-order downstream consumers expect.
		for i := len(children) - 1; i >= 0; i-- {
			child := children[i]
			if inv.Contains(child) {
				continue
			}
			stack = append(stack, frame{id: child, parent: f.id})
		}
	}
	return inv, nil
}
