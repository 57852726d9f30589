// Package snapshot persists discovery runs so address spaces can be
// compared across time.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/uaforge/uaexport/internal/browse"
	"github.com/uaforge/uaexport/internal/session"
)

// Record is a point-in-time capture of one discovery run.
type Record struct {
	ID          string           `json:"id"`
	Tag         string           `json:"tag,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	Endpoint    string           `json:"endpoint"`
	ContentHash string           `json:"content_hash"`
	Namespaces  []NamespaceEntry `json:"namespaces,omitempty"`
	Nodes       []NodeEntry      `json:"nodes"`
}

// NamespaceEntry is one row of the server's namespace table.
type NamespaceEntry struct {
	Ordinal uint16 `json:"ordinal"`
	URI     string `json:"uri"`
}

// NodeEntry is one discovered node, in discovery order.
type NodeEntry struct {
	ID        string `json:"id"`
	Namespace uint16 `json:"namespace"`
}

// Index is a lightweight listing of all stored records.
type Index struct {
	Snapshots []Summary `json:"snapshots"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary is the minimal info for listing records.
type Summary struct {
	ID        string    `json:"id"`
	Tag       string    `json:"tag,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Endpoint  string    `json:"endpoint"`
	NodeCount int       `json:"node_count"`
}

// NewRecord captures an inventory into a Record. The ID is derived from the
// content hash and the capture time, short enough to type on a CLI.
func NewRecord(endpoint string, inv *browse.Inventory, idx session.NamespaceIndex) *Record {
	rec := &Record{
		CreatedAt: time.Now(),
		Endpoint:  endpoint,
	}
	for _, ord := range idx.Ordinals() {
		uri, _ := idx.URI(ord)
		rec.Namespaces = append(rec.Namespaces, NamespaceEntry{Ordinal: ord, URI: uri})
	}
	for _, n := range inv.Nodes() {
		rec.Nodes = append(rec.Nodes, NodeEntry{ID: n.Text, Namespace: n.Namespace})
	}
	rec.ContentHash = contentHash(rec.Nodes)
	rec.ID = recordID(rec)
	return rec
}

// Summary returns the listing row for this record.
func (r *Record) Summary() Summary {
	return Summary{
		ID:        r.ID,
		Tag:       r.Tag,
		CreatedAt: r.CreatedAt,
		Endpoint:  r.Endpoint,
		NodeCount: len(r.Nodes),
	}
}

func contentHash(nodes []NodeEntry) string {
	h := sha256.New()
	for _, n := range nodes {
		h.Write([]byte(n.ID))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func recordID(rec *Record) string {
	data, _ := json.Marshal(struct {
		Time    int64  `json:"t"`
		Content string `json:"c"`
	}{
		Time:    rec.CreatedAt.UnixNano(),
		Content: rec.ContentHash,
	})
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:8])
}
