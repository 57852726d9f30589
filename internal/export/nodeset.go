package export

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/uaforge/uaexport/internal/session"
)

const nodeSetNamespace = "http://opcfoundation.org/UA/2011/03/UANodeSet.xsd"

// Document is the XML form of an exported node list.
type Document struct {
	XMLName       xml.Name       `xml:"UANodeSet"`
	XMLNS         string         `xml:"xmlns,attr"`
	NamespaceUris *NamespaceUris `xml:"NamespaceUris,omitempty"`
	Nodes         []DocumentNode `xml:"UANode"`
}

// NamespaceUris lists the server's namespace table.
type NamespaceUris struct {
	Uri []string `xml:"Uri"`
}

// DocumentNode is one exported node.
type DocumentNode struct {
	NodeID       string `xml:"NodeId,attr"`
	BrowseName   string `xml:"BrowseName,attr,omitempty"`
	NodeClass    string `xml:"NodeClass,attr"`
	ParentNodeID string `xml:"ParentNodeId,attr,omitempty"`
	DisplayName  string `xml:"DisplayName,omitempty"`
	Value        *Value `xml:"Value,omitempty"`
}

// Value is a variable node's current value rendered as text.
type Value struct {
	Text string `xml:",chardata"`
}

// ProgressFunc receives (serialized, total) per node. The total is the
// filtered node count, not the full inventory size.
type ProgressFunc func(done, total int)

// Option configures an Exporter.
type Option func(*Exporter)

// WithValues enables value export for variable nodes.
func WithValues() Option {
	return func(e *Exporter) { e.withValues = true }
}

// WithProgress installs a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Exporter) { e.progress = fn }
}

// WithLogger installs a logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Exporter) { e.log = log }
}

// Exporter builds NodeSet documents by reading per-node detail through the
// session.
type Exporter struct {
	sess       session.Session
	withValues bool
	progress   ProgressFunc
	log        *slog.Logger
}

// NewExporter builds an Exporter over an established session.
func NewExporter(sess session.Session, opts ...Option) *Exporter {
	e := &Exporter{sess: sess, log: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BuildDocument reads detail for every node, in order, and assembles the
// document. parents supplies the first-visit parent per node; nsIndex fills
// the NamespaceUris table. Any failed detail read fails the build: a
// document that silently dropped structure is worse than no document.
func (e *Exporter) BuildDocument(ctx context.Context, nodes []session.NodeID, parents map[session.NodeID]session.NodeID, nsIndex session.NamespaceIndex) (*Document, error) {
	doc := &Document{XMLNS: nodeSetNamespace}
	if len(nsIndex) > 0 {
		uris := &NamespaceUris{}
		for _, ord := range nsIndex.Ordinals() {
			uri, _ := nsIndex.URI(ord)
			uris.Uri = append(uris.Uri, uri)
		}
		doc.NamespaceUris = uris
	}

	total := len(nodes)
	for i, id := range nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		detail, err := e.sess.Describe(ctx, id, e.withValues)
		if err != nil {
			return nil, fmt.Errorf("describe %s: %w", id, err)
		}

		dn := DocumentNode{
			NodeID:      detail.ID.Text,
			BrowseName:  detail.BrowseName,
			NodeClass:   detail.Class.String(),
			DisplayName: detail.DisplayName,
		}
		if parent, ok := parents[id]; ok {
			dn.ParentNodeID = parent.Text
		}
		if detail.HasValue {
			dn.Value = &Value{Text: detail.Value}
		}
		doc.Nodes = append(doc.Nodes, dn)

		if e.progress != nil {
			e.progress(i+1, total)
		}
	}
	return doc, nil
}

// WriteFile marshals the document and writes it atomically: the content
// lands in a temp file first and is renamed into place, so a failed run
// never leaves a truncated export behind.
func WriteFile(doc *Document, path string) error {
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal nodeset: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".uaexport-*.xml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write([]byte(xml.Header)); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
