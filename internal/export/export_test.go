package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/uaforge/uaexport/internal/browse"
	"github.com/uaforge/uaexport/internal/session"
)

type fakeSession struct {
	root     session.NodeID
	children map[session.NodeID][]session.NodeID
	details  map[session.NodeID]session.NodeDetail
	failOn   map[session.NodeID]error
}

func (f *fakeSession) Root() session.NodeID { return f.root }

func (f *fakeSession) Children(_ context.Context, id session.NodeID) ([]session.NodeID, error) {
	return f.children[id], nil
}

func (f *fakeSession) NodeClass(_ context.Context, id session.NodeID) (session.NodeClass, error) {
	return f.details[id].Class, nil
}

func (f *fakeSession) Describe(_ context.Context, id session.NodeID, withValue bool) (session.NodeDetail, error) {
	if err, ok := f.failOn[id]; ok {
		return session.NodeDetail{}, err
	}
	d, ok := f.details[id]
	if !ok {
		d = session.NodeDetail{ID: id, Class: session.ClassObject}
	}
	if !withValue {
		d.Value, d.HasValue = "", false
	}
	return d, nil
}

func (f *fakeSession) NamespaceArray(context.Context) ([]string, error) { return nil, nil }

func (f *fakeSession) NamespaceOrdinal(context.Context, string) (uint16, error) { return 0, nil }

func (f *fakeSession) Close(context.Context) error { return nil }

func discover(t *testing.T, f *fakeSession) *browse.Inventory {
	t.Helper()
	inv, err := browse.NewCrawler(f).Discover(context.Background(), f.root)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	return inv
}

func mixedInventory(t *testing.T) (*browse.Inventory, *fakeSession) {
	// Namespace ordinals in discovery order: 0, 0, 2, 2, 3.
	root := session.NumericID(0, 84)
	n0 := session.StringID(0, "Server")
	a := session.StringID(2, "A")
	b := session.StringID(2, "B")
	c := session.StringID(3, "C")
	f := &fakeSession{
		root: root,
		children: map[session.NodeID][]session.NodeID{
			root: {n0, a},
			a:    {b, c},
		},
	}
	return discover(t, f), f
}

func texts(nodes []session.NodeID) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Text)
	}
	return out
}

func TestSelect_AllSentinel(t *testing.T) {
	inv, _ := mixedInventory(t)

	got := Select(inv, AllNamespaces())
	if !reflect.DeepEqual(got, inv.Nodes()) {
		t.Errorf("Select(all) = %v, want full inventory %v", texts(got), texts(inv.Nodes()))
	}
}

func TestSelect_FilterPreservesOrder(t *testing.T) {
	inv, _ := mixedInventory(t)

	got := Select(inv, Namespaces(2))
	want := []string{"ns=2;s=A", "ns=2;s=B"}
	if !reflect.DeepEqual(texts(got), want) {
		t.Errorf("Select(ns=2) = %v, want %v", texts(got), want)
	}
}

func TestSelect_Idempotent(t *testing.T) {
	inv, _ := mixedInventory(t)
	filter := Namespaces(2)

	once := Select(inv, filter)

	refiltered := make([]session.NodeID, 0, len(once))
	for _, n := range once {
		if filter.Contains(n.Namespace) {
			refiltered = append(refiltered, n)
		}
	}
	if !reflect.DeepEqual(once, refiltered) {
		t.Errorf("filter not idempotent: %v vs %v", texts(once), texts(refiltered))
	}
}

func TestSelect_EmptyFilterIsAll(t *testing.T) {
	inv, _ := mixedInventory(t)
	if got := Select(inv, Namespaces()); len(got) != inv.Len() {
		t.Errorf("Select(no ordinals) returned %d nodes, want %d", len(got), inv.Len())
	}
}

func TestBuildDocument(t *testing.T) {
	inv, f := mixedInventory(t)
	f.details = map[session.NodeID]session.NodeDetail{
		session.StringID(2, "B"): {
			ID:          session.StringID(2, "B"),
			BrowseName:  "2:B",
			DisplayName: "B",
			Class:       session.ClassVariable,
			Value:       "42",
			HasValue:    true,
		},
	}
	idx := session.NamespaceIndex{0: "http://opcfoundation.org/UA/", 2: "urn:x", 3: "urn:y"}

	var calls, lastTotal int
	e := NewExporter(f, WithValues(), WithProgress(func(done, total int) {
		calls = done
		lastTotal = total
	}))

	selected := Select(inv, Namespaces(2))
	doc, err := e.BuildDocument(context.Background(), selected, inv.Parents(), idx)
	if err != nil {
		t.Fatalf("BuildDocument: %v", err)
	}
	if len(doc.Nodes) != 2 {
		t.Fatalf("document nodes = %d, want 2", len(doc.Nodes))
	}
	// Progress runs over the filtered count, not the full inventory.
	if calls != 2 || lastTotal != 2 {
		t.Errorf("progress = (%d,%d), want (2,2)", calls, lastTotal)
	}
	if doc.Nodes[0].NodeID != "ns=2;s=A" {
		t.Errorf("first node = %s, want ns=2;s=A", doc.Nodes[0].NodeID)
	}
	bNode := doc.Nodes[1]
	if bNode.Value == nil || bNode.Value.Text != "42" {
		t.Errorf("value of B = %+v, want 42", bNode.Value)
	}
	if bNode.ParentNodeID != "ns=2;s=A" {
		t.Errorf("parent of B = %s, want ns=2;s=A", bNode.ParentNodeID)
	}
	if doc.NamespaceUris == nil || len(doc.NamespaceUris.Uri) != 3 {
		t.Errorf("namespace uris = %+v, want 3 entries", doc.NamespaceUris)
	}
}

func TestBuildDocument_DescribeFailureAborts(t *testing.T) {
	inv, f := mixedInventory(t)
	f.failOn = map[session.NodeID]error{
		session.StringID(2, "B"): &session.ConnectivityError{Op: "describe", Err: errors.New("timeout")},
	}

	e := NewExporter(f)
	_, err := e.BuildDocument(context.Background(), Select(inv, AllNamespaces()), inv.Parents(), nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !session.IsConnectivity(err) {
		t.Errorf("error %v does not wrap ConnectivityError", err)
	}
}

func TestWriteFile(t *testing.T) {
	doc := &Document{
		XMLNS: nodeSetNamespace,
		Nodes: []DocumentNode{{NodeID: "i=84", NodeClass: "Object", DisplayName: "Root"}},
	}
	path := filepath.Join(t.TempDir(), "nodes.xml")

	if err := WriteFile(doc, path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	out := string(data)
	for _, want := range []string{"<?xml", "<UANodeSet", `NodeId="i=84"`, "Root"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteFile_BadDirectory(t *testing.T) {
	doc := &Document{XMLNS: nodeSetNamespace}
	err := WriteFile(doc, filepath.Join(t.TempDir(), "missing", "nodes.xml"))
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}
