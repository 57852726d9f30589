package stats

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/uaforge/uaexport/internal/browse"
	"github.com/uaforge/uaexport/internal/session"
)

type fakeSession struct {
	root     session.NodeID
	children map[session.NodeID][]session.NodeID
	classes  map[session.NodeID]session.NodeClass
	failOn   map[session.NodeID]error
}

func (f *fakeSession) Root() session.NodeID { return f.root }

func (f *fakeSession) Children(_ context.Context, id session.NodeID) ([]session.NodeID, error) {
	return f.children[id], nil
}

func (f *fakeSession) NodeClass(_ context.Context, id session.NodeID) (session.NodeClass, error) {
	if err, ok := f.failOn[id]; ok {
		return session.ClassUnspecified, err
	}
	if cls, ok := f.classes[id]; ok {
		return cls, nil
	}
	return session.ClassObject, nil
}

func (f *fakeSession) Describe(_ context.Context, id session.NodeID, _ bool) (session.NodeDetail, error) {
	return session.NodeDetail{ID: id}, nil
}

func (f *fakeSession) NamespaceArray(context.Context) ([]string, error) { return nil, nil }

func (f *fakeSession) NamespaceOrdinal(context.Context, string) (uint16, error) { return 0, nil }

func (f *fakeSession) Close(context.Context) error { return nil }

// flatSpace builds a root plus the given children and discovers it.
func flatSpace(t *testing.T, f *fakeSession, kids ...session.NodeID) *browse.Inventory {
	t.Helper()
	f.children = map[session.NodeID][]session.NodeID{f.root: kids}
	inv, err := browse.NewCrawler(f).Discover(context.Background(), f.root)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	return inv
}

func TestSummarize_NilIndex(t *testing.T) {
	f := &fakeSession{root: session.NumericID(0, 84)}
	inv := flatSpace(t, f)

	_, err := Summarize(context.Background(), f, inv, nil)
	if !errors.Is(err, session.ErrNamespaceNotResolved) {
		t.Errorf("err = %v, want ErrNamespaceNotResolved", err)
	}
}

func TestSummarize_GroupsByNamespaceAndClass(t *testing.T) {
	root := session.NumericID(0, 84)
	v1 := session.StringID(2, "V1")
	v2 := session.StringID(2, "V2")
	o1 := session.StringID(2, "O1")
	m1 := session.StringID(3, "M1")
	f := &fakeSession{
		root: root,
		classes: map[session.NodeID]session.NodeClass{
			root: session.ClassObject,
			v1:   session.ClassVariable,
			v2:   session.ClassVariable,
			o1:   session.ClassObject,
			m1:   session.ClassMethod,
		},
	}
	inv := flatSpace(t, f, v1, v2, o1, m1)
	idx := session.NamespaceIndex{
		0: "http://opcfoundation.org/UA/",
		2: "urn:factory:line1",
		3: "urn:factory:line2",
	}

	rep, err := Summarize(context.Background(), f, inv, idx)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if rep.Total != 5 {
		t.Errorf("Total = %d, want 5", rep.Total)
	}
	if len(rep.Namespaces) != 3 {
		t.Fatalf("namespaces = %d, want 3", len(rep.Namespaces))
	}
	// Ascending ordinal order.
	for i, want := range []uint16{0, 2, 3} {
		if rep.Namespaces[i].Ordinal != want {
			t.Errorf("namespace[%d].Ordinal = %d, want %d", i, rep.Namespaces[i].Ordinal, want)
		}
	}
	// Within NS2, labels in first-encounter order: Variable before Object
	// because V1 is discovered before O1.
	ns2 := rep.Namespaces[1]
	if ns2.URI != "urn:factory:line1" {
		t.Errorf("NS2 URI = %q", ns2.URI)
	}
	if len(ns2.Classes) != 2 || ns2.Classes[0].Label != "Variable" || ns2.Classes[0].Count != 2 ||
		ns2.Classes[1].Label != "Object" || ns2.Classes[1].Count != 1 {
		t.Errorf("NS2 classes = %+v", ns2.Classes)
	}
}

func TestSummarize_PerNodeFailureTolerated(t *testing.T) {
	root := session.NumericID(0, 84)
	kids := make([]session.NodeID, 0, 9)
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "bad"} {
		kids = append(kids, session.StringID(2, name))
	}
	f := &fakeSession{
		root:   root,
		failOn: map[session.NodeID]error{session.StringID(2, "bad"): errors.New("BadNodeIdUnknown")},
	}
	inv := flatSpace(t, f, kids...)
	idx := session.NamespaceIndex{0: "http://opcfoundation.org/UA/", 2: "urn:x"}

	rep, err := Summarize(context.Background(), f, inv, idx)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if rep.Total != 10 {
		t.Errorf("Total = %d, want 10", rep.Total)
	}
	if rep.Failed != 1 {
		t.Errorf("Failed = %d, want 1", rep.Failed)
	}
	counted := 0
	for _, ns := range rep.Namespaces {
		for _, cc := range ns.Classes {
			counted += cc.Count
		}
	}
	if counted != 9 {
		t.Errorf("per-class sum = %d, want 9", counted)
	}
}

func TestSummarize_Progress(t *testing.T) {
	root := session.NumericID(0, 84)
	f := &fakeSession{root: root}
	inv := flatSpace(t, f, session.StringID(2, "a"), session.StringID(2, "b"))
	idx := session.NamespaceIndex{0: "u0", 2: "u2"}

	var dones []int
	var lastTotal int
	_, err := Summarize(context.Background(), f, inv, idx, WithProgress(func(done, total int) {
		dones = append(dones, done)
		lastTotal = total
	}))
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(dones) != 3 || dones[2] != 3 || lastTotal != 3 {
		t.Errorf("progress dones = %v (total %d), want [1 2 3] total 3", dones, lastTotal)
	}
}

func TestReport_Render(t *testing.T) {
	rep := &Report{
		Namespaces: []NamespaceStats{
			{Ordinal: 0, URI: "http://opcfoundation.org/UA/", Classes: []ClassCount{{Label: "Object", Count: 1}}},
			{Ordinal: 2, URI: "urn:x", Classes: []ClassCount{{Label: "Variable", Count: 4}, {Label: "Method", Count: 1}}},
		},
		Total:  7,
		Failed: 1,
	}
	var buf bytes.Buffer
	if err := rep.Render(&buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"NS0 (http://opcfoundation.org/UA/)", "NS2 (urn:x)", "Variable:\t4", "TOTAL:\t7", "unreadable:\t1"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q in:\n%s", want, out)
		}
	}
}
