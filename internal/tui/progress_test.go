package tui

import (
	"strings"
	"testing"
)

func TestModel_OpenEndedView(t *testing.T) {
	m := newModel()
	next, _ := m.Update(phaseMsg{name: "discovering nodes"})
	next, _ = next.Update(countMsg{done: 1234})

	view := next.View()
	if !strings.Contains(view, "discovering nodes") {
		t.Errorf("view missing phase name: %q", view)
	}
	if !strings.Contains(view, "1234") {
		t.Errorf("view missing count: %q", view)
	}
	if strings.Contains(view, "/") {
		t.Errorf("open-ended view must not show a total: %q", view)
	}
}

func TestModel_BoundedView(t *testing.T) {
	m := newModel()
	next, _ := m.Update(phaseMsg{name: "reading node classes", total: 100})
	next, _ = next.Update(countMsg{done: 40})

	view := next.View()
	if !strings.Contains(view, "40/100") {
		t.Errorf("view missing bounded counter: %q", view)
	}
}

func TestModel_PhaseResetsCount(t *testing.T) {
	m := newModel()
	next, _ := m.Update(phaseMsg{name: "discovering nodes"})
	next, _ = next.Update(countMsg{done: 500})
	next, _ = next.Update(phaseMsg{name: "exporting", total: 10})

	view := next.View()
	if !strings.Contains(view, "0/10") {
		t.Errorf("phase switch did not reset count: %q", view)
	}
}

func TestModel_EmptyBeforeFirstPhase(t *testing.T) {
	if view := newModel().View(); view != "" {
		t.Errorf("expected empty view, got %q", view)
	}
}
