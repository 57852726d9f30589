// Package tui renders pipeline progress: an open-ended counter while the
// address space is being discovered (the total is unknown until the walk
// finishes) and a bounded bar for the statistics and export passes.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

const barWidth = 30

type phaseMsg struct {
	name string
	// total is 0 for open-ended phases.
	total int
}

type countMsg struct{ done int }

type stopMsg struct{}

type model struct {
	styles *Styles
	phase  string
	done   int
	total  int
}

func newModel() model {
	return model{styles: DefaultStyles()}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case phaseMsg:
		m.phase = msg.name
		m.total = msg.total
		m.done = 0
	case countMsg:
		m.done = msg.done
	case stopMsg:
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) View() string {
	if m.phase == "" {
		return ""
	}
	if m.total <= 0 {
		// Open-ended: count up with no upper bound.
		return fmt.Sprintf("%s %s\n",
			m.styles.Phase.Render(m.phase),
			m.styles.Counter.Render(fmt.Sprintf("… %d", m.done)))
	}

	filled := m.done * barWidth / m.total
	if filled > barWidth {
		filled = barWidth
	}
	bar := m.styles.BarFill.Render(strings.Repeat("█", filled)) +
		m.styles.Bar.Render(strings.Repeat("░", barWidth-filled))
	return fmt.Sprintf("%s %s %s\n",
		m.styles.Phase.Render(m.phase),
		bar,
		m.styles.Counter.Render(fmt.Sprintf("%d/%d", m.done, m.total)))
}

// Progress drives the display from the pipeline's progress callbacks. Safe
// to call from the traversal goroutine; bubbletea serializes the messages.
type Progress struct {
	prog *tea.Program
}

// Start begins rendering. Callers must Stop before printing anything else
// to the terminal.
func Start() *Progress {
	p := tea.NewProgram(newModel(), tea.WithInput(nil))
	go func() {
		_, _ = p.Run()
	}()
	return &Progress{prog: p}
}

// Phase switches the display to a new phase. total of 0 means open-ended.
func (p *Progress) Phase(name string, total int) {
	p.prog.Send(phaseMsg{name: name, total: total})
}

// Count updates the processed count for the current phase.
func (p *Progress) Count(done int) {
	p.prog.Send(countMsg{done: done})
}

// Stop tears the display down and waits for the render loop to exit.
func (p *Progress) Stop() {
	p.prog.Send(stopMsg{})
	p.prog.Wait()
}
