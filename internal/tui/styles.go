package tui

import "github.com/charmbracelet/lipgloss"

// Color constants matching the dark terminal theme
const (
	ColorBlue   = "#58a6ff"
	ColorGreen  = "#3fb950"
	ColorYellow = "#d29922"
	ColorGray   = "#8b949e"
	ColorBright = "#f0f6fc"
)

// Styles holds all lipgloss styles for the progress display
type Styles struct {
	Phase   lipgloss.Style
	Counter lipgloss.Style
	Bar     lipgloss.Style
	BarFill lipgloss.Style
	Done    lipgloss.Style
}

// DefaultStyles creates the default style set
func DefaultStyles() *Styles {
	return &Styles{
		Phase: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorBright)),
		Counter: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorBlue)),
		Bar: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorGray)),
		BarFill: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorGreen)),
		Done: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorGreen)),
	}
}
