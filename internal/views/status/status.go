package status

import (
	"fmt"
	"strings"

	"github.com/Breadstickhemmo/42Brat/internal/realtime"
	"github.com/Breadstickhemmo/42Brat/internal/theme"
	"github.com/charmbracelet/lipgloss"
)

// Model holds the status bar state.
type Model struct {
	User      string
	Admin     bool
	Channel   realtime.State
	Events    int
	Loading   bool
	Filtering bool
	Search    string
	Width     int
}

// New creates a status bar model.
func New() Model {
	return Model{}
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var userStr string
	switch {
	case m.User == "":
		userStr = theme.StyleDimmed.Render("signed out")
	case m.Admin:
		userStr = theme.StyleHeader.Render(m.User) + lipgloss.NewStyle().Foreground(theme.ColorAccent).Render(" [admin]")
	default:
		userStr = theme.StyleHeader.Render(m.User)
	}

	var connStr string
	switch m.Channel {
	case realtime.Connected:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● Live")
	case realtime.Connecting:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorWarning).Render("◌ Connecting...")
	default:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ Offline")
	}

	counts := fmt.Sprintf("%d events", m.Events)
	if m.Loading {
		counts = "loading..."
	}

	var query []string
	if m.Filtering {
		query = append(query, lipgloss.NewStyle().Foreground(theme.ColorAccent).Render("filters on"))
	}
	if m.Search != "" {
		query = append(query, fmt.Sprintf("search: %q", m.Search))
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := userStr + sep + connStr + sep + counts
	if len(query) > 0 {
		content += sep + strings.Join(query, "  ")
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
