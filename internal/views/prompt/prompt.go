// Package prompt renders a yes/no question overlay.
package prompt

import (
	"github.com/Breadstickhemmo/42Brat/internal/theme"
	"github.com/charmbracelet/lipgloss"
)

// Model is a yes/no question.
type Model struct {
	Title    string
	Question string
	Danger   bool
}

// View renders the prompt.
func (m Model) View(width int) string {
	border := theme.ColorAccent
	if m.Danger {
		border = theme.ColorDanger
	}
	keys := theme.StyleDimmed.Render("[y] yes  [n] no")
	return theme.StyleOverlay.
		BorderForeground(border).
		Width(min(max(width-4, 30), 60)).
		Render(lipgloss.JoinVertical(lipgloss.Left, theme.StyleHeader.Render(m.Title), "", m.Question, "", keys))
}
