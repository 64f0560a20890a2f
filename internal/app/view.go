package app

import (
	"github.com/Breadstickhemmo/42Brat/internal/theme"
	"github.com/charmbracelet/lipgloss"
)

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var body string
	switch {
	case m.session.Loading():
		body = m.center(m.spinner.View() + " Restoring session...")
	case m.overlay != OverlayNone:
		body = m.center(m.renderOverlay())
	case !m.session.Authenticated():
		body = m.center(m.renderWelcome())
	default:
		body = m.renderList()
	}

	sections := []string{m.statusBar.View(), body}
	if toasts := m.renderToasts(); toasts != "" {
		sections = append(sections, toasts)
	}
	sections = append(sections, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderOverlay() string {
	switch m.overlay {
	case OverlayDetail:
		return m.detail.View()
	case OverlayLogin, OverlayRegister, OverlayFilters, OverlayEventForm:
		return m.form.View(min(m.width, 80))
	case OverlayConfirmDelete, OverlayPermission:
		return m.confirm.View(m.width)
	case OverlayActivity:
		return m.activity.View(m.width, m.height-6)
	}
	return ""
}

func (m Model) renderWelcome() string {
	lines := []string{
		theme.StyleHeader.Render("Campus events"),
		"",
		"Browse, filter and follow what is happening on campus.",
		"",
		theme.StyleDimmed.Render("[l] log in   [R] register   [q] quit"),
	}
	return theme.StyleOverlay.Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
}

func (m Model) renderList() string {
	var parts []string
	if m.searching || m.search.Value() != "" {
		parts = append(parts, " "+m.search.View())
	}
	if m.events.Loading() {
		parts = append(parts, theme.StyleDimmed.Render(" "+m.spinner.View()+" loading"))
	}
	parts = append(parts, m.agenda.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderToasts() string {
	var toasts []string
	if v := m.noticeToast.View(m.width); v != "" {
		toasts = append(toasts, v)
	}
	if v := m.pushToast.View(m.width); v != "" {
		toasts = append(toasts, v)
	}
	if len(toasts) == 0 {
		return ""
	}
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Right, lipgloss.JoinVertical(lipgloss.Right, toasts...))
}

func (m Model) center(s string) string {
	h := max(m.height-6, lipgloss.Height(s))
	return lipgloss.Place(m.width, h, lipgloss.Center, lipgloss.Center, s)
}
