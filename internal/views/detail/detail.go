// Package detail renders the event detail overlay.
package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/Breadstickhemmo/42Brat/internal/client"
	"github.com/Breadstickhemmo/42Brat/internal/theme"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const (
	panelWidth = 72
	labelWidth = 14
)

var (
	stylePanel = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.ColorBorder).
			Padding(0, 1)

	styleLabel = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed).
			Width(labelWidth)

	styleValue = lipgloss.NewStyle().
			Foreground(theme.ColorBright)

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorBright)

	styleFooter = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed)

	styleSectionHeader = lipgloss.NewStyle().
				Bold(true).
				Foreground(theme.ColorDimmed)
)

// Model holds the state for the detail overlay.
type Model struct {
	Event   client.Event
	CanEdit bool
	Stale   bool

	catalog     client.Catalog
	description string
}

// New creates a detail model for e. The description is rendered as
// markdown once, here.
func New(e client.Event, cat client.Catalog, canEdit bool) Model {
	return Model{
		Event:       e,
		CanEdit:     canEdit,
		catalog:     cat,
		description: renderMarkdown(e.Description, panelWidth-4),
	}
}

// ID returns the event shown.
func (m Model) ID() int { return m.Event.ID }

// View renders the detail panel.
func (m Model) View() string {
	return stylePanel.Width(panelWidth).Render(m.renderInner())
}

func (m Model) renderInner() string {
	e := m.Event
	var b strings.Builder

	glyph := lipgloss.NewStyle().Foreground(theme.EventTypeColor(e.Type)).Render(theme.TypeGlyph(e.Type))
	b.WriteString(glyph + " " + styleTitle.Render(e.Title) + "\n")
	b.WriteString(strings.Repeat("─", panelWidth-4) + "\n")

	writeRow(&b, "When", formatRange(e))
	writeRow(&b, "Type", lipgloss.NewStyle().Foreground(theme.EventTypeColor(e.Type)).
		Render(client.Label(m.catalog.Types, e.Type)))
	where := client.Label(m.catalog.Locations, e.Location)
	if e.LocationDetails != "" {
		where += ", " + e.LocationDetails
	}
	writeRow(&b, "Where", where)
	if len(e.Roles) > 0 {
		roles := make([]string, len(e.Roles))
		for i, r := range e.Roles {
			roles[i] = client.Label(m.catalog.Roles, r)
		}
		writeRow(&b, "Roles", strings.Join(roles, ", "))
	}

	links := []struct{ label, url string }{
		{"Participant", e.RegistrationLinkParticipant},
		{"Volunteer", e.RegistrationLinkVolunteer},
		{"Organizer", e.RegistrationLinkOrganizer},
	}
	var linkRows []string
	for _, l := range links {
		if l.url != "" {
			linkRows = append(linkRows, styleLabel.Render(l.label+":")+styleValue.Render(truncate(l.url, panelWidth-labelWidth-6)))
		}
	}
	if len(linkRows) > 0 {
		b.WriteString("\n" + styleSectionHeader.Render("Registration") + "\n")
		b.WriteString(strings.Join(linkRows, "\n") + "\n")
	}

	if m.description != "" {
		b.WriteString("\n" + styleSectionHeader.Render("About") + "\n")
		b.WriteString(m.description + "\n")
	}

	if m.Stale {
		b.WriteString("\n" + theme.StyleDimmed.Render("(could not refresh, showing cached copy)") + "\n")
	}

	b.WriteString("\n")
	footer := "[esc] close"
	if m.CanEdit {
		footer = "[e] edit  [d] delete  [esc] close"
	}
	b.WriteString(styleFooter.Render(footer))
	return b.String()
}

func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}

func writeRow(b *strings.Builder, label, value string) {
	b.WriteString(styleLabel.Render(label+":") + styleValue.Render(value) + "\n")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

// formatRange renders the event's start and optional end. An end on the
// same day shows only its clock time.
func formatRange(e client.Event) string {
	start := e.Start.Time
	out := start.Format("Mon 02 Jan 2006 15:04")
	if e.End == nil || e.End.IsZero() {
		return out
	}
	end := e.End.Time
	if sameDay(start, end) {
		return out + " – " + end.Format("15:04")
	}
	return out + " – " + end.Format("Mon 02 Jan 2006 15:04")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// FormatDuration renders an event length compactly.
func FormatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return ""
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
