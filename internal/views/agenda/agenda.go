// Package agenda renders the event list grouped into Today, Upcoming and
// Past sections, with a movable selection.
package agenda

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Breadstickhemmo/42Brat/internal/client"
	"github.com/Breadstickhemmo/42Brat/internal/theme"
	"github.com/charmbracelet/lipgloss"
)

const (
	colWhen  = 18
	colType  = 14
	colWhere = 18
)

type row struct {
	group Group
	event client.Event
}

// Model holds the agenda state.
type Model struct {
	Width   int
	Height  int
	Loading bool
	Err     string

	catalog  client.Catalog
	now      func() time.Time
	rows     []row
	selected int
}

// New creates an empty agenda.
func New(cat client.Catalog) Model {
	return Model{catalog: cat, now: time.Now}
}

// SetClock overrides the time source used for grouping.
func (m *Model) SetClock(now func() time.Time) { m.now = now }

// SetEvents replaces the listed events. The list keeps its own ordering:
// Today and Upcoming ascending by start, Past most recent first. The
// selection follows the previously selected event when it survives.
func (m *Model) SetEvents(events []client.Event) {
	prev, hadPrev := m.Selected()
	now := m.now()

	m.rows = make([]row, len(events))
	for i, e := range events {
		m.rows[i] = row{group: Classify(e, now), event: e}
	}
	sort.SliceStable(m.rows, func(i, j int) bool {
		a, b := m.rows[i], m.rows[j]
		if a.group != b.group {
			return a.group < b.group
		}
		if a.group == GroupPast {
			return a.event.Start.After(b.event.Start.Time)
		}
		return a.event.Start.Before(b.event.Start.Time)
	})

	m.selected = 0
	if hadPrev {
		for i, r := range m.rows {
			if r.event.ID == prev.ID {
				m.selected = i
				break
			}
		}
	}
}

// Len returns the number of listed events.
func (m Model) Len() int { return len(m.rows) }

// Move shifts the selection by delta, clamped to the list.
func (m *Model) Move(delta int) {
	if len(m.rows) == 0 {
		m.selected = 0
		return
	}
	m.selected = max(0, min(m.selected+delta, len(m.rows)-1))
}

// Select moves the selection to the event with the given ID.
func (m *Model) Select(id int) bool {
	for i, r := range m.rows {
		if r.event.ID == id {
			m.selected = i
			return true
		}
	}
	return false
}

// Selected returns the selected event.
func (m Model) Selected() (client.Event, bool) {
	if m.selected < 0 || m.selected >= len(m.rows) {
		return client.Event{}, false
	}
	return m.rows[m.selected].event, true
}

// Counts returns the number of events per group.
func (m Model) Counts() (today, upcoming, past int) {
	for _, r := range m.rows {
		switch r.group {
		case GroupToday:
			today++
		case GroupUpcoming:
			upcoming++
		case GroupPast:
			past++
		}
	}
	return
}

// View renders the summary row and the grouped table.
func (m Model) View() string {
	width := max(m.Width, 40)
	return lipgloss.JoinVertical(lipgloss.Left, m.renderSummary(width), m.renderTable(width))
}

func (m Model) renderSummary(width int) string {
	today, upcoming, past := m.Counts()
	stat := lipgloss.NewStyle().Padding(0, 1)
	stats := []string{
		stat.Foreground(theme.ColorToday).Render(fmt.Sprintf("Today: %d", today)),
		stat.Foreground(theme.ColorUpcoming).Render(fmt.Sprintf("Upcoming: %d", upcoming)),
		stat.Foreground(theme.ColorDimmed).Render(fmt.Sprintf("Past: %d", past)),
	}
	content := strings.Join(stats, lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | "))
	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}

func (m Model) renderTable(width int) string {
	switch {
	case m.Loading && len(m.rows) == 0:
		return theme.StyleDimmed.Render("  Loading events...")
	case m.Err != "":
		return theme.StyleError.Render("  " + m.Err)
	case len(m.rows) == 0:
		return theme.StyleDimmed.Render("  No events match")
	}

	dim := lipgloss.NewStyle().Foreground(theme.ColorDimmed)
	colTitle := max(width-colWhen-colType-colWhere-8, 12)

	var lines []string
	first, last := m.window()
	group := Group(-1)
	for i := first; i < last; i++ {
		r := m.rows[i]
		if r.group != group {
			group = r.group
			lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(groupColor(group)).
				Render("  "+GroupName(group)))
		}

		cursor := "  "
		titleStyle := lipgloss.NewStyle().Width(colTitle)
		if i == m.selected {
			cursor = lipgloss.NewStyle().Foreground(theme.ColorAccent).Render("▸ ")
			titleStyle = titleStyle.Inherit(theme.StyleSelected)
		}
		if r.group == GroupPast {
			titleStyle = titleStyle.Foreground(theme.ColorPast)
		}

		e := r.event
		title := e.Title
		if len(title) > colTitle-1 {
			title = title[:colTitle-2] + "…"
		}
		when := dim.Width(colWhen).Render(e.Start.Format("Mon 02 Jan 15:04"))
		typ := lipgloss.NewStyle().Foreground(theme.EventTypeColor(e.Type)).Width(colType).
			Render(theme.TypeGlyph(e.Type) + " " + client.Label(m.catalog.Types, e.Type))
		where := dim.Width(colWhere).Render(client.Label(m.catalog.Locations, e.Location))

		lines = append(lines, cursor+when+" "+titleStyle.Render(title)+" "+typ+" "+where)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// window returns the row range that fits the height, keeping the selection
// visible.
func (m Model) window() (int, int) {
	visible := m.Height - 4
	if visible <= 0 || visible >= len(m.rows) {
		return 0, len(m.rows)
	}
	first := max(0, m.selected-visible/2)
	last := min(len(m.rows), first+visible)
	return max(0, last-visible), last
}

func groupColor(g Group) lipgloss.Color {
	switch g {
	case GroupToday:
		return theme.ColorToday
	case GroupUpcoming:
		return theme.ColorUpcoming
	default:
		return theme.ColorPast
	}
}
