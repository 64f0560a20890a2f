// Package theme provides the Lip Gloss color palette and reusable styles
// for the campus events TUI. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Event type colors.
var (
	ColorScience      = lipgloss.Color("#3b82f6")
	ColorEducation    = lipgloss.Color("#06b6d4")
	ColorCulture      = lipgloss.Color("#a855f7")
	ColorSport        = lipgloss.Color("#22c55e")
	ColorVolunteering = lipgloss.Color("#f59e0b")
	ColorCareer       = lipgloss.Color("#10b981")
	ColorDefault      = lipgloss.Color("#9ca3af")
)

// Notification colors.
var (
	ColorPush    = lipgloss.Color("#7c3aed")
	ColorInfo    = lipgloss.Color("#2563eb")
	ColorSuccess = lipgloss.Color("#16a34a")
	ColorError   = lipgloss.Color("#dc2626")
)

// Agenda group colors.
var (
	ColorToday    = lipgloss.Color("#f59e0b")
	ColorUpcoming = lipgloss.Color("#22c55e")
	ColorPast     = lipgloss.Color("#4b5563")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorBg      = lipgloss.Color("#111827")
	ColorAccent  = lipgloss.Color("#a855f7")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// EventTypeColor returns the color for an event type value.
func EventTypeColor(typ string) lipgloss.Color {
	switch typ {
	case "science":
		return ColorScience
	case "education":
		return ColorEducation
	case "culture":
		return ColorCulture
	case "sport":
		return ColorSport
	case "volunteering":
		return ColorVolunteering
	case "career":
		return ColorCareer
	default:
		return ColorDefault
	}
}

// NoticeColor returns the color for a notification kind name.
func NoticeColor(kind string) lipgloss.Color {
	switch kind {
	case "push":
		return ColorPush
	case "success":
		return ColorSuccess
	case "error":
		return ColorError
	case "info":
		return ColorInfo
	default:
		return ColorDefault
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorDanger)

	StyleOverlay = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Padding(1, 2)
)

// TypeGlyph returns a glyph for an event type.
func TypeGlyph(typ string) string {
	switch typ {
	case "science":
		return "⚗"
	case "education":
		return "✎"
	case "culture":
		return "♪"
	case "sport":
		return "⚑"
	case "volunteering":
		return "♥"
	case "career":
		return "◆"
	default:
		return "·"
	}
}
