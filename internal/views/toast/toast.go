// Package toast renders the current notification of a queue, sliding in on
// a spring when a new one appears.
package toast

import (
	"math"
	"strings"
	"time"

	"github.com/Breadstickhemmo/42Brat/internal/notify"
	"github.com/Breadstickhemmo/42Brat/internal/theme"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
)

const (
	fps      = 60
	slide    = 24.0
	maxWidth = 48
)

// FrameMsg advances the slide-in animation of one toast.
type FrameMsg struct {
	Queue string
	Key   uint64
}

// Model animates one queue's current notification.
type Model struct {
	queue  string
	spring harmonica.Spring

	n       notify.Notification
	visible bool
	x, vel  float64
}

// New creates a toast bound to the named queue.
func New(queue string) Model {
	return Model{
		queue:  queue,
		spring: harmonica.NewSpring(harmonica.FPS(fps), 8.0, 0.7),
	}
}

// Sync follows the queue's current notification. A new key restarts the
// slide-in.
func (m *Model) Sync(n notify.Notification, ok bool) tea.Cmd {
	if !ok {
		m.visible = false
		return nil
	}
	if m.visible && n.Key == m.n.Key {
		return nil
	}
	m.n = n
	m.visible = true
	m.x, m.vel = slide, 0
	return m.frame()
}

// Update advances the animation.
func (m *Model) Update(msg FrameMsg) tea.Cmd {
	if msg.Queue != m.queue || !m.visible || msg.Key != m.n.Key {
		return nil
	}
	m.x, m.vel = m.spring.Update(m.x, m.vel, 0)
	if math.Abs(m.x) < 0.5 && math.Abs(m.vel) < 0.5 {
		m.x, m.vel = 0, 0
		return nil
	}
	return m.frame()
}

// Settled reports whether the animation has finished.
func (m Model) Settled() bool { return !m.visible || (m.x == 0 && m.vel == 0) }

// Visible reports whether a notification is shown.
func (m Model) Visible() bool { return m.visible }

func (m Model) frame() tea.Cmd {
	q, key := m.queue, m.n.Key
	return tea.Tick(time.Second/fps, func(time.Time) tea.Msg {
		return FrameMsg{Queue: q, Key: key}
	})
}

// View renders the toast, offset by the current slide position.
func (m Model) View(width int) string {
	if !m.visible {
		return ""
	}
	color := theme.NoticeColor(m.n.Kind.String())
	title := lipgloss.NewStyle().Bold(true).Foreground(color).Render(m.n.Title)
	body := m.n.Message
	if m.n.HasEvent {
		body += "\n" + theme.StyleDimmed.Render("[o] open  [x] dismiss")
	}
	box := lipgloss.NewStyle().
		Width(min(maxWidth, max(width-4, 20))).
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Render(title + "\n" + body)

	shift := int(math.Round(m.x))
	if shift <= 0 {
		return box
	}
	pad := strings.Repeat(" ", shift)
	lines := strings.Split(box, "\n")
	for i := range lines {
		lines[i] = pad + lines[i]
	}
	return strings.Join(lines, "\n")
}
