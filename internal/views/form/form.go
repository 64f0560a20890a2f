// Package form is a small focusable form built from text inputs and
// option pickers.
package form

import (
	"slices"
	"strings"

	"github.com/Breadstickhemmo/42Brat/internal/client"
	"github.com/Breadstickhemmo/42Brat/internal/theme"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// FieldKind selects how a field is edited.
type FieldKind int

const (
	KindText FieldKind = iota
	KindPassword
	KindChoice
	KindMulti
)

const labelWidth = 16

// Field is one form row.
type Field struct {
	Key   string
	Label string
	Kind  FieldKind

	input textinput.Model

	options    []client.Option
	allowEmpty bool
	choice     int // index into options; -1 is "any"

	picked map[string]bool
	cursor int
}

// Text creates a free-text field.
func Text(key, label, placeholder, value string) *Field {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Prompt = ""
	in.CharLimit = 512
	in.SetValue(value)
	return &Field{Key: key, Label: label, Kind: KindText, input: in}
}

// Password creates a masked text field.
func Password(key, label string) *Field {
	f := Text(key, label, "", "")
	f.Kind = KindPassword
	f.input.EchoMode = textinput.EchoPassword
	f.input.EchoCharacter = '•'
	return f
}

// Choice creates a single-option picker. With allowEmpty the first
// position means "any".
func Choice(key, label string, opts []client.Option, allowEmpty bool, value string) *Field {
	f := &Field{Key: key, Label: label, Kind: KindChoice, options: opts, allowEmpty: allowEmpty, choice: -1}
	for i, o := range opts {
		if o.Value == value {
			f.choice = i
		}
	}
	if f.choice < 0 && !allowEmpty && len(opts) > 0 {
		f.choice = 0
	}
	return f
}

// Multi creates a multi-select picker.
func Multi(key, label string, opts []client.Option, values []string) *Field {
	f := &Field{Key: key, Label: label, Kind: KindMulti, options: opts, picked: make(map[string]bool)}
	for _, v := range values {
		f.picked[v] = true
	}
	return f
}

// Value returns the field's current value. Multi fields return their
// selections joined by commas.
func (f *Field) Value() string {
	switch f.Kind {
	case KindChoice:
		if f.choice < 0 || f.choice >= len(f.options) {
			return ""
		}
		return f.options[f.choice].Value
	case KindMulti:
		return strings.Join(f.Values(), ",")
	}
	return strings.TrimSpace(f.input.Value())
}

// SetValue replaces the text of a text or password field.
func (f *Field) SetValue(v string) {
	f.input.SetValue(v)
}

// Values returns the selections of a multi field in option order.
func (f *Field) Values() []string {
	var out []string
	for _, o := range f.options {
		if f.picked[o.Value] {
			out = append(out, o.Value)
		}
	}
	return out
}

func (f *Field) cycle(delta int) {
	n := len(f.options)
	if n == 0 {
		return
	}
	lo := 0
	if f.allowEmpty {
		lo = -1
	}
	span := n - lo
	f.choice = ((f.choice-lo+delta)%span+span)%span + lo
}

func (f *Field) view(focused bool) string {
	switch f.Kind {
	case KindChoice:
		val := "any"
		if f.choice >= 0 && f.choice < len(f.options) {
			val = f.options[f.choice].Label
		}
		if focused {
			return "‹ " + theme.StyleSelected.Render(val) + " ›"
		}
		return val
	case KindMulti:
		parts := make([]string, len(f.options))
		for i, o := range f.options {
			box := "[ ]"
			if f.picked[o.Value] {
				box = "[x]"
			}
			item := box + " " + o.Label
			if focused && i == f.cursor {
				item = theme.StyleSelected.Render(item)
			}
			parts[i] = item
		}
		return strings.Join(parts, "  ")
	}
	return f.input.View()
}

// Model is a vertical form with one focused field.
type Model struct {
	Title  string
	Fields []*Field
	Err    string
	Hint   string
	focus  int
}

// New creates a form focused on its first field.
func New(title string, fields ...*Field) Model {
	m := Model{Title: title, Fields: fields}
	m.Focus(0)
	return m
}

// Focus moves focus to field i.
func (m *Model) Focus(i int) {
	if len(m.Fields) == 0 {
		return
	}
	i = ((i % len(m.Fields)) + len(m.Fields)) % len(m.Fields)
	for j, f := range m.Fields {
		if f.Kind != KindText && f.Kind != KindPassword {
			continue
		}
		if j == i {
			f.input.Focus()
		} else {
			f.input.Blur()
		}
	}
	m.focus = i
}

// Focused returns the index of the focused field.
func (m Model) Focused() int { return m.focus }

// Field returns the field with the given key.
func (m Model) Field(key string) *Field {
	i := slices.IndexFunc(m.Fields, func(f *Field) bool { return f.Key == key })
	if i < 0 {
		return nil
	}
	return m.Fields[i]
}

// Value returns the value of the field with the given key.
func (m Model) Value(key string) string {
	if f := m.Field(key); f != nil {
		return f.Value()
	}
	return ""
}

// Values returns the selections of the multi field with the given key.
func (m Model) Values(key string) []string {
	if f := m.Field(key); f != nil {
		return f.Values()
	}
	return nil
}

// SetError shows msg under the form.
func (m *Model) SetError(msg string) { m.Err = msg }

// Update handles navigation and editing keys. Submission and cancellation
// are left to the caller.
func (m *Model) Update(msg tea.KeyMsg) tea.Cmd {
	if len(m.Fields) == 0 {
		return nil
	}
	f := m.Fields[m.focus]
	switch msg.String() {
	case "tab", "down":
		m.Focus(m.focus + 1)
		return nil
	case "shift+tab", "up":
		m.Focus(m.focus - 1)
		return nil
	}

	switch f.Kind {
	case KindChoice:
		switch msg.String() {
		case "left", "h":
			f.cycle(-1)
		case "right", "l", " ":
			f.cycle(1)
		}
		return nil
	case KindMulti:
		switch msg.String() {
		case "left", "h":
			if f.cursor > 0 {
				f.cursor--
			}
		case "right", "l":
			if f.cursor < len(f.options)-1 {
				f.cursor++
			}
		case " ", "x":
			if len(f.options) > 0 {
				v := f.options[f.cursor].Value
				f.picked[v] = !f.picked[v]
			}
		}
		return nil
	}

	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return cmd
}

// View renders the form.
func (m Model) View(width int) string {
	if width < 40 {
		width = 40
	}
	lines := []string{theme.StyleHeader.Render(m.Title), ""}
	label := lipgloss.NewStyle().Foreground(theme.ColorDimmed).Width(labelWidth)
	for i, f := range m.Fields {
		prefix := "  "
		if i == m.focus {
			prefix = lipgloss.NewStyle().Foreground(theme.ColorAccent).Render("> ")
		}
		lines = append(lines, prefix+label.Render(f.Label)+f.view(i == m.focus))
	}
	if m.Err != "" {
		lines = append(lines, "", theme.StyleError.Render(m.Err))
	}
	hint := m.Hint
	if hint == "" {
		hint = "tab: next field  ←/→: choose  space: toggle  enter: submit  esc: cancel"
	}
	lines = append(lines, "", theme.StyleDimmed.Render(hint))
	return theme.StyleOverlay.Width(width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
