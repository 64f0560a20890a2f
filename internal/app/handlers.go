package app

import (
	"fmt"

	"github.com/Breadstickhemmo/42Brat/internal/client"
	"github.com/Breadstickhemmo/42Brat/internal/credstore"
	"github.com/Breadstickhemmo/42Brat/internal/views/activity"
	"github.com/Breadstickhemmo/42Brat/internal/views/prompt"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch m.overlay {
	case OverlayLogin, OverlayRegister, OverlayFilters, OverlayEventForm:
		return m.handleFormKey(msg)
	case OverlayConfirmDelete:
		return m.handleConfirmKey(msg)
	case OverlayPermission:
		return m.handlePermissionKey(msg)
	case OverlayActivity:
		switch {
		case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Activity):
			m.overlay = OverlayNone
		case key.Matches(msg, m.keys.Up):
			m.activity.ScrollUp(1)
		case key.Matches(msg, m.keys.Down):
			m.activity.ScrollDown(1)
		}
		return nil
	case OverlayDetail:
		return m.handleDetailKey(msg)
	}

	if m.session.Loading() {
		if key.Matches(msg, m.keys.Quit) {
			return m.quit()
		}
		return nil
	}
	if !m.session.Authenticated() {
		return m.handleWelcomeKey(msg)
	}
	return m.handleListKey(msg)
}

func (m *Model) handleWelcomeKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Login):
		m.form = loginForm("")
		m.overlay = OverlayLogin
	case key.Matches(msg, m.keys.Register):
		m.form = registerForm()
		m.overlay = OverlayRegister
	case key.Matches(msg, m.keys.Activity):
		m.overlay = OverlayActivity
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil
}

func (m *Model) handleListKey(msg tea.KeyMsg) tea.Cmd {
	admin := m.session.IsAdmin()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Down):
		m.agenda.Move(1)
	case key.Matches(msg, m.keys.Up):
		m.agenda.Move(-1)

	case key.Matches(msg, m.keys.Enter):
		if e, ok := m.agenda.Selected(); ok {
			return m.openDetail(e.ID)
		}

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		return m.search.Focus()

	case key.Matches(msg, m.keys.ClearSearch):
		m.search.Reset()
		return m.query.ClearSearch()

	case key.Matches(msg, m.keys.Filters):
		m.form = filterForm(m.catalog, m.query.Filters())
		m.overlay = OverlayFilters

	case key.Matches(msg, m.keys.ResetFilter):
		return m.query.ResetFilters()

	case key.Matches(msg, m.keys.Refresh):
		return m.query.Refresh()

	case key.Matches(msg, m.keys.Open):
		return m.openNotification()

	case key.Matches(msg, m.keys.Dismiss):
		m.push.Dismiss()

	case key.Matches(msg, m.keys.Reconnect):
		m.activity.Add(activity.KindPush, "reconnect requested")
		return m.channel.Reevaluate(m.session.Authenticated(), m.session.Token())

	case key.Matches(msg, m.keys.Create) && admin:
		m.startEdit(nil, OverlayNone)

	case key.Matches(msg, m.keys.Edit) && admin:
		if e, ok := m.agenda.Selected(); ok {
			m.startEdit(&e, OverlayNone)
		}

	case key.Matches(msg, m.keys.Delete) && admin:
		if e, ok := m.agenda.Selected(); ok {
			m.startDelete(e, OverlayNone)
		}

	case key.Matches(msg, m.keys.Logout):
		m.session.Logout()

	case key.Matches(msg, m.keys.Activity):
		m.overlay = OverlayActivity

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil
}

func (m *Model) handleDetailKey(msg tea.KeyMsg) tea.Cmd {
	admin := m.session.IsAdmin()
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Quit):
		m.overlay = OverlayNone
	case key.Matches(msg, m.keys.Edit) && admin:
		e := m.detail.Event
		m.startEdit(&e, OverlayDetail)
	case key.Matches(msg, m.keys.Delete) && admin:
		m.startDelete(m.detail.Event, OverlayDetail)
	case key.Matches(msg, m.keys.Open):
		return m.openNotification()
	case key.Matches(msg, m.keys.Dismiss):
		m.push.Dismiss()
	}
	return nil
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		return nil
	}
	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != before {
		return tea.Batch(cmd, m.query.SetSearch(v))
	}
	return cmd
}

func (m *Model) handleFormKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		if m.overlay == OverlayEventForm {
			m.overlay = m.returnTo
		} else {
			m.overlay = OverlayNone
		}
		return nil
	case tea.KeyEnter:
		return m.submitForm()
	}
	return m.form.Update(msg)
}

func (m *Model) submitForm() tea.Cmd {
	m.form.SetError("")
	switch m.overlay {
	case OverlayLogin:
		creds, err := credentials(m.form)
		if err != nil {
			m.form.SetError(err.Error())
			return nil
		}
		return m.session.Login(m.ctx, m.api, creds)

	case OverlayRegister:
		creds, err := credentials(m.form)
		if err != nil {
			m.form.SetError(err.Error())
			return nil
		}
		return m.session.Register(m.ctx, m.api, client.Registration(creds))

	case OverlayFilters:
		fs, err := filterSet(m.form)
		if err != nil {
			m.form.SetError(err.Error())
			return nil
		}
		m.overlay = OverlayNone
		return m.query.SetFilters(fs)

	case OverlayEventForm:
		in, err := eventInput(m.form)
		if err != nil {
			m.form.SetError(err.Error())
			return nil
		}
		return saveEvent(m.ctx, m.api, m.editID, in)
	}
	return nil
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Yes):
		m.overlay = m.returnTo
		id := m.deleteID
		m.activity.Addf(activity.KindHTTP, "deleting event %d", id)
		return deleteEvent(m.ctx, m.api, id)
	case key.Matches(msg, m.keys.No):
		m.overlay = m.returnTo
	}
	return nil
}

func (m *Model) handlePermissionKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Yes):
		m.perm.Set(credstore.PermissionGranted)
		m.activity.Add(activity.KindPush, "notifications enabled")
		m.overlay = OverlayNone
	case msg.String() == "n" || msg.String() == "N":
		m.perm.Set(credstore.PermissionDenied)
		m.activity.Add(activity.KindPush, "notifications disabled")
		m.overlay = OverlayNone
	case key.Matches(msg, m.keys.Escape):
		m.overlay = OverlayNone
	}
	return nil
}

// openNotification follows the current push notification to its event
// when that event is listed.
func (m *Model) openNotification() tea.Cmd {
	n, had := m.push.Current()
	id, ok := m.push.Activate(m.events.Contains)
	if !ok {
		if had && n.HasEvent {
			m.activity.Addf(activity.KindPush, "event %d is not in the current list", n.EventID)
		}
		return nil
	}
	return m.openDetail(id)
}

func (m *Model) startEdit(e *client.Event, from Overlay) {
	m.form = eventForm(m.catalog, e)
	m.editID = 0
	if e != nil {
		m.editID = e.ID
	}
	m.returnTo = from
	m.overlay = OverlayEventForm
}

func (m *Model) startDelete(e client.Event, from Overlay) {
	m.deleteID = e.ID
	m.confirm = prompt.Model{
		Title:    "Delete event",
		Question: fmt.Sprintf("Delete \"%s\"? This cannot be undone.", e.Title),
		Danger:   true,
	}
	m.returnTo = from
	m.overlay = OverlayConfirmDelete
}
