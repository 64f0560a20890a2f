package app

import (
	"context"

	"github.com/Breadstickhemmo/42Brat/internal/client"
	tea "github.com/charmbracelet/bubbletea"
)

// eventSavedMsg reports a create or update.
type eventSavedMsg struct {
	ID    int // 0 for create
	Event *client.Event
	Err   error
}

// eventDeletedMsg reports a delete.
type eventDeletedMsg struct {
	ID  int
	Err error
}

// eventLoadedMsg carries a fresh copy of the event shown in the detail view.
type eventLoadedMsg struct {
	ID    int
	Event *client.Event
	Err   error
}

func saveEvent(ctx context.Context, api *client.API, id int, in client.EventInput) tea.Cmd {
	return func() tea.Msg {
		var (
			e   *client.Event
			err error
		)
		if id == 0 {
			e, err = api.CreateEvent(ctx, in)
		} else {
			e, err = api.UpdateEvent(ctx, id, in)
		}
		return eventSavedMsg{ID: id, Event: e, Err: err}
	}
}

func deleteEvent(ctx context.Context, api *client.API, id int) tea.Cmd {
	return func() tea.Msg {
		return eventDeletedMsg{ID: id, Err: api.DeleteEvent(ctx, id)}
	}
}

func loadEvent(ctx context.Context, api *client.API, id int) tea.Cmd {
	return func() tea.Msg {
		e, err := api.GetEvent(ctx, id)
		return eventLoadedMsg{ID: id, Event: e, Err: err}
	}
}
