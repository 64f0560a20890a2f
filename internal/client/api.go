package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// API wraps the REST endpoints of the events backend.
type API struct {
	f *Fetcher
}

// NewAPI creates an API on top of f.
func NewAPI(f *Fetcher) *API {
	return &API{f: f}
}

// Fetcher returns the underlying fetcher.
func (a *API) Fetcher() *Fetcher { return a.f }

// Me returns the identity the current credential belongs to.
func (a *API) Me(ctx context.Context) (*User, error) {
	var resp meResponse
	if err := a.f.Do(ctx, http.MethodGet, "/api/me", nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, errors.New("/api/me: response carried no user")
	}
	return resp.User, nil
}

// Login exchanges credentials for an access token.
func (a *API) Login(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	var resp LoginResponse
	if err := a.f.DoPublic(ctx, http.MethodPost, "/api/login", creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and returns the server's confirmation text.
func (a *API) Register(ctx context.Context, reg Registration) (string, error) {
	var resp messageResponse
	if err := a.f.DoPublic(ctx, http.MethodPost, "/api/register", reg, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ListEvents fetches the events matching params.
func (a *API) ListEvents(ctx context.Context, params Encoder) ([]Event, error) {
	var events []Event
	if err := a.f.Do(ctx, http.MethodGet, "/api/events", params, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetEvent fetches a single event.
func (a *API) GetEvent(ctx context.Context, id int) (*Event, error) {
	var ev Event
	if err := a.f.Do(ctx, http.MethodGet, eventPath(id), nil, nil, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// CreateEvent creates an event. Admin only.
func (a *API) CreateEvent(ctx context.Context, in EventInput) (*Event, error) {
	var ev Event
	if err := a.f.Do(ctx, http.MethodPost, "/api/events", nil, in, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// UpdateEvent replaces the fields of event id. Admin only.
func (a *API) UpdateEvent(ctx context.Context, id int, in EventInput) (*Event, error) {
	var ev Event
	if err := a.f.Do(ctx, http.MethodPut, eventPath(id), nil, in, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// DeleteEvent removes event id. Admin only.
func (a *API) DeleteEvent(ctx context.Context, id int) error {
	return a.f.Do(ctx, http.MethodDelete, eventPath(id), nil, nil, nil)
}

func eventPath(id int) string {
	return fmt.Sprintf("/api/events/%d", id)
}
