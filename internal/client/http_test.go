package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Breadstickhemmo/42Brat/internal/client"
	"github.com/Breadstickhemmo/42Brat/internal/fakeapi"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newAPI(t *testing.T, srv *fakeapi.Server, token *string, onUnauthorized func(string)) *client.API {
	t.Helper()
	f := client.NewFetcher(srv.URL(),
		client.TokenFunc(func() string { return *token }),
		onUnauthorized,
		client.WithTimeout(2*time.Second),
		client.WithLogger(zaptest.NewLogger(t)))
	return client.NewAPI(f)
}

func TestFetcherAttachesBearer(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	u := srv.AddUser("alice", "pw", false)
	tok := srv.IssueToken(u.ID)

	api := newAPI(t, srv, &tok, nil)
	got, err := api.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	require.Equal(t, "Bearer "+tok, reqs[0].Auth)
}

func TestFetcherUnauthorizedRunsTeardownFirst(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	u := srv.AddUser("alice", "pw", true)
	tok := srv.IssueToken(u.ID)
	srv.Revoke(tok)

	revoked := tok
	var calls atomic.Int32
	var rejected string
	api := newAPI(t, srv, &tok, func(sent string) {
		calls.Add(1)
		rejected = sent
		tok = ""
	})

	err := api.DeleteEvent(context.Background(), 7)
	if !client.IsUnauthorized(err) {
		t.Fatalf("DeleteEvent() error = %v, want ErrUnauthorized", err)
	}
	if calls.Load() != 1 {
		t.Errorf("teardown ran %d times, want 1", calls.Load())
	}
	if tok != "" {
		t.Errorf("credential still set after teardown: %q", tok)
	}
	if rejected != revoked {
		t.Errorf("teardown got credential %q, want %q", rejected, revoked)
	}
}

func TestFetcherErrorClassification(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	u := srv.AddUser("admin", "pw", true)
	tok := srv.IssueToken(u.ID)

	tests := []struct {
		name       string
		status     int
		message    string
		wantStatus int
	}{
		{"validation", http.StatusBadRequest, "Required fields missing: title", http.StatusBadRequest},
		{"forbidden", http.StatusForbidden, "Administrator rights required", http.StatusForbidden},
		{"server", http.StatusInternalServerError, "boom", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv.Fail(http.MethodGet, "/api/events", tt.status, tt.message)
			var teardown bool
			api := newAPI(t, srv, &tok, func(string) { teardown = true })

			_, err := api.ListEvents(context.Background(), nil)
			var re *client.RequestError
			if !errors.As(err, &re) {
				t.Fatalf("error = %T %v, want *RequestError", err, err)
			}
			if re.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", re.Status, tt.wantStatus)
			}
			if client.Message(err) != tt.message {
				t.Errorf("Message() = %q, want %q", client.Message(err), tt.message)
			}
			if teardown {
				t.Error("teardown ran for a non-401 failure")
			}
		})
	}
}

func TestFetcherNetworkFailure(t *testing.T) {
	srv := fakeapi.New()
	base := srv.URL()
	srv.Close()

	tok := "x"
	f := client.NewFetcher(base, client.TokenFunc(func() string { return tok }), func(string) {
		t.Error("teardown ran for a transport failure")
	})
	err := f.Do(context.Background(), http.MethodGet, "/api/me", nil, nil, nil)
	if !client.IsNetwork(err) {
		t.Fatalf("error = %v, want NetworkError", err)
	}
	if client.IsUnauthorized(err) {
		t.Error("transport failure classified as unauthorized")
	}
}

func TestFetcherCancelledContext(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	u := srv.AddUser("alice", "pw", false)
	tok := srv.IssueToken(u.ID)
	release := srv.Hold(http.MethodGet, "/api/events")
	defer release()

	api := newAPI(t, srv, &tok, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := api.ListEvents(ctx, nil)
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled request did not return")
	}
}

func TestPublicLoginRejectionIsValidation(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	srv.AddUser("alice", "pw", false)

	tok := ""
	api := newAPI(t, srv, &tok, func(string) { t.Error("teardown ran for a login rejection") })

	_, err := api.Login(context.Background(), client.Credentials{Username: "alice", Password: "nope"})
	var re *client.RequestError
	require.ErrorAs(t, err, &re)
	require.Equal(t, http.StatusUnauthorized, re.Status)
	require.Equal(t, "Invalid username or password", re.Message)

	resp, err := api.Login(context.Background(), client.Credentials{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotNil(t, resp.User)
	require.Equal(t, "", srv.Requests()[0].Auth)
}

func TestRegister(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	tok := ""
	api := newAPI(t, srv, &tok, nil)

	msg, err := api.Register(context.Background(), client.Registration{Username: "bob", Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, "Registration successful", msg)

	_, err = api.Register(context.Background(), client.Registration{Username: "bob", Password: "pw"})
	require.Equal(t, "User already exists", client.Message(err))
}

func TestEventCRUD(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	u := srv.AddUser("admin", "pw", true)
	tok := srv.IssueToken(u.ID)
	api := newAPI(t, srv, &tok, nil)
	ctx := context.Background()

	in := client.EventInput{
		Title:       "Spring fest",
		Description: "Music and food",
		Start:       "2026-05-01 18:00",
		End:         "2026-05-01 22:00",
		Location:    "main_building",
		Type:        "culture",
		Roles:       []string{"participant", "volunteer"},
	}
	created, err := api.CreateEvent(ctx, in)
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.True(t, created.Start.Equal(time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)), "start = %v", created.Start.Time)

	in.Title = "Spring festival"
	updated, err := api.UpdateEvent(ctx, created.ID, in)
	require.NoError(t, err)
	require.Equal(t, "Spring festival", updated.Title)

	got, err := api.GetEvent(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Spring festival", got.Title)

	events, err := api.ListEvents(ctx, url.Values{"role": {"volunteer"}, "search": {"FEST"}})
	require.NoError(t, err)
	require.Len(t, events, 1)

	require.NoError(t, api.DeleteEvent(ctx, created.ID))
	_, err = api.GetEvent(ctx, created.ID)
	require.Equal(t, "Event not found", client.Message(err))
}

func TestListEventsQueryEncoding(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	u := srv.AddUser("alice", "pw", false)
	tok := srv.IssueToken(u.ID)
	api := newAPI(t, srv, &tok, nil)

	_, err := api.ListEvents(context.Background(), url.Values{"role": {"organizer"}, "search": {"fest"}})
	require.NoError(t, err)
	reqs := srv.Requests()
	require.Equal(t, "role=organizer&search=fest", reqs[len(reqs)-1].RawQuery)
}
