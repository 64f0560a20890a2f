package query

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/Breadstickhemmo/42Brat/internal/client"
	"github.com/Breadstickhemmo/42Brat/internal/eventlist"
	"github.com/Breadstickhemmo/42Brat/internal/fakeapi"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// recordingLister returns canned events and records every query.
type recordingLister struct {
	mu      sync.Mutex
	queries []string
	events  []client.Event
	err     error
}

func (l *recordingLister) ListEvents(_ context.Context, params client.Encoder) ([]client.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queries = append(l.queries, params.Encode())
	return l.events, l.err
}

func run(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	return cmd()
}

func TestUnauthenticatedNeverFetches(t *testing.T) {
	c := NewCoordinator(&recordingLister{}, eventlist.New(), time.Millisecond, nil)
	if cmd := c.SetFilters(FilterSet{Role: "volunteer"}); cmd != nil {
		t.Error("SetFilters issued a fetch while unauthenticated")
	}
	msg := run(t, c.SetSearch("fest")).(DebounceMsg)
	if cmd := c.HandleDebounce(msg); cmd != nil {
		t.Error("debounce issued a fetch while unauthenticated")
	}
	if cmd := c.Refresh(); cmd != nil {
		t.Error("Refresh issued a fetch while unauthenticated")
	}
	if c.Fetches() != 0 {
		t.Errorf("Fetches() = %d, want 0", c.Fetches())
	}
}

func TestLoginEdgeFetchesOnce(t *testing.T) {
	l := &recordingLister{events: []client.Event{{ID: 1}}}
	store := eventlist.New()
	c := NewCoordinator(l, store, time.Millisecond, nil)

	cmd := c.SetAuthenticated(true)
	if c.SetAuthenticated(true) != nil {
		t.Error("repeated SetAuthenticated(true) issued another fetch")
	}
	if !store.Loading() {
		t.Error("store not loading after fetch issued")
	}
	if err := c.ApplyResult(run(t, cmd).(ResultMsg)); err != nil {
		t.Fatalf("ApplyResult() error: %v", err)
	}
	if store.Len() != 1 || store.Loading() {
		t.Errorf("store len=%d loading=%v", store.Len(), store.Loading())
	}
	if c.Fetches() != 1 {
		t.Errorf("Fetches() = %d, want 1", c.Fetches())
	}
}

func TestDebounceOnlyLatestTermFetches(t *testing.T) {
	l := &recordingLister{}
	c := NewCoordinator(l, eventlist.New(), time.Millisecond, nil)
	c.ApplyResult(run(t, c.SetAuthenticated(true)).(ResultMsg))

	var ticks []DebounceMsg
	for _, term := range []string{"f", "fe", "fes", "fest"} {
		ticks = append(ticks, run(t, c.SetSearch(term)).(DebounceMsg))
	}
	for _, tick := range ticks[:len(ticks)-1] {
		if cmd := c.HandleDebounce(tick); cmd != nil {
			t.Errorf("stale tick %d issued a fetch", tick.Seq)
		}
	}
	if c.Search() != "" {
		t.Errorf("debounced term promoted early: %q", c.Search())
	}
	c.ApplyResult(run(t, c.HandleDebounce(ticks[len(ticks)-1])).(ResultMsg))

	if c.Search() != "fest" {
		t.Errorf("Search() = %q, want fest", c.Search())
	}
	want := []string{"", "search=fest"}
	if len(l.queries) != len(want) || l.queries[1] != want[1] {
		t.Errorf("queries = %q, want %q", l.queries, want)
	}
}

func TestUnchangedQueryIsNotRefetched(t *testing.T) {
	c := NewCoordinator(&recordingLister{}, eventlist.New(), time.Millisecond, nil)
	c.ApplyResult(run(t, c.SetAuthenticated(true)).(ResultMsg))

	c.ApplyResult(run(t, c.SetFilters(FilterSet{Type: "sport"})).(ResultMsg))
	if cmd := c.SetFilters(FilterSet{Type: "sport"}); cmd != nil {
		t.Error("identical filters issued a fetch")
	}
	// Typing and erasing within the window lands on the same query.
	run(t, c.SetSearch("x"))
	tick := run(t, c.SetSearch("")).(DebounceMsg)
	if cmd := c.HandleDebounce(tick); cmd != nil {
		t.Error("debounce back to the same term issued a fetch")
	}
	if c.Fetches() != 2 {
		t.Errorf("Fetches() = %d, want 2", c.Fetches())
	}

	if c.Refresh() == nil {
		t.Error("Refresh() did not force a fetch")
	}
	if c.Fetches() != 3 {
		t.Errorf("Fetches() after Refresh = %d, want 3", c.Fetches())
	}
}

func TestStaleResultDiscarded(t *testing.T) {
	store := eventlist.New()
	slow := &recordingLister{events: []client.Event{{ID: 1, Title: "old"}}}
	c := NewCoordinator(slow, store, time.Millisecond, nil)
	c.ApplyResult(run(t, c.SetAuthenticated(true)).(ResultMsg))

	first := c.SetFilters(FilterSet{Role: "participant"})
	second := c.SetFilters(FilterSet{Role: "organizer"})

	newMsg := second().(ResultMsg)
	newMsg.Events = []client.Event{{ID: 2, Title: "new"}}
	oldMsg := first().(ResultMsg)

	c.ApplyResult(newMsg)
	c.ApplyResult(oldMsg)

	if store.Len() != 1 || store.Events()[0].Title != "new" {
		t.Errorf("store = %+v, want only the newer result", store.Events())
	}
}

func TestLogoutResetsAndDropsInflight(t *testing.T) {
	store := eventlist.New()
	c := NewCoordinator(&recordingLister{events: []client.Event{{ID: 1}}}, store, time.Millisecond, nil)
	c.ApplyResult(run(t, c.SetAuthenticated(true)).(ResultMsg))

	run(t, c.SetSearch("fest"))
	pending := c.SetFilters(FilterSet{Location: "online"})
	c.SetAuthenticated(false)

	if c.Filters().Active() || c.RawSearch() != "" || c.Search() != "" {
		t.Errorf("filters/search not reset: %+v %q %q", c.Filters(), c.RawSearch(), c.Search())
	}
	if store.Len() != 0 || store.Loading() {
		t.Error("store not cleared on logout")
	}
	c.ApplyResult(pending().(ResultMsg))
	if store.Len() != 0 {
		t.Error("in-flight result repopulated the list after logout")
	}
	if c.InFlight() {
		t.Error("fetch still in flight after logout")
	}
}

func TestFailureAndUnauthorized(t *testing.T) {
	store := eventlist.New()
	l := &recordingLister{err: &client.NetworkError{Op: "GET /api/events", Err: errors.New("refused")}}
	c := NewCoordinator(l, store, time.Millisecond, zaptest.NewLogger(t))

	err := c.ApplyResult(run(t, c.SetAuthenticated(true)).(ResultMsg))
	if !client.IsNetwork(err) {
		t.Errorf("ApplyResult() = %v, want network error", err)
	}
	if store.Err() == nil {
		t.Error("store error not recorded")
	}

	l.err = client.ErrUnauthorized
	if err := c.ApplyResult(run(t, c.Refresh()).(ResultMsg)); err != nil {
		t.Errorf("unauthorized failure reported: %v", err)
	}
	if store.Err() != nil {
		t.Error("unauthorized failure left an error in the store")
	}
}

func TestSearchScenarioAgainstBackend(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	u := srv.AddUser("alice", "pw", false)
	tok := srv.IssueToken(u.ID)
	srv.SeedEvent(client.Event{Title: "Spring fest", Roles: []string{"organizer"}, Start: client.Time{Time: time.Now()}})
	srv.SeedEvent(client.Event{Title: "Chess night", Roles: []string{"organizer"}, Start: client.Time{Time: time.Now()}})

	api := client.NewAPI(client.NewFetcher(srv.URL(), client.TokenFunc(func() string { return tok }), nil))
	store := eventlist.New()
	c := NewCoordinator(api, store, time.Millisecond, zaptest.NewLogger(t))
	require.NoError(t, c.ApplyResult(run(t, c.SetAuthenticated(true)).(ResultMsg)))
	require.Equal(t, 2, store.Len())

	before := srv.Count(http.MethodGet, "/api/events")
	require.NoError(t, c.ApplyResult(run(t, c.SetFilters(FilterSet{Role: "organizer"})).(ResultMsg)))
	var last DebounceMsg
	for _, term := range []string{"f", "fe", "fes", "fest"} {
		last = run(t, c.SetSearch(term)).(DebounceMsg)
	}
	require.NoError(t, c.ApplyResult(run(t, c.HandleDebounce(last)).(ResultMsg)))

	reqs := srv.Requests()
	require.Equal(t, before+2, srv.Count(http.MethodGet, "/api/events"))
	require.Equal(t, "role=organizer&search=fest", reqs[len(reqs)-1].RawQuery)
	require.Equal(t, 1, store.Len())
	require.Equal(t, "Spring fest", store.Events()[0].Title)
}

// The number of fetches equals the number of times the encoded query
// actually changed, plus the initial fetch on login.
func TestFetchCountProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	roles := []string{"", "participant", "volunteer", "organizer"}
	terms := []string{"", "fest", "chess"}

	properties.Property("fetches track distinct consecutive queries", prop.ForAll(
		func(ops []int) bool {
			c := NewCoordinator(&recordingLister{}, eventlist.New(), 0, nil)
			c.SetAuthenticated(true)
			want := 1
			last := c.Active().Encode()
			for _, op := range ops {
				if op%2 == 0 {
					c.SetFilters(FilterSet{Role: roles[(op/2)%len(roles)]})
				} else {
					tick := c.SetSearch(terms[(op/2)%len(terms)])().(DebounceMsg)
					c.HandleDebounce(tick)
				}
				if enc := c.Active().Encode(); enc != last {
					want++
					last = enc
				}
			}
			return c.Fetches() == want
		},
		gen.SliceOf(gen.IntRange(0, 23)),
	))

	properties.TestingRun(t)
}
