package query

import (
	"context"
	"errors"
	"time"

	"github.com/Breadstickhemmo/42Brat/internal/client"
	"github.com/Breadstickhemmo/42Brat/internal/eventlist"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// Lister fetches events matching a query.
type Lister interface {
	ListEvents(ctx context.Context, params client.Encoder) ([]client.Event, error)
}

// DebounceMsg fires when the search quiescence window elapses.
type DebounceMsg struct{ Seq uint64 }

// ResultMsg carries the outcome of a list fetch.
type ResultMsg struct {
	Seq    uint64
	Query  Query
	Events []client.Event
	Err    error
}

// Coordinator owns the filters and search term, and issues a fetch each
// time the effective query changes. It is owned by the UI loop.
type Coordinator struct {
	lister Lister
	store  *eventlist.Store
	window time.Duration
	log    *zap.Logger

	authenticated bool
	filters       FilterSet
	raw           string
	debounced     string
	debounceSeq   uint64

	fetchSeq   uint64
	issued     bool
	lastIssued string
	cancel     context.CancelFunc
	fetches    int
}

// NewCoordinator creates a coordinator feeding store. window is the search
// debounce interval.
func NewCoordinator(lister Lister, store *eventlist.Store, window time.Duration, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{lister: lister, store: store, window: window, log: log}
}

// SetAuthenticated applies an authentication change. Gaining it fetches the
// current query unconditionally; losing it resets filters and search,
// abandons any in-flight fetch and clears the list.
func (c *Coordinator) SetAuthenticated(auth bool) tea.Cmd {
	if auth == c.authenticated {
		return nil
	}
	c.authenticated = auth
	if !auth {
		c.Reset()
		return nil
	}
	return c.fetch(true)
}

// Reset clears filters and search and invalidates pending debounce ticks and
// fetch results.
func (c *Coordinator) Reset() {
	c.abandon()
	c.filters = FilterSet{}
	c.raw = ""
	c.debounced = ""
	c.debounceSeq++
	c.issued = false
	c.lastIssued = ""
	c.store.Clear()
}

// SetFilters replaces the filters.
func (c *Coordinator) SetFilters(f FilterSet) tea.Cmd {
	c.filters = f
	return c.recompute()
}

// ResetFilters clears the filters, keeping the search term.
func (c *Coordinator) ResetFilters() tea.Cmd {
	return c.SetFilters(FilterSet{})
}

// SetSearch records the raw term and starts a new quiescence window. Only
// the tick of the latest call promotes the term.
func (c *Coordinator) SetSearch(term string) tea.Cmd {
	c.raw = term
	c.debounceSeq++
	seq := c.debounceSeq
	if c.window <= 0 {
		return func() tea.Msg { return DebounceMsg{Seq: seq} }
	}
	return tea.Tick(c.window, func(time.Time) tea.Msg {
		return DebounceMsg{Seq: seq}
	})
}

// ClearSearch empties the search term immediately, without waiting for the
// debounce window.
func (c *Coordinator) ClearSearch() tea.Cmd {
	c.raw = ""
	c.debounced = ""
	c.debounceSeq++
	return c.recompute()
}

// HandleDebounce promotes the raw term when msg is the latest tick.
func (c *Coordinator) HandleDebounce(msg DebounceMsg) tea.Cmd {
	if msg.Seq != c.debounceSeq {
		return nil
	}
	c.debounced = c.raw
	return c.recompute()
}

// Refresh refetches the active query even when it has not changed.
func (c *Coordinator) Refresh() tea.Cmd {
	if !c.authenticated {
		return nil
	}
	return c.fetch(true)
}

// ApplyResult installs the result of the latest fetch. Results of
// superseded fetches are discarded. The returned error is the failure to
// report, if any: authorization failures and cancellations are not
// reported because the session teardown already handles them.
func (c *Coordinator) ApplyResult(msg ResultMsg) error {
	if msg.Seq != c.fetchSeq || !c.authenticated {
		c.log.Debug("discarding stale event list", zap.Uint64("seq", msg.Seq), zap.Uint64("latest", c.fetchSeq))
		return nil
	}
	c.cancel = nil

	switch {
	case msg.Err == nil:
		c.store.Replace(msg.Events)
		return nil
	case client.IsUnauthorized(msg.Err), errors.Is(msg.Err, context.Canceled):
		c.store.Clear()
		return nil
	default:
		c.log.Warn("event list fetch failed", zap.String("query", msg.Query.Encode()), zap.Error(msg.Err))
		c.store.Fail(msg.Err)
		return msg.Err
	}
}

func (c *Coordinator) recompute() tea.Cmd {
	if !c.authenticated {
		return nil
	}
	return c.fetch(false)
}

func (c *Coordinator) fetch(force bool) tea.Cmd {
	q := c.Active()
	enc := q.Encode()
	if !force && c.issued && enc == c.lastIssued {
		return nil
	}

	c.abandon()
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.fetchSeq++
	c.issued = true
	c.lastIssued = enc
	c.fetches++
	c.store.Begin()

	seq, lister := c.fetchSeq, c.lister
	c.log.Debug("fetching events", zap.Uint64("seq", seq), zap.String("query", enc))
	return func() tea.Msg {
		defer cancel()
		events, err := lister.ListEvents(ctx, q)
		return ResultMsg{Seq: seq, Query: q, Events: events, Err: err}
	}
}

// abandon cancels the in-flight fetch and invalidates its result.
func (c *Coordinator) abandon() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.fetchSeq++
}

// Active returns the query built from the filters and the debounced term.
func (c *Coordinator) Active() Query {
	return Query{Filters: c.filters, Search: c.debounced}
}

func (c *Coordinator) Filters() FilterSet  { return c.filters }
func (c *Coordinator) RawSearch() string   { return c.raw }
func (c *Coordinator) Search() string      { return c.debounced }
func (c *Coordinator) Authenticated() bool { return c.authenticated }

// Fetches is the number of fetches issued so far.
func (c *Coordinator) Fetches() int { return c.fetches }

// InFlight reports whether a fetch is outstanding.
func (c *Coordinator) InFlight() bool { return c.cancel != nil }
