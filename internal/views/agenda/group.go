package agenda

import (
	"time"

	"github.com/Breadstickhemmo/42Brat/internal/client"
)

// Group identifies an agenda section.
type Group int

const (
	GroupToday Group = iota
	GroupUpcoming
	GroupPast
)

// Classify returns the section an event belongs in. An event is Today when
// it starts on now's calendar day or is still running; Past once it has
// finished (or, without an end, once it started on an earlier day).
func Classify(e client.Event, now time.Time) Group {
	start := e.Start.In(now.Location())
	end := start
	if e.End != nil && !e.End.IsZero() {
		end = e.End.In(now.Location())
	}
	switch {
	case sameDay(start, now):
		return GroupToday
	case start.Before(now) && end.After(now):
		return GroupToday
	case start.After(now):
		return GroupUpcoming
	default:
		return GroupPast
	}
}

// GroupName returns a display label.
func GroupName(g Group) string {
	switch g {
	case GroupToday:
		return "TODAY"
	case GroupUpcoming:
		return "UPCOMING"
	case GroupPast:
		return "PAST"
	default:
		return "?"
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
