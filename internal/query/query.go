// Package query turns structured filters and a debounced search term into
// the canonical event list query, and drives refetches when it changes.
package query

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DateLayout is the format of the start and end date filters.
const DateLayout = time.DateOnly

// FilterSet holds the structured filters. An empty field is unconstrained.
type FilterSet struct {
	StartDate string
	EndDate   string
	Role      string
	Location  string
	Type      string
}

// Active reports whether any filter is set.
func (f FilterSet) Active() bool {
	return f != FilterSet{}
}

// Validate checks the date fields.
func (f FilterSet) Validate() error {
	var start, end time.Time
	var err error
	if f.StartDate != "" {
		if start, err = time.Parse(DateLayout, f.StartDate); err != nil {
			return fmt.Errorf("start date %q: expected YYYY-MM-DD", f.StartDate)
		}
	}
	if f.EndDate != "" {
		if end, err = time.Parse(DateLayout, f.EndDate); err != nil {
			return fmt.Errorf("end date %q: expected YYYY-MM-DD", f.EndDate)
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return errors.New("end date is before start date")
	}
	return nil
}

// Query is the combination of filters and the debounced search term sent
// to the list endpoint. Two queries are equal iff their encodings are.
type Query struct {
	Filters FilterSet
	Search  string
}

// pairs returns the non-empty parameters in canonical order.
func (q Query) pairs() [][2]string {
	all := [][2]string{
		{"startDate", q.Filters.StartDate},
		{"endDate", q.Filters.EndDate},
		{"role", q.Filters.Role},
		{"location", q.Filters.Location},
		{"type", q.Filters.Type},
		{"search", q.Search},
	}
	out := all[:0]
	for _, p := range all {
		if p[1] != "" {
			out = append(out, p)
		}
	}
	return out
}

// Params returns the query as url.Values.
func (q Query) Params() url.Values {
	v := url.Values{}
	for _, p := range q.pairs() {
		v.Set(p[0], p[1])
	}
	return v
}

// Encode renders the query string with parameters in the order
// startDate, endDate, role, location, type, search. Empty fields are
// omitted.
func (q Query) Encode() string {
	var b strings.Builder
	for i, p := range q.pairs() {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p[0]))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p[1]))
	}
	return b.String()
}
