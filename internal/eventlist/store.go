// Package eventlist holds the most recent event list result.
package eventlist

import "github.com/Breadstickhemmo/42Brat/internal/client"

// Store is the latest result set together with its loading and error
// state. Results replace the list wholesale.
type Store struct {
	events  []client.Event
	loading bool
	err     error
}

// New returns an empty store.
func New() *Store { return &Store{} }

// Begin marks a fetch as in flight and clears the previous error.
func (s *Store) Begin() {
	s.loading = true
	s.err = nil
}

// Replace installs a fresh result.
func (s *Store) Replace(events []client.Event) {
	s.events = events
	s.loading = false
	s.err = nil
}

// Fail records a failed fetch. The stale list is dropped.
func (s *Store) Fail(err error) {
	s.events = nil
	s.loading = false
	s.err = err
}

// Clear empties the store.
func (s *Store) Clear() {
	s.events = nil
	s.loading = false
	s.err = nil
}

// Events returns the current list. Callers must not modify it.
func (s *Store) Events() []client.Event { return s.events }

func (s *Store) Loading() bool { return s.loading }
func (s *Store) Err() error    { return s.err }
func (s *Store) Len() int      { return len(s.events) }

// Find returns the event with the given id.
func (s *Store) Find(id int) (client.Event, bool) {
	for _, e := range s.events {
		if e.ID == id {
			return e, true
		}
	}
	return client.Event{}, false
}

// Contains reports whether an event with the given id is listed.
func (s *Store) Contains(id int) bool {
	_, ok := s.Find(id)
	return ok
}
