// Package notify holds transient notifications in a single display slot.
// A new notification replaces the current one and restarts its lifetime;
// stale expiry ticks are ignored by key.
package notify

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Kind classifies a notification for styling.
type Kind int

const (
	KindPush Kind = iota
	KindInfo
	KindSuccess
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindPush:
		return "push"
	case KindInfo:
		return "info"
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	}
	return "unknown"
}

var keys atomic.Uint64

// nextKey draws from a process-wide monotonic counter, so keys never repeat
// even across queues.
func nextKey() uint64 { return keys.Add(1) }

// Notification is the content of the display slot.
type Notification struct {
	Key      uint64
	Kind     Kind
	Title    string
	Message  string
	EventID  int
	HasEvent bool
	Shown    time.Time
}

// ExpiredMsg is delivered when a notification's lifetime elapses.
type ExpiredMsg struct {
	Queue string
	Key   uint64
}

// Queue is a single-slot notification holder. It is owned by the UI loop
// and is not safe for concurrent use.
type Queue struct {
	name     string
	duration time.Duration
	now      func() time.Time
	current  *Notification
}

// New creates a queue whose notifications live for duration. name tags the
// expiry messages so several queues can share one loop.
func New(name string, duration time.Duration) *Queue {
	return &Queue{name: name, duration: duration, now: time.Now}
}

// SetClock replaces the clock used to stamp notifications.
func (q *Queue) SetClock(now func() time.Time) { q.now = now }

// Name returns the queue's tag.
func (q *Queue) Name() string { return q.name }

// Show replaces the slot and returns the command that expires it.
func (q *Queue) Show(kind Kind, title, message string, eventID *int) tea.Cmd {
	n := &Notification{
		Key:     nextKey(),
		Kind:    kind,
		Title:   title,
		Message: message,
		Shown:   q.now(),
	}
	if eventID != nil {
		n.EventID = *eventID
		n.HasEvent = true
	}
	q.current = n

	name, key := q.name, n.Key
	return tea.Tick(q.duration, func(time.Time) tea.Msg {
		return ExpiredMsg{Queue: name, Key: key}
	})
}

// Expire clears the slot when msg belongs to this queue and its key is
// still current. It reports whether anything was cleared.
func (q *Queue) Expire(msg ExpiredMsg) bool {
	if msg.Queue != q.name || q.current == nil || q.current.Key != msg.Key {
		return false
	}
	q.current = nil
	return true
}

// Dismiss clears the slot.
func (q *Queue) Dismiss() {
	q.current = nil
}

// Activate dismisses the current notification and returns its event id
// when it refers to an event for which exists returns true.
func (q *Queue) Activate(exists func(id int) bool) (int, bool) {
	n := q.current
	if n == nil {
		return 0, false
	}
	q.current = nil
	if !n.HasEvent || exists == nil || !exists(n.EventID) {
		return 0, false
	}
	return n.EventID, true
}

// Current returns the displayed notification, if any.
func (q *Queue) Current() (Notification, bool) {
	if q.current == nil {
		return Notification{}, false
	}
	return *q.current, true
}
