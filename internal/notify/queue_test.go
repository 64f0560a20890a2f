package notify

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func intp(v int) *int { return &v }

func TestShowReplacesAndStaleTickIsIgnored(t *testing.T) {
	q := New("push", 5*time.Second)

	q.Show(KindPush, "First", "a", intp(1))
	first, _ := q.Current()
	q.Show(KindPush, "Second", "b", intp(2))
	second, ok := q.Current()
	if !ok || second.Title != "Second" {
		t.Fatalf("Current() = %+v, %v; want Second", second, ok)
	}
	if second.Key <= first.Key {
		t.Errorf("keys not increasing: %d then %d", first.Key, second.Key)
	}

	// The first notification's timer fires after it was replaced.
	if q.Expire(ExpiredMsg{Queue: "push", Key: first.Key}) {
		t.Error("stale expiry cleared the slot")
	}
	if _, ok := q.Current(); !ok {
		t.Fatal("second notification was cleared by a stale tick")
	}

	if q.Expire(ExpiredMsg{Queue: "notices", Key: second.Key}) {
		t.Error("expiry for another queue cleared the slot")
	}
	if !q.Expire(ExpiredMsg{Queue: "push", Key: second.Key}) {
		t.Error("current expiry did not clear the slot")
	}
	if _, ok := q.Current(); ok {
		t.Error("slot not empty after expiry")
	}
}

func TestShowReturnsTickForCurrentKey(t *testing.T) {
	q := New("notices", time.Millisecond)
	cmd := q.Show(KindSuccess, "Saved", "", nil)
	if cmd == nil {
		t.Fatal("Show() returned nil cmd")
	}
	n, _ := q.Current()
	msg, ok := cmd().(ExpiredMsg)
	if !ok {
		t.Fatalf("cmd() = %T, want ExpiredMsg", cmd())
	}
	if msg.Key != n.Key || msg.Queue != "notices" {
		t.Errorf("tick = %+v, want key %d on notices", msg, n.Key)
	}
}

func TestKeysUniqueAcrossQueues(t *testing.T) {
	a := New("a", time.Second)
	b := New("b", time.Second)
	a.Show(KindInfo, "x", "", nil)
	b.Show(KindInfo, "y", "", nil)
	na, _ := a.Current()
	nb, _ := b.Current()
	if na.Key == nb.Key {
		t.Errorf("queues share key %d", na.Key)
	}
}

func TestActivate(t *testing.T) {
	exists := func(id int) bool { return id == 42 }

	tests := []struct {
		name    string
		eventID *int
		wantID  int
		wantOK  bool
	}{
		{"known event", intp(42), 42, true},
		{"event no longer listed", intp(9), 0, false},
		{"no event", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := New("push", time.Second)
			q.Show(KindPush, "t", "m", tt.eventID)
			id, ok := q.Activate(exists)
			if id != tt.wantID || ok != tt.wantOK {
				t.Errorf("Activate() = %d, %v; want %d, %v", id, ok, tt.wantID, tt.wantOK)
			}
			if _, shown := q.Current(); shown {
				t.Error("Activate() left the notification displayed")
			}
		})
	}

	empty := New("push", time.Second)
	if _, ok := empty.Activate(exists); ok {
		t.Error("Activate() on empty queue reported an event")
	}
}

func TestClock(t *testing.T) {
	at := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	q := New("push", time.Second)
	q.SetClock(func() time.Time { return at })
	q.Show(KindPush, "t", "m", nil)
	n, _ := q.Current()
	if !n.Shown.Equal(at) {
		t.Errorf("Shown = %v, want %v", n.Shown, at)
	}
}

// For any sequence of shows, expiring every issued key except the last
// leaves the last notification displayed.
func TestOnlyLatestKeyExpiresProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("stale keys never clear the slot", prop.ForAll(
		func(titles []string) bool {
			if len(titles) == 0 {
				return true
			}
			q := New("push", time.Second)
			var keys []uint64
			for _, title := range titles {
				q.Show(KindPush, title, "", nil)
				n, _ := q.Current()
				keys = append(keys, n.Key)
			}
			for _, k := range keys[:len(keys)-1] {
				if q.Expire(ExpiredMsg{Queue: "push", Key: k}) {
					return false
				}
			}
			n, ok := q.Current()
			if !ok || n.Title != titles[len(titles)-1] {
				return false
			}
			return q.Expire(ExpiredMsg{Queue: "push", Key: keys[len(keys)-1]})
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
