package client

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimeUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{`"2026-05-01T18:00:00+00:00"`, time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)},
		{`"2026-05-01T21:00:00+03:00"`, time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)},
		{`"2026-05-01T18:00:00"`, time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)},
		{`"2026-05-01T18:00:00.123456"`, time.Date(2026, 5, 1, 18, 0, 0, 123456000, time.UTC)},
		{`"2026-05-01 18:00"`, time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)},
		{`null`, time.Time{}},
		{`""`, time.Time{}},
	}
	for _, tt := range tests {
		var got Time
		if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
			t.Errorf("Unmarshal(%s) error: %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("Unmarshal(%s) = %v, want %v", tt.in, got.Time, tt.want)
		}
	}

	var bad Time
	if err := json.Unmarshal([]byte(`"next tuesday"`), &bad); err == nil {
		t.Error("expected error for unparseable timestamp")
	}
}

func TestEventDecode(t *testing.T) {
	raw := `{"id":7,"title":"Hackathon","description":"48h","start_datetime":"2026-03-10T09:00:00",
		"end_datetime":null,"location":"library","event_type":"science",
		"roles_available":["participant","organizer"]}`
	var e Event
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if e.ID != 7 || e.Title != "Hackathon" || len(e.Roles) != 2 {
		t.Errorf("decoded %+v", e)
	}
	if e.End != nil && !e.End.IsZero() {
		t.Errorf("End = %v, want unset", e.End)
	}

	in := InputFromEvent(e)
	if in.Start != "2026-03-10 09:00" || in.End != "" {
		t.Errorf("InputFromEvent start/end = %q/%q", in.Start, in.End)
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"server text", &RequestError{Status: 400, Message: "bad title"}, "bad title"},
		{"no server text", &RequestError{Method: "GET", Path: "/api/x", Status: 500}, "GET /api/x: 500 Internal Server Error"},
		{"network", &NetworkError{Op: "GET /api/me", Err: errString("refused")}, "Network error: refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Message(tt.err); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}

type errString string

func (e errString) Error() string { return string(e) }
