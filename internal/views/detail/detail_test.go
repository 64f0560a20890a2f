package detail

import (
	"strings"
	"testing"
	"time"

	"github.com/Breadstickhemmo/42Brat/internal/client"
)

func event() client.Event {
	start := time.Date(2026, 5, 14, 18, 0, 0, 0, time.UTC)
	end := client.Time{Time: start.Add(3 * time.Hour)}
	return client.Event{
		ID:                          7,
		Title:                       "Spring fest",
		Description:                 "Live **music** and food.",
		Start:                       client.Time{Time: start},
		End:                         &end,
		Location:                    "main_building",
		LocationDetails:             "Hall A",
		Type:                        "culture",
		Roles:                       []string{"participant", "volunteer"},
		RegistrationLinkParticipant: "https://example.edu/fest",
	}
}

func TestView(t *testing.T) {
	v := New(event(), client.DefaultCatalog(), false).View()
	for _, want := range []string{"Spring fest", "Main building, Hall A", "Culture", "Participant, Volunteer", "18:00 – 21:00", "https://example.edu/fest", "[esc] close"} {
		if !strings.Contains(v, want) {
			t.Errorf("View() missing %q", want)
		}
	}
	if strings.Contains(v, "[e] edit") {
		t.Error("non-admin view offers editing")
	}
}

func TestViewAdminFooter(t *testing.T) {
	m := New(event(), client.DefaultCatalog(), true)
	m.Stale = true
	v := m.View()
	if !strings.Contains(v, "[d] delete") || !strings.Contains(v, "cached copy") {
		t.Errorf("admin view = %s", v)
	}
	if m.ID() != 7 {
		t.Errorf("ID() = %d", m.ID())
	}
}

func TestFormatRange(t *testing.T) {
	e := event()
	e.End = nil
	if got := formatRange(e); got != "Thu 14 May 2026 18:00" {
		t.Errorf("formatRange() = %q", got)
	}
	end := client.Time{Time: e.Start.Add(26 * time.Hour)}
	e.End = &end
	if got := formatRange(e); !strings.HasSuffix(got, "Fri 15 May 2026 20:00") {
		t.Errorf("multi-day formatRange() = %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, ""},
		{45 * time.Minute, "45m"},
		{2 * time.Hour, "2h"},
		{90 * time.Minute, "1h 30m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
