// Package client provides the HTTP and WebSocket clients for the campus
// events backend. Types mirror the backend wire protocol.
package client

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PushKind identifies the kind of push message.
type PushKind string

const (
	PushUpcomingEvent PushKind = "upcoming_event"
	PushNewEventAdded PushKind = "new_event_added"
)

// PushEnvelope is the envelope for all WebSocket messages.
type PushEnvelope struct {
	Type    PushKind        `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// UpcomingEventPayload is a reminder for an event starting soon.
type UpcomingEventPayload struct {
	EventID int    `json:"eventId"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// NewEventAddedPayload announces a freshly created event.
type NewEventAddedPayload struct {
	EventID    int    `json:"eventId"`
	EventTitle string `json:"eventTitle"`
}

// PushEvent is a decoded push message. Exactly one payload field is set,
// matching Kind.
type PushEvent struct {
	Kind     PushKind
	Upcoming *UpcomingEventPayload
	NewEvent *NewEventAddedPayload
}

// EventID returns the id of the event the push message refers to.
func (p PushEvent) EventID() int {
	switch {
	case p.Upcoming != nil:
		return p.Upcoming.EventID
	case p.NewEvent != nil:
		return p.NewEvent.EventID
	}
	return 0
}

// User is the identity returned by /api/me and /api/login.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// Credentials are posted to /api/login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is posted to /api/register.
type Registration struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned by /api/login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}

type meResponse struct {
	User *User `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Event mirrors the backend's event representation.
type Event struct {
	ID                          int      `json:"id"`
	Title                       string   `json:"title"`
	Description                 string   `json:"description"`
	Start                       Time     `json:"start_datetime"`
	End                         *Time    `json:"end_datetime,omitempty"`
	Location                    string   `json:"location"`
	LocationDetails             string   `json:"location_details,omitempty"`
	Type                        string   `json:"event_type"`
	Roles                       []string `json:"roles_available"`
	RegistrationLinkParticipant string   `json:"registration_link_participant,omitempty"`
	RegistrationLinkVolunteer   string   `json:"registration_link_volunteer,omitempty"`
	RegistrationLinkOrganizer   string   `json:"registration_link_organizer,omitempty"`
	AuthorID                    int      `json:"author_id,omitempty"`
}

// EventInput is the body of POST /api/events and PUT /api/events/{id}.
type EventInput struct {
	Title                       string   `json:"title"`
	Description                 string   `json:"description"`
	Start                       string   `json:"start_datetime"`
	End                         string   `json:"end_datetime,omitempty"`
	Location                    string   `json:"location"`
	LocationDetails             string   `json:"location_details,omitempty"`
	Type                        string   `json:"event_type"`
	Roles                       []string `json:"roles_available"`
	RegistrationLinkParticipant string   `json:"registration_link_participant,omitempty"`
	RegistrationLinkVolunteer   string   `json:"registration_link_volunteer,omitempty"`
	RegistrationLinkOrganizer   string   `json:"registration_link_organizer,omitempty"`
}

// InputFromEvent returns the form input that would recreate e.
func InputFromEvent(e Event) EventInput {
	in := EventInput{
		Title:                       e.Title,
		Description:                 e.Description,
		Start:                       e.Start.Format(InputLayout),
		Location:                    e.Location,
		LocationDetails:             e.LocationDetails,
		Type:                        e.Type,
		Roles:                       append([]string(nil), e.Roles...),
		RegistrationLinkParticipant: e.RegistrationLinkParticipant,
		RegistrationLinkVolunteer:   e.RegistrationLinkVolunteer,
		RegistrationLinkOrganizer:   e.RegistrationLinkOrganizer,
	}
	if e.End != nil {
		in.End = e.End.Format(InputLayout)
	}
	return in
}

// InputLayout is the timestamp layout used in event forms.
const InputLayout = "2006-01-02 15:04"

// timeLayouts are accepted when decoding backend timestamps. The backend
// emits ISO-8601, with or without an offset.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	InputLayout,
	"2006-01-02",
}

// Time is a timestamp that tolerates the backend's ISO-8601 variants.
// Timestamps without an offset are UTC.
type Time struct {
	time.Time
}

// ParseTime parses s using the accepted backend layouts.
func ParseTime(s string) (Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Time{t.UTC()}, nil
		}
	}
	return Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}
