package client

// Option is one selectable value of an enumerated event field.
type Option struct {
	Value string
	Label string
}

// Catalog lists the enumerated values the backend accepts for filters and
// event forms.
type Catalog struct {
	Roles     []Option
	Locations []Option
	Types     []Option
}

// DefaultCatalog mirrors the backend's ParticipantRole, EventLocation and
// EventType enums.
func DefaultCatalog() Catalog {
	return Catalog{
		Roles: []Option{
			{Value: "participant", Label: "Participant"},
			{Value: "volunteer", Label: "Volunteer"},
			{Value: "organizer", Label: "Organizer"},
		},
		Locations: []Option{
			{Value: "main_building", Label: "Main building"},
			{Value: "sports_complex", Label: "Sports complex"},
			{Value: "library", Label: "Library"},
			{Value: "online", Label: "Online"},
			{Value: "off_campus", Label: "Off campus"},
		},
		Types: []Option{
			{Value: "science", Label: "Science"},
			{Value: "education", Label: "Education"},
			{Value: "culture", Label: "Culture"},
			{Value: "sport", Label: "Sport"},
			{Value: "volunteering", Label: "Volunteering"},
			{Value: "career", Label: "Career"},
		},
	}
}

// Label returns the display label for value, or value itself when it is not
// in opts.
func Label(opts []Option, value string) string {
	for _, o := range opts {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

// Values returns the raw values of opts in order.
func Values(opts []Option) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.Value
	}
	return out
}
