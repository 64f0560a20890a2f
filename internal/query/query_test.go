package query

import "testing"

func TestQueryEncode(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want string
	}{
		{"empty", Query{}, ""},
		{"role and search", Query{Filters: FilterSet{Role: "organizer"}, Search: "fest"}, "role=organizer&search=fest"},
		{
			"all fields in canonical order",
			Query{
				Filters: FilterSet{StartDate: "2026-05-01", EndDate: "2026-05-31", Role: "volunteer", Location: "library", Type: "science"},
				Search:  "robots",
			},
			"startDate=2026-05-01&endDate=2026-05-31&role=volunteer&location=library&type=science&search=robots",
		},
		{"escaping", Query{Search: "rock & roll"}, "search=rock+%26+roll"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Encode(); got != tt.want {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQueryParams(t *testing.T) {
	q := Query{Filters: FilterSet{Type: "sport"}, Search: "run"}
	p := q.Params()
	if len(p) != 2 || p.Get("type") != "sport" || p.Get("search") != "run" {
		t.Errorf("Params() = %v", p)
	}
}

func TestFilterSetValidate(t *testing.T) {
	tests := []struct {
		name    string
		f       FilterSet
		wantErr bool
	}{
		{"empty", FilterSet{}, false},
		{"start only", FilterSet{StartDate: "2026-05-01"}, false},
		{"range", FilterSet{StartDate: "2026-05-01", EndDate: "2026-05-01"}, false},
		{"bad start", FilterSet{StartDate: "01.05.2026"}, true},
		{"bad end", FilterSet{EndDate: "2026-13-01"}, true},
		{"end before start", FilterSet{StartDate: "2026-05-02", EndDate: "2026-05-01"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.f.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFilterSetActive(t *testing.T) {
	if (FilterSet{}).Active() {
		t.Error("empty filter set reported active")
	}
	if !(FilterSet{Location: "online"}).Active() {
		t.Error("location filter not reported active")
	}
}
