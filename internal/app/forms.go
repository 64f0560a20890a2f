package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Breadstickhemmo/42Brat/internal/client"
	"github.com/Breadstickhemmo/42Brat/internal/query"
	"github.com/Breadstickhemmo/42Brat/internal/views/form"
)

// Form field keys.
const (
	fieldUsername     = "username"
	fieldPassword     = "password"
	fieldStartDate    = "startDate"
	fieldEndDate      = "endDate"
	fieldRole         = "role"
	fieldLocation     = "location"
	fieldType         = "type"
	fieldTitle        = "title"
	fieldDescription  = "description"
	fieldStart        = "start"
	fieldEnd          = "end"
	fieldDetails      = "locationDetails"
	fieldRoles        = "roles"
	fieldLinkPart     = "linkParticipant"
	fieldLinkVolunter = "linkVolunteer"
	fieldLinkOrg      = "linkOrganizer"
)

func loginForm(username string) form.Model {
	f := form.New("Log in",
		form.Text(fieldUsername, "Username", "", username),
		form.Password(fieldPassword, "Password"),
	)
	if username != "" {
		f.Focus(1)
	}
	f.Hint = "tab: next field  enter: log in  esc: cancel"
	return f
}

func registerForm() form.Model {
	f := form.New("Register",
		form.Text(fieldUsername, "Username", "", ""),
		form.Password(fieldPassword, "Password"),
	)
	f.Hint = "tab: next field  enter: register  esc: cancel"
	return f
}

func credentials(f form.Model) (client.Credentials, error) {
	c := client.Credentials{Username: f.Value(fieldUsername), Password: f.Value(fieldPassword)}
	if c.Username == "" || c.Password == "" {
		return c, errors.New("Username and password are required")
	}
	return c, nil
}

func filterForm(cat client.Catalog, cur query.FilterSet) form.Model {
	f := form.New("Filters",
		form.Text(fieldStartDate, "From", "YYYY-MM-DD", cur.StartDate),
		form.Text(fieldEndDate, "To", "YYYY-MM-DD", cur.EndDate),
		form.Choice(fieldRole, "Role", cat.Roles, true, cur.Role),
		form.Choice(fieldLocation, "Location", cat.Locations, true, cur.Location),
		form.Choice(fieldType, "Type", cat.Types, true, cur.Type),
	)
	f.Hint = "tab: next field  ←/→: choose  enter: apply  esc: cancel"
	return f
}

func filterSet(f form.Model) (query.FilterSet, error) {
	fs := query.FilterSet{
		StartDate: f.Value(fieldStartDate),
		EndDate:   f.Value(fieldEndDate),
		Role:      f.Value(fieldRole),
		Location:  f.Value(fieldLocation),
		Type:      f.Value(fieldType),
	}
	return fs, fs.Validate()
}

// eventForm builds the create form, or the edit form pre-filled from e.
func eventForm(cat client.Catalog, e *client.Event) form.Model {
	title := "New event"
	var in client.EventInput
	if e != nil {
		title = "Edit event"
		in = client.InputFromEvent(*e)
	}
	return form.New(title,
		form.Text(fieldTitle, "Title", "", in.Title),
		form.Text(fieldDescription, "Description", "markdown", in.Description),
		form.Text(fieldStart, "Starts", client.InputLayout, in.Start),
		form.Text(fieldEnd, "Ends", "optional", in.End),
		form.Choice(fieldLocation, "Location", cat.Locations, false, in.Location),
		form.Text(fieldDetails, "Room / address", "optional", in.LocationDetails),
		form.Choice(fieldType, "Type", cat.Types, false, in.Type),
		form.Multi(fieldRoles, "Roles", cat.Roles, in.Roles),
		form.Text(fieldLinkPart, "Participant link", "optional", in.RegistrationLinkParticipant),
		form.Text(fieldLinkVolunter, "Volunteer link", "optional", in.RegistrationLinkVolunteer),
		form.Text(fieldLinkOrg, "Organizer link", "optional", in.RegistrationLinkOrganizer),
	)
}

// eventInput reads the form and checks the fields the server requires.
func eventInput(f form.Model) (client.EventInput, error) {
	in := client.EventInput{
		Title:                       f.Value(fieldTitle),
		Description:                 f.Value(fieldDescription),
		Start:                       f.Value(fieldStart),
		End:                         f.Value(fieldEnd),
		Location:                    f.Value(fieldLocation),
		LocationDetails:             f.Value(fieldDetails),
		Type:                        f.Value(fieldType),
		Roles:                       f.Values(fieldRoles),
		RegistrationLinkParticipant: f.Value(fieldLinkPart),
		RegistrationLinkVolunteer:   f.Value(fieldLinkVolunter),
		RegistrationLinkOrganizer:   f.Value(fieldLinkOrg),
	}

	var missing []string
	for _, r := range []struct {
		name string
		ok   bool
	}{
		{"title", in.Title != ""},
		{"description", in.Description != ""},
		{"start", in.Start != ""},
		{"location", in.Location != ""},
		{"type", in.Type != ""},
		{"roles", len(in.Roles) > 0},
	} {
		if !r.ok {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return in, fmt.Errorf("Required fields missing: %s", strings.Join(missing, ", "))
	}

	start, err := client.ParseTime(in.Start)
	if err != nil {
		return in, fmt.Errorf("Start must look like %s", client.InputLayout)
	}
	if in.End != "" {
		end, err := client.ParseTime(in.End)
		if err != nil {
			return in, fmt.Errorf("End must look like %s", client.InputLayout)
		}
		if end.Before(start.Time) {
			return in, errors.New("End cannot be before start")
		}
	}
	return in, nil
}
