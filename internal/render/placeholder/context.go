package placeholder

import (
	"time"

	"github.com/geocoder89/eventprint/internal/domain/event"
	"github.com/geocoder89/eventprint/internal/domain/registration"
)

// ContextVersion is bumped whenever a field is added to Context.
const ContextVersion = 1

// Context is the read-only record placeholders resolve against. It is built
// once per render and may be shared by every element of that render.
type Context struct {
	Version int `json:"version"`

	RegistrationID string `json:"registration_id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone,omitempty"`
	Company        string `json:"company,omitempty"`
	JobTitle       string `json:"job_title,omitempty"`
	TicketType     string `json:"ticket_type,omitempty"`
	CheckinToken   string `json:"checkin_token,omitempty"`

	EventName  string    `json:"event_name"`
	Venue      string    `json:"venue,omitempty"`
	City       string    `json:"city,omitempty"`
	Organizer  string    `json:"organizer,omitempty"`
	EventStart time.Time `json:"event_start"`
	EventEnd   time.Time `json:"event_end"`

	// Answers holds form-builder answers keyed by lower-case field name.
	Answers map[string]string `json:"answers,omitempty"`
}

func FromRecords(ev event.Event, reg registration.Registration) Context {
	var answers map[string]string
	if len(reg.Answers) > 0 {
		answers = make(map[string]string, len(reg.Answers))
		for k, v := range reg.Answers {
			answers[normalize(k)] = v
		}
	}

	return Context{
		Version:        ContextVersion,
		RegistrationID: reg.ID,
		FirstName:      reg.FirstName,
		LastName:       reg.LastName,
		Email:          reg.Email,
		Phone:          reg.Phone,
		Company:        reg.Company,
		JobTitle:       reg.JobTitle,
		TicketType:     reg.TicketTypeName,
		CheckinToken:   reg.CheckinToken,
		EventName:      ev.Title,
		Venue:          ev.Venue,
		City:           ev.City,
		Organizer:      ev.Organizer,
		EventStart:     ev.StartAt,
		EventEnd:       ev.Ends(),
		Answers:        answers,
	}
}

// Sample is used for template previews when no registration is supplied.
func Sample(ev event.Event) Context {
	return FromRecords(ev, registration.Registration{
		ID:             "00000000-0000-0000-0000-000000000000",
		FirstName:      "Jane",
		LastName:       "Doe",
		Email:          "jane.doe@example.com",
		Company:        "Example Corp",
		JobTitle:       "Engineer",
		TicketTypeName: "General Admission",
		CheckinToken:   "SAMPLE-TOKEN",
	})
}

func (c Context) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}
