package registration

import (
	"errors"
	"strings"
	"time"
)

type Registration struct {
	ID             string            `json:"id"`
	EventID        string            `json:"eventId"`
	FirstName      string            `json:"firstName"`
	LastName       string            `json:"lastName"`
	Email          string            `json:"email"`
	Phone          string            `json:"phone,omitempty"`
	Company        string            `json:"company,omitempty"`
	JobTitle       string            `json:"jobTitle,omitempty"`
	TicketTypeID   string            `json:"ticketTypeId,omitempty"`
	TicketTypeName string            `json:"ticketTypeName,omitempty"`
	CheckinToken   string            `json:"checkinToken"`
	CheckedInAt    *time.Time        `json:"checkedInAt,omitempty"`
	// form builder answers keyed by field name
	Answers   map[string]string `json:"answers,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

var ErrNotFound = errors.New("registration not found")

func (r Registration) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

func (r Registration) CheckedIn() bool {
	return r.CheckedInAt != nil
}
