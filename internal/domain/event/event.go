package event

import (
	"errors"
	"time"
)

type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Venue       string     `json:"venue,omitempty"`
	City        string     `json:"city,omitempty"`
	Organizer   string     `json:"organizer,omitempty"`
	StartAt     time.Time  `json:"startAt"`
	EndAt       *time.Time `json:"endAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

var ErrNotFound = errors.New("event not found")

// Ends returns the end of the event, falling back to the start for single-moment events.
func (e Event) Ends() time.Time {
	if e.EndAt == nil || e.EndAt.Before(e.StartAt) {
		return e.StartAt
	}
	return *e.EndAt
}
