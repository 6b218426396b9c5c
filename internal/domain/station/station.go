package station

import (
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Station is a physical print kiosk scoped to one event and one badge template.
type Station struct {
	ID               string     `json:"id"`
	EventID          string     `json:"eventId"`
	TemplateID       string     `json:"templateId"`
	Name             string     `json:"name"`
	TicketTypeIDs    []string   `json:"ticketTypeIds,omitempty"`
	RequireCheckedIn bool       `json:"requireCheckedIn"`
	CreatedAt        time.Time  `json:"createdAt"`
	RevokedAt        *time.Time `json:"revokedAt,omitempty"`
}

var (
	ErrNotFound             = errors.New("station not found")
	ErrRevoked              = errors.New("station revoked")
	ErrOutOfScope           = errors.New("registration belongs to another event")
	ErrTicketTypeNotAllowed = errors.New("ticket type not allowed at this station")
	ErrNotCheckedIn         = errors.New("registration is not checked in")
)

type CreateStationRequest struct {
	EventID          string   `json:"-"`
	TemplateID       string   `json:"templateId" binding:"required,uuid"`
	Name             string   `json:"name" binding:"required,min=2,max=80"`
	TicketTypeIDs    []string `json:"ticketTypeIds" binding:"omitempty,max=50,dive,uuid"`
	RequireCheckedIn bool     `json:"requireCheckedIn"`
}

func NewFromCreateRequest(req CreateStationRequest) Station {
	return Station{
		ID:               uuid.NewString(),
		EventID:          req.EventID,
		TemplateID:       req.TemplateID,
		Name:             req.Name,
		TicketTypeIDs:    req.TicketTypeIDs,
		RequireCheckedIn: req.RequireCheckedIn,
		CreatedAt:        time.Now().UTC(),
	}
}

func (s Station) Revoked() bool {
	return s.RevokedAt != nil
}

// Admit applies the station's restrictions to a registration.
func (s Station) Admit(eventID, ticketTypeID string, checkedIn bool) error {
	if eventID != s.EventID {
		return ErrOutOfScope
	}
	if len(s.TicketTypeIDs) > 0 && !slices.Contains(s.TicketTypeIDs, ticketTypeID) {
		return ErrTicketTypeNotAllowed
	}
	if s.RequireCheckedIn && !checkedIn {
		return ErrNotCheckedIn
	}
	return nil
}
