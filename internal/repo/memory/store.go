// Package memory holds the repositories in process. The CLI and the router
// tests use it where a database would only get in the way.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/eventprint/internal/domain/event"
	"github.com/geocoder89/eventprint/internal/domain/registration"
	"github.com/geocoder89/eventprint/internal/domain/station"
	"github.com/geocoder89/eventprint/internal/domain/template"
)

type Store struct {
	mu            sync.RWMutex
	events        map[string]event.Event
	registrations map[string]registration.Registration
	templates     map[string]template.Template
	stations      map[string]station.Station
}

func NewStore() *Store {
	return &Store{
		events:        make(map[string]event.Event),
		registrations: make(map[string]registration.Registration),
		templates:     make(map[string]template.Template),
		stations:      make(map[string]station.Station),
	}
}

func (s *Store) PutEvent(e event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = e
}

func (s *Store) PutRegistration(r registration.Registration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registrations[r.ID] = r
}

// PutTemplate stores t as the active template of its kind when active is set.
func (s *Store) PutTemplate(t template.Template, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[t.ID] = t
	if active {
		s.templates[activeKey(t.EventID, t.Kind)] = t
	}
}

func activeKey(eventID string, kind template.Kind) string {
	return "active:" + eventID + ":" + string(kind)
}

type EventsRepo struct{ s *Store }

func (s *Store) Events() *EventsRepo { return &EventsRepo{s: s} }

func (r *EventsRepo) GetByID(_ context.Context, id string) (event.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.events[id]
	if !ok {
		return event.Event{}, event.ErrNotFound
	}
	return e, nil
}

type RegistrationsRepo struct{ s *Store }

func (s *Store) Registrations() *RegistrationsRepo { return &RegistrationsRepo{s: s} }

func (r *RegistrationsRepo) GetByID(_ context.Context, id string) (registration.Registration, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	reg, ok := r.s.registrations[id]
	if !ok {
		return registration.Registration{}, registration.ErrNotFound
	}
	return reg, nil
}

func (r *RegistrationsRepo) GetByCheckinToken(_ context.Context, token string) (registration.Registration, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, reg := range r.s.registrations {
		if token != "" && reg.CheckinToken == token {
			return reg, nil
		}
	}
	return registration.Registration{}, registration.ErrNotFound
}

type TemplatesRepo struct{ s *Store }

func (s *Store) Templates() *TemplatesRepo { return &TemplatesRepo{s: s} }

func (r *TemplatesRepo) GetByID(_ context.Context, id string) (template.Template, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.templates[id]
	if !ok || t.ID != id {
		return template.Template{}, template.ErrNotFound
	}
	return t, nil
}

func (r *TemplatesRepo) GetActive(_ context.Context, eventID string, kind template.Kind) (template.Template, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.templates[activeKey(eventID, kind)]
	if !ok {
		return template.Template{}, template.ErrNotFound
	}
	return t, nil
}

type StationsRepo struct{ s *Store }

func (s *Store) Stations() *StationsRepo { return &StationsRepo{s: s} }

func (r *StationsRepo) Create(_ context.Context, req station.CreateStationRequest) (station.Station, error) {
	st := station.NewFromCreateRequest(req)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.templates[st.TemplateID]; !ok {
		return station.Station{}, template.ErrNotFound
	}
	r.s.stations[st.ID] = st
	return st, nil
}

func (r *StationsRepo) GetByID(_ context.Context, id string) (station.Station, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	st, ok := r.s.stations[id]
	if !ok {
		return station.Station{}, station.ErrNotFound
	}
	return st, nil
}

func (r *StationsRepo) Revoke(_ context.Context, id string) (station.Station, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	st, ok := r.s.stations[id]
	if !ok {
		return station.Station{}, station.ErrNotFound
	}
	if st.RevokedAt == nil {
		now := time.Now().UTC()
		st.RevokedAt = &now
		r.s.stations[id] = st
	}
	return st, nil
}
