package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geocoder89/eventprint/internal/domain/registration"
	"github.com/geocoder89/eventprint/internal/observability"
)

type RegistrationRepo struct {
	instrumented
	pool *pgxpool.Pool
}

func NewRegistrationsRepo(pool *pgxpool.Pool, prom *observability.Prom) *RegistrationRepo {
	return &RegistrationRepo{
		instrumented: instrumented{prom: prom},
		pool:         pool,
	}
}

const registrationColumns = `
	id, event_id, first_name, last_name, email, phone, company, job_title,
	ticket_type_id, ticket_type_name, checkin_token, checked_in_at, answers,
	created_at, updated_at`

func scanRegistration(row pgx.Row) (registration.Registration, error) {
	var r registration.Registration

	err := row.Scan(
		&r.ID, &r.EventID, &r.FirstName, &r.LastName, &r.Email, &r.Phone, &r.Company, &r.JobTitle,
		&r.TicketTypeID, &r.TicketTypeName, &r.CheckinToken, &r.CheckedInAt, &r.Answers,
		&r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

func (repo *RegistrationRepo) GetByID(ctx context.Context, id string) (reg registration.Registration, err error) {
	err = repo.observe("registrations.get_by_id", func() error {
		reg, err = scanRegistration(repo.pool.QueryRow(ctx,
			`SELECT`+registrationColumns+` FROM registrations WHERE id = $1`, id))
		return err
	})

	if errors.Is(err, pgx.ErrNoRows) {
		err = registration.ErrNotFound
	}
	return
}

// GetByCheckinToken backs the public verification lookup.
func (repo *RegistrationRepo) GetByCheckinToken(ctx context.Context, token string) (reg registration.Registration, err error) {
	err = repo.observe("registrations.get_by_checkin_token", func() error {
		reg, err = scanRegistration(repo.pool.QueryRow(ctx,
			`SELECT`+registrationColumns+` FROM registrations WHERE checkin_token = $1`, token))
		return err
	})

	if errors.Is(err, pgx.ErrNoRows) {
		err = registration.ErrNotFound
	}
	return
}
