package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geocoder89/eventprint/internal/domain/station"
	"github.com/geocoder89/eventprint/internal/domain/template"
	"github.com/geocoder89/eventprint/internal/observability"
)

type StationsRepo struct {
	instrumented
	pool *pgxpool.Pool
}

func NewStationsRepo(pool *pgxpool.Pool, prom *observability.Prom) *StationsRepo {
	return &StationsRepo{
		instrumented: instrumented{prom: prom},
		pool:         pool,
	}
}

func (r *StationsRepo) Create(ctx context.Context, req station.CreateStationRequest) (station.Station, error) {
	st := station.NewFromCreateRequest(req)

	ticketTypes := st.TicketTypeIDs
	if ticketTypes == nil {
		ticketTypes = []string{}
	}

	err := r.observe("stations.create", func() error {
		_, e := r.pool.Exec(ctx, `
		INSERT INTO stations (id, event_id, template_id, name, ticket_type_ids, require_checked_in, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, st.ID, st.EventID, st.TemplateID, st.Name, ticketTypes, st.RequireCheckedIn, st.CreatedAt)
		return e
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" && pgErr.ConstraintName == "stations_template_fk" {
			return station.Station{}, template.ErrNotFound
		}
		return station.Station{}, err
	}

	return st, nil
}

func (r *StationsRepo) GetByID(ctx context.Context, id string) (station.Station, error) {
	var st station.Station

	err := r.observe("stations.get_by_id", func() error {
		return r.pool.QueryRow(ctx, `
		SELECT id, event_id, template_id, name, ticket_type_ids, require_checked_in, created_at, revoked_at
		FROM stations
		WHERE id = $1
	`, id).Scan(&st.ID, &st.EventID, &st.TemplateID, &st.Name, &st.TicketTypeIDs, &st.RequireCheckedIn, &st.CreatedAt, &st.RevokedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return station.Station{}, station.ErrNotFound
		}
		return station.Station{}, err
	}

	return st, nil
}

// Revoke is idempotent; the first revocation time is kept.
func (r *StationsRepo) Revoke(ctx context.Context, id string) (station.Station, error) {
	var st station.Station

	err := r.observe("stations.revoke", func() error {
		return r.pool.QueryRow(ctx, `
		UPDATE stations
		SET revoked_at = COALESCE(revoked_at, $2)
		WHERE id = $1
		RETURNING id, event_id, template_id, name, ticket_type_ids, require_checked_in, created_at, revoked_at
	`, id, time.Now().UTC()).Scan(&st.ID, &st.EventID, &st.TemplateID, &st.Name, &st.TicketTypeIDs, &st.RequireCheckedIn, &st.CreatedAt, &st.RevokedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return station.Station{}, station.ErrNotFound
		}
		return station.Station{}, err
	}

	return st, nil
}
