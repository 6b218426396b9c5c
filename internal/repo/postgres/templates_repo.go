package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geocoder89/eventprint/internal/domain/template"
	"github.com/geocoder89/eventprint/internal/observability"
)

// TemplatesRepo stores each template's layout as one JSONB document. The
// identifying columns are authoritative over whatever the document repeats.
type TemplatesRepo struct {
	instrumented
	pool *pgxpool.Pool
}

func NewTemplatesRepo(pool *pgxpool.Pool, prom *observability.Prom) *TemplatesRepo {
	return &TemplatesRepo{
		instrumented: instrumented{prom: prom},
		pool:         pool,
	}
}

func scanTemplate(row pgx.Row) (template.Template, error) {
	var (
		t   template.Template
		doc []byte
	)

	var id, eventID, kind string
	if err := row.Scan(&id, &eventID, &kind, &doc, &t.UpdatedAt); err != nil {
		return template.Template{}, err
	}

	updated := t.UpdatedAt
	if err := json.Unmarshal(doc, &t); err != nil {
		return template.Template{}, fmt.Errorf("decode template %s: %w", id, err)
	}

	t.ID = id
	t.EventID = eventID
	t.Kind = template.Kind(kind)
	t.UpdatedAt = updated
	return t, nil
}

func (r *TemplatesRepo) GetByID(ctx context.Context, id string) (t template.Template, err error) {
	err = r.observe("templates.get_by_id", func() error {
		t, err = scanTemplate(r.pool.QueryRow(ctx, `
		SELECT id, event_id, kind, definition, updated_at
		FROM templates
		WHERE id = $1
	`, id))
		return err
	})

	if errors.Is(err, pgx.ErrNoRows) {
		err = template.ErrNotFound
	}
	return
}

// GetActive returns the event's current template of the given kind.
func (r *TemplatesRepo) GetActive(ctx context.Context, eventID string, kind template.Kind) (t template.Template, err error) {
	err = r.observe("templates.get_active", func() error {
		t, err = scanTemplate(r.pool.QueryRow(ctx, `
		SELECT id, event_id, kind, definition, updated_at
		FROM templates
		WHERE event_id = $1 AND kind = $2 AND is_active
	`, eventID, string(kind)))
		return err
	})

	if errors.Is(err, pgx.ErrNoRows) {
		err = template.ErrNotFound
	}
	return
}
