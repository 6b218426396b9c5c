// Package actorctx carries the authenticated caller on a request context so
// code below the HTTP layer can log and authorize without gin.
package actorctx

import (
	"context"

	"github.com/geocoder89/eventprint/internal/domain/station"
)

type ctxKey string

const (
	keyUserID  ctxKey = "user_id"
	keyStation ctxKey = "station"
)

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, keyUserID, userID)
}

func UserIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyUserID).(string)

	return v, ok && v != ""
}

func WithStation(ctx context.Context, st station.Station) context.Context {
	return context.WithValue(ctx, keyStation, st)
}

func StationFrom(ctx context.Context) (station.Station, bool) {
	st, ok := ctx.Value(keyStation).(station.Station)

	return st, ok && st.ID != ""
}
