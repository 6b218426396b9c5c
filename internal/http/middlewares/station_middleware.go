package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/eventprint/internal/actorctx"
	"github.com/geocoder89/eventprint/internal/auth"
	"github.com/geocoder89/eventprint/internal/domain/station"
)

type StationTokenVerifier interface {
	VerifyStationToken(token string) (*auth.Claims, error)
}

type StationLoader interface {
	GetByID(ctx context.Context, id string) (station.Station, error)
}

// StationAuth admits print kiosks. The token only names the station; the
// stored record decides whether it is still allowed to print.
type StationAuth struct {
	jwt      StationTokenVerifier
	stations StationLoader
}

func NewStationAuth(jwt StationTokenVerifier, stations StationLoader) *StationAuth {
	return &StationAuth{jwt: jwt, stations: stations}
}

func (m *StationAuth) RequireStation() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			abortWith(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
			return
		}

		claims, err := m.jwt.VerifyStationToken(raw)
		if err != nil {
			abortWith(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired station token")
			return
		}

		st, err := m.stations.GetByID(c.Request.Context(), claims.StationID)
		if err != nil {
			if errors.Is(err, station.ErrNotFound) {
				abortWith(c, http.StatusUnauthorized, "unauthorized", "Unknown station")
				return
			}
			slog.Default().ErrorContext(c.Request.Context(), "station lookup failed", "station_id", claims.StationID, "err", err)
			abortWith(c, http.StatusInternalServerError, "internal_error", "Could not load station")
			return
		}

		if st.EventID != claims.EventID {
			abortWith(c, http.StatusUnauthorized, "unauthorized", "Station token does not match station")
			return
		}
		if st.Revoked() {
			abortWith(c, http.StatusForbidden, "station_revoked", "Station has been revoked")
			return
		}

		c.Set(CtxStation, st)
		c.Request = c.Request.WithContext(actorctx.WithStation(c.Request.Context(), st))

		c.Next()
	}
}

func StationFromContext(c *gin.Context) (station.Station, bool) {
	v, ok := c.Get(CtxStation)
	if !ok {
		return station.Station{}, false
	}
	st, ok := v.(station.Station)
	return st, ok
}
