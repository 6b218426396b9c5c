package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/eventprint/internal/domain/station"
	"github.com/geocoder89/eventprint/internal/domain/template"
	"github.com/geocoder89/eventprint/internal/utils"
)

type StationStore interface {
	Create(ctx context.Context, req station.CreateStationRequest) (station.Station, error)
	Revoke(ctx context.Context, id string) (station.Station, error)
}

type StationTokenIssuer interface {
	GenerateStationToken(stationID, eventID string) (string, time.Time, error)
}

type StationsHandler struct {
	stations  StationStore
	events    EventGetter
	templates TemplateGetter
	tokens    StationTokenIssuer
}

func NewStationsHandler(stations StationStore, events EventGetter, templates TemplateGetter, tokens StationTokenIssuer) *StationsHandler {
	return &StationsHandler{stations: stations, events: events, templates: templates, tokens: tokens}
}

type CreateStationResponse struct {
	Station   station.Station `json:"station"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// Create registers a kiosk for an event and returns its capability token.
// The token is shown once; a lost token means revoking and issuing again.
func (h *StationsHandler) Create(ctx *gin.Context) {
	eventID := ctx.Param("id")
	if !utils.IsUUID(eventID) {
		RespondBadRequest(ctx, "event id must be a valid UUID", nil)
		return
	}

	var req station.CreateStationRequest
	if !BindJSON(ctx, &req) {
		return
	}
	req.EventID = eventID

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if _, err := h.events.GetByID(cctx, eventID); err != nil {
		respondLookupError(ctx, err)
		return
	}

	tpl, err := h.templates.GetByID(cctx, req.TemplateID)
	if err != nil && !errors.Is(err, template.ErrNotFound) {
		RespondInternal(ctx, "Could not load template")
		return
	}
	if err != nil || tpl.EventID != eventID || tpl.Kind != template.KindBadge {
		RespondBadRequest(ctx, "templateId must name a badge template of this event", nil)
		return
	}

	st, err := h.stations.Create(cctx, req)
	if err != nil {
		if errors.Is(err, template.ErrNotFound) {
			RespondBadRequest(ctx, "templateId must name a badge template of this event", nil)
			return
		}
		RespondInternal(ctx, "Could not create station")
		return
	}

	token, expiresAt, err := h.tokens.GenerateStationToken(st.ID, st.EventID)
	if err != nil {
		RespondInternal(ctx, "Could not issue station token")
		return
	}

	ctx.JSON(http.StatusCreated, CreateStationResponse{Station: st, Token: token, ExpiresAt: expiresAt})
}

// Revoke disables a station at once; its token stops working on the next request.
func (h *StationsHandler) Revoke(ctx *gin.Context) {
	id := ctx.Param("stationId")
	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "station id must be a valid UUID", nil)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	st, err := h.stations.Revoke(cctx, id)
	if err != nil {
		if errors.Is(err, station.ErrNotFound) {
			RespondNotFound(ctx, "Station not found")
			return
		}
		RespondInternal(ctx, "Could not revoke station")
		return
	}

	ctx.JSON(http.StatusOK, st)
}
