package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/eventprint/internal/domain/station"
	"github.com/geocoder89/eventprint/internal/http/middlewares"
	"github.com/geocoder89/eventprint/internal/printer"
	"github.com/geocoder89/eventprint/internal/render"
	"github.com/geocoder89/eventprint/internal/render/layout"
	"github.com/geocoder89/eventprint/internal/render/placeholder"
)

type StationPrintHandler struct {
	events      EventGetter
	regs        RegistrationGetter
	templates   TemplateGetter
	engine      Renderer
	defaultPort int
	timeout     time.Duration
}

func NewStationPrintHandler(events EventGetter, regs RegistrationGetter, templates TemplateGetter, engine Renderer, defaultPort int, timeout time.Duration) *StationPrintHandler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &StationPrintHandler{
		events:      events,
		regs:        regs,
		templates:   templates,
		engine:      engine,
		defaultPort: defaultPort,
		timeout:     timeout,
	}
}

type PrintRequest struct {
	RegistrationID string                `json:"registrationId" binding:"required,uuid"`
	Printer        *render.PrinterTarget `json:"printer"`
}

type PrintResponse struct {
	Success bool          `json:"success"`
	Error   *APIError     `json:"error,omitempty"`
	Preview string        `json:"preview"`
	Skipped []layout.Skip `json:"skipped,omitempty"`
}

// Print renders the station's badge for one attendee. Without a printer the
// label is returned for the kiosk to forward; with one the service sends it.
func (h *StationPrintHandler) Print(ctx *gin.Context) {
	st, ok := middlewares.StationFromContext(ctx)
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", "Missing station identity", nil)
		return
	}

	var req PrintRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	reg, err := h.regs.GetByID(cctx, req.RegistrationID)
	if err != nil {
		respondLookupError(ctx, err)
		return
	}

	if err := st.Admit(reg.EventID, reg.TicketTypeID, reg.CheckedIn()); err != nil {
		respondAdmitError(ctx, err)
		return
	}

	ev, err := h.events.GetByID(cctx, st.EventID)
	if err != nil {
		respondLookupError(ctx, err)
		return
	}

	tpl, err := h.templates.GetByID(cctx, st.TemplateID)
	if err != nil {
		respondLookupError(ctx, err)
		return
	}

	target := req.Printer
	if target != nil && target.Port == 0 {
		target.Port = h.defaultPort
	}

	res, err := h.engine.Render(cctx, render.Request{
		Template: tpl,
		Context:  placeholder.FromRecords(ev, reg),
		Kind:     render.KindPrinterCommand,
		Printer:  target,
	})

	var te *printer.TransportError
	switch {
	case err != nil && errors.As(err, &te) && res.Delivery != nil:
		status, code, message := transportStatus(err)
		apiErr := newAPIError(ctx, code, message, gin.H{"addr": te.Addr, "op": te.Op})
		ctx.JSON(status, PrintResponse{Error: &apiErr, Preview: res.Delivery.Preview, Skipped: res.Skipped})
	case err != nil:
		RespondRenderError(ctx, err)
	case res.Delivery != nil:
		ctx.JSON(http.StatusOK, PrintResponse{Success: true, Preview: res.Delivery.Preview, Skipped: res.Skipped})
	default:
		writeOutput(ctx, res, "badge-"+reg.ID, "attachment")
	}
}

func respondAdmitError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, station.ErrOutOfScope):
		RespondForbidden(ctx, "out_of_scope", "Registration belongs to another event")
	case errors.Is(err, station.ErrTicketTypeNotAllowed):
		RespondForbidden(ctx, "ticket_type_not_allowed", "This station does not print this ticket type")
	case errors.Is(err, station.ErrNotCheckedIn):
		RespondForbidden(ctx, "not_checked_in", "Attendee must check in before printing")
	default:
		RespondForbidden(ctx, "forbidden", err.Error())
	}
}
