package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/eventprint/internal/domain/event"
	"github.com/geocoder89/eventprint/internal/domain/registration"
	"github.com/geocoder89/eventprint/internal/domain/template"
	"github.com/geocoder89/eventprint/internal/render"
	"github.com/geocoder89/eventprint/internal/render/placeholder"
	"github.com/geocoder89/eventprint/internal/utils"
)

type EventGetter interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
}

type RegistrationGetter interface {
	GetByID(ctx context.Context, id string) (registration.Registration, error)
}

type TemplateGetter interface {
	GetByID(ctx context.Context, id string) (template.Template, error)
	GetActive(ctx context.Context, eventID string, kind template.Kind) (template.Template, error)
}

type Renderer interface {
	Render(ctx context.Context, req render.Request) (render.Result, error)
}

const skippedHeader = "X-Render-Skipped"

type RenderHandler struct {
	events    EventGetter
	regs      RegistrationGetter
	templates TemplateGetter
	engine    Renderer
	timeout   time.Duration
}

func NewRenderHandler(events EventGetter, regs RegistrationGetter, templates TemplateGetter, engine Renderer, timeout time.Duration) *RenderHandler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RenderHandler{events: events, regs: regs, templates: templates, engine: engine, timeout: timeout}
}

// Certificate renders the event's active certificate for one attendee.
func (h *RenderHandler) Certificate(ctx *gin.Context) {
	h.renderActive(ctx, template.KindCertificate, render.KindDocument)
}

// Badge renders the active badge as a PDF or, with format=zpl, as a label.
func (h *RenderHandler) Badge(ctx *gin.Context) {
	kind, ok := outputKind(ctx.DefaultQuery("format", "pdf"))
	if !ok {
		RespondBadRequest(ctx, "format must be pdf or zpl", nil)
		return
	}
	h.renderActive(ctx, template.KindBadge, kind)
}

func (h *RenderHandler) renderActive(ctx *gin.Context, tk template.Kind, kind render.Kind) {
	eventID := ctx.Param("id")
	regID := ctx.Param("registrationId")

	if !utils.IsUUID(eventID) || !utils.IsUUID(regID) {
		RespondBadRequest(ctx, "event and registration ids must be valid UUIDs", nil)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	ev, reg, ok := loadAttendee(ctx, cctx, h.events, h.regs, eventID, regID)
	if !ok {
		return
	}

	tpl, err := h.templates.GetActive(cctx, eventID, tk)
	if err != nil {
		if errors.Is(err, template.ErrNotFound) {
			RespondError(ctx, http.StatusNotFound, "no_active_template", fmt.Sprintf("Event has no active %s template", tk), nil)
			return
		}
		RespondInternal(ctx, "Could not load template")
		return
	}

	res, err := h.engine.Render(cctx, render.Request{
		Template: tpl,
		Context:  placeholder.FromRecords(ev, reg),
		Kind:     kind,
	})
	if err != nil {
		RespondRenderError(ctx, err)
		return
	}

	writeOutput(ctx, res, fmt.Sprintf("%s-%s", tk, reg.ID), "attachment")
}

type PreviewRequest struct {
	Template       template.Template `json:"template"`
	RegistrationID string            `json:"registrationId" binding:"omitempty,uuid"`
	Format         string            `json:"format" binding:"omitempty,oneof=pdf zpl"`
}

// Preview renders an unsaved template, against a real attendee when one is
// named and against sample data otherwise.
func (h *RenderHandler) Preview(ctx *gin.Context) {
	eventID := ctx.Param("id")
	if !utils.IsUUID(eventID) {
		RespondBadRequest(ctx, "event id must be a valid UUID", nil)
		return
	}

	var req PreviewRequest
	if !BindJSON(ctx, &req) {
		return
	}

	kind, _ := outputKind(req.Format)

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	var rc placeholder.Context
	if req.RegistrationID != "" {
		ev, reg, ok := loadAttendee(ctx, cctx, h.events, h.regs, eventID, req.RegistrationID)
		if !ok {
			return
		}
		rc = placeholder.FromRecords(ev, reg)
	} else {
		ev, err := h.events.GetByID(cctx, eventID)
		if err != nil {
			respondLookupError(ctx, err)
			return
		}
		rc = placeholder.Sample(ev)
	}

	tpl := req.Template
	tpl.EventID = eventID

	res, err := h.engine.Render(cctx, render.Request{Template: tpl, Context: rc, Kind: kind})
	if err != nil {
		RespondRenderError(ctx, err)
		return
	}

	writeOutput(ctx, res, "preview", "inline")
}

func outputKind(format string) (render.Kind, bool) {
	switch format {
	case "", "pdf":
		return render.KindDocument, true
	case "zpl":
		return render.KindPrinterCommand, true
	default:
		return "", false
	}
}

// loadAttendee fetches a registration and its event, writing the response
// itself when either is missing or belongs elsewhere.
func loadAttendee(ctx *gin.Context, cctx context.Context, events EventGetter, regs RegistrationGetter, eventID, regID string) (event.Event, registration.Registration, bool) {
	reg, err := regs.GetByID(cctx, regID)
	if err != nil {
		respondLookupError(ctx, err)
		return event.Event{}, registration.Registration{}, false
	}
	if reg.EventID != eventID {
		RespondNotFound(ctx, "Registration not found")
		return event.Event{}, registration.Registration{}, false
	}

	ev, err := events.GetByID(cctx, eventID)
	if err != nil {
		respondLookupError(ctx, err)
		return event.Event{}, registration.Registration{}, false
	}
	return ev, reg, true
}

func respondLookupError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, event.ErrNotFound):
		RespondNotFound(ctx, "Event not found")
	case errors.Is(err, registration.ErrNotFound):
		RespondNotFound(ctx, "Registration not found")
	case errors.Is(err, template.ErrNotFound):
		RespondNotFound(ctx, "Template not found")
	default:
		RespondInternal(ctx, "Could not load records")
	}
}

func writeOutput(ctx *gin.Context, res render.Result, name, disposition string) {
	ext := "pdf"
	if res.Kind == render.KindPrinterCommand {
		ext = "zpl"
	}

	ctx.Header("Content-Disposition", fmt.Sprintf(`%s; filename="%s.%s"`, disposition, name, ext))
	ctx.Header(skippedHeader, strconv.Itoa(len(res.Skipped)))
	ctx.Data(http.StatusOK, res.ContentType, res.Bytes)
}
