package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/eventprint/internal/domain/template"
	"github.com/geocoder89/eventprint/internal/utils"
)

// TemplateInvalidator is implemented by the cached template repo.
type TemplateInvalidator interface {
	Invalidate(ctx context.Context, eventID string, kind template.Kind) error
}

type TemplatesHandler struct {
	templates TemplateGetter
	cache     TemplateInvalidator
}

func NewTemplatesHandler(templates TemplateGetter, cache TemplateInvalidator) *TemplatesHandler {
	return &TemplatesHandler{templates: templates, cache: cache}
}

func templateKind(ctx *gin.Context) (template.Kind, bool) {
	tk := template.Kind(ctx.DefaultQuery("kind", string(template.KindBadge)))
	if !tk.IsValid() {
		RespondBadRequest(ctx, "kind must be certificate or badge", nil)
		return "", false
	}
	return tk, true
}

// Active returns the template definition so editors can load it. Clients
// revalidate with If-None-Match.
func (h *TemplatesHandler) Active(ctx *gin.Context) {
	eventID := ctx.Param("id")
	if !utils.IsUUID(eventID) {
		RespondBadRequest(ctx, "event id must be a valid UUID", nil)
		return
	}
	tk, ok := templateKind(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	tpl, err := h.templates.GetActive(cctx, eventID, tk)
	if err != nil {
		if errors.Is(err, template.ErrNotFound) {
			RespondError(ctx, http.StatusNotFound, "no_active_template", fmt.Sprintf("Event has no active %s template", tk), nil)
			return
		}
		RespondInternal(ctx, "Could not load template")
		return
	}

	respondTemplate(ctx, tpl)
}

// Refresh drops the cached active template after it was changed upstream.
func (h *TemplatesHandler) Refresh(ctx *gin.Context) {
	eventID := ctx.Param("id")
	if !utils.IsUUID(eventID) {
		RespondBadRequest(ctx, "event id must be a valid UUID", nil)
		return
	}
	tk, ok := templateKind(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.cache.Invalidate(cctx, eventID, tk); err != nil {
		RespondInternal(ctx, "Could not refresh template cache")
		return
	}
	ctx.Status(http.StatusNoContent)
}
