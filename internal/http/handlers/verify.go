package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/eventprint/internal/domain/registration"
)

type RegistrationTokenLookup interface {
	GetByCheckinToken(ctx context.Context, token string) (registration.Registration, error)
}

type VerifyHandler struct {
	regs   RegistrationTokenLookup
	events EventGetter
}

func NewVerifyHandler(regs RegistrationTokenLookup, events EventGetter) *VerifyHandler {
	return &VerifyHandler{regs: regs, events: events}
}

// VerifyResponse is what a scanned badge or certificate QR code resolves to.
type VerifyResponse struct {
	Valid          bool   `json:"valid"`
	RegistrationID string `json:"registrationId,omitempty"`
	EventID        string `json:"eventId,omitempty"`
	EventTitle     string `json:"eventTitle,omitempty"`
	Name           string `json:"name,omitempty"`
	CheckedIn      bool   `json:"checkedIn"`
}

func (h *VerifyHandler) Verify(ctx *gin.Context) {
	token := ctx.Param("token")
	if token == "" || len(token) > 128 {
		ctx.JSON(http.StatusNotFound, VerifyResponse{})
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	reg, err := h.regs.GetByCheckinToken(cctx, token)
	if err != nil {
		if errors.Is(err, registration.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, VerifyResponse{})
			return
		}
		RespondInternal(ctx, "Could not verify token")
		return
	}

	resp := VerifyResponse{
		Valid:          true,
		RegistrationID: reg.ID,
		EventID:        reg.EventID,
		Name:           reg.FullName(),
		CheckedIn:      reg.CheckedIn(),
	}

	// the title is a nicety; a missing event does not make the token invalid
	if ev, err := h.events.GetByID(cctx, reg.EventID); err == nil {
		resp.EventTitle = ev.Title
	}

	ctx.JSON(http.StatusOK, resp)
}
