package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/eventprint/internal/http/middlewares"
	"github.com/geocoder89/eventprint/internal/printer"
	"github.com/geocoder89/eventprint/internal/render"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if s := ctx.GetString(middlewares.CtxRequestID); s != "" {
		return s
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func newAPIError(ctx *gin.Context, code, message string, details interface{}) APIError {
	return APIError{
		Code:      code,
		Message:   message,
		RequestID: requestIDFrom(ctx),
		Details:   details,
	}
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{"error": newAPIError(ctx, code, message, details)})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondForbidden(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusForbidden, code, message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

// transportStatus maps a printer delivery failure onto a gateway status.
// A printer problem is never reported as a server fault.
func transportStatus(err error) (int, string, string) {
	switch {
	case errors.Is(err, printer.ErrCircuitOpen):
		return http.StatusBadGateway, "printer_unreachable", "Printer is failing repeatedly; retry shortly"
	case errors.Is(err, printer.ErrTimeout):
		return http.StatusGatewayTimeout, "printer_timeout", "Printer did not accept the label in time"
	default:
		return http.StatusBadGateway, "printer_unreachable", "Printer could not be reached"
	}
}

// RespondRenderError reports a failure from the render engine.
func RespondRenderError(ctx *gin.Context, err error) {
	var re *render.Error
	var te *printer.TransportError

	switch {
	case errors.As(err, &re) && re.Code == render.CodeInvalidInput:
		RespondError(ctx, http.StatusBadRequest, "invalid_template", re.Message, detailsOf(re))
	case errors.As(err, &te):
		status, code, message := transportStatus(err)
		RespondError(ctx, status, code, message, gin.H{"addr": te.Addr, "op": te.Op})
	case errors.Is(err, context.DeadlineExceeded):
		RespondError(ctx, http.StatusGatewayTimeout, "render_timeout", "Rendering took too long", nil)
	default:
		RespondError(ctx, http.StatusInternalServerError, "render_failed", "Could not render output", nil)
	}
}

func detailsOf(re *render.Error) interface{} {
	if re.Cause == nil {
		return nil
	}
	return gin.H{"reason": re.Cause.Error()}
}
