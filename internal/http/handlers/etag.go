package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/eventprint/internal/domain/template"
)

// respondTemplate serves a template that kiosks poll. The validator is a
// digest of the served JSON, so any edit upstream changes it even when the
// stored timestamp does not.
func respondTemplate(ctx *gin.Context, tpl template.Template) {
	body, err := json.Marshal(tpl)
	if err != nil {
		RespondInternal(ctx, "Could not encode template")
		return
	}

	sum := sha256.Sum256(body)
	tag := `"` + tpl.ID + "-" + hex.EncodeToString(sum[:8]) + `"`

	h := ctx.Writer.Header()
	h.Set("ETag", tag)
	h.Set("Cache-Control", "private, no-cache")
	if !tpl.UpdatedAt.IsZero() {
		h.Set("Last-Modified", tpl.UpdatedAt.UTC().Format(http.TimeFormat))
	}

	if ifNoneMatch(ctx.GetHeader("If-None-Match"), tag) {
		ctx.Status(http.StatusNotModified)
		return
	}
	ctx.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// ifNoneMatch uses the weak comparison RFC 9110 prescribes for GET.
func ifNoneMatch(header, tag string) bool {
	if header = strings.TrimSpace(header); header == "" {
		return false
	}
	if header == "*" {
		return true
	}
	for _, part := range strings.Split(header, ",") {
		if strings.TrimPrefix(strings.TrimSpace(part), "W/") == tag {
			return true
		}
	}
	return false
}
