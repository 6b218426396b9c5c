package utils

import (
	"strings"

	"github.com/google/uuid"
)

// BuildActiveTemplateCacheKey keys the active template of one kind for an event.
func BuildActiveTemplateCacheKey(eventID, kind string) string {
	return "templates:active:v1:event=" + strings.ToLower(strings.TrimSpace(eventID)) +
		":kind=" + strings.ToLower(strings.TrimSpace(kind))
}

func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// BuildTemplateCacheKey keys a template by id.
func BuildTemplateCacheKey(id string) string {
	return "templates:id:v1:" + strings.ToLower(strings.TrimSpace(id))
}
