package middlewares

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireRole admits any of the given roles. RequireAuth must run first.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	need := strings.Join(roles, " or ")
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)
		if !ok {
			abortWith(c, http.StatusUnauthorized, "unauthorized", "Missing identity context")
			return
		}
		if !slices.Contains(roles, role) {
			abortWith(c, http.StatusForbidden, "forbidden", need+" role required")
			return
		}
		c.Next()
	}
}
