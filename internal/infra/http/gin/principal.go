package ginserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentnow/internal/app/principal"
)

// The upstream gateway authenticates callers and forwards their identity.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// PrincipalFromHeaders puts the gateway identity on the request context.
// A system role is never accepted from outside.
func PrincipalFromHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if id != "" {
			role := principal.ParseRole(c.GetHeader(HeaderUserRole))
			if role == principal.RoleSystem {
				role = principal.RoleGuest
			}
			ctx := principal.WithPrincipal(c.Request.Context(), principal.Principal{UserID: id, Role: role})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

func requireUser(c *gin.Context) (principal.Principal, bool) {
	p, ok := principal.FromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return principal.Principal{}, false
	}
	return p, true
}
