package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/playsolmates/warden/core"
	"github.com/playsolmates/warden/service"
)

const identityKey = "identity"

// SessionMiddleware resolves the caller's session from the cookie or, for
// programmatic clients, a Bearer header. Resolution failure is treated
// exactly like absence: the request proceeds without an identity and no
// caller can tell a tampered credential from a missing one.
func SessionMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(SessionCookieName)
		if token == "" {
			if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				token = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if identity := authService.ResolveSession(c.Request.Context(), token); identity != nil {
			c.Set(identityKey, identity)
		}

		c.Next()
	}
}

// RequireSession aborts with 401 when no identity was resolved.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IdentityFromContext(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		c.Next()
	}
}

// IdentityFromContext returns the resolved identity, or nil.
func IdentityFromContext(c *gin.Context) *core.Identity {
	v, exists := c.Get(identityKey)
	if !exists {
		return nil
	}

	identity, ok := v.(*core.Identity)
	if !ok {
		return nil
	}

	return identity
}
