package middleware

import (
	"context"
	"strings"

	"starter-server/apperrors"
	"starter-server/entities"
	"starter-server/logger"
	"starter-server/usecases"

	"github.com/gin-gonic/gin"
)

const (
	// SessionCookie carries the session token for browser clients.
	SessionCookie = "session"

	principalKey     = "principal"
	accessTokenParam = "access_token"
)

// Authenticator resolves a session token to its principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*usecases.Principal, error)
}

// Auth requires a valid session token from the Authorization header or the
// session cookie. Websocket handshakes may pass it as access_token.
func Auth(authn Authenticator, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := authn.Authenticate(c.Request.Context(), TokenFromRequest(c))
		if err != nil {
			AbortWithError(c, log, err)
			return
		}
		c.Set(principalKey, *p)
		c.Request = c.Request.WithContext(usecases.WithPrincipal(c.Request.Context(), *p))
		c.Next()
	}
}

// RequireRole rejects principals without the role. Must run after Auth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok {
			AbortWithError(c, nil, apperrors.Unauthorized("authentication required"))
			return
		}
		if p.Role != role {
			AbortWithError(c, nil, apperrors.Forbidden("requires the "+role+" role"))
			return
		}
		c.Next()
	}
}

// RequireAdmin is RequireRole for the admin role.
func RequireAdmin() gin.HandlerFunc { return RequireRole(entities.RoleAdmin) }

// CurrentPrincipal returns the principal set by Auth.
func CurrentPrincipal(c *gin.Context) (usecases.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return usecases.Principal{}, false
	}
	p, ok := v.(usecases.Principal)
	return p, ok
}

// TokenFromRequest extracts the session token, preferring the bearer header.
func TokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return c.Query(accessTokenParam)
	}
	return ""
}
