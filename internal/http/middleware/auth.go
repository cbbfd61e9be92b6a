// README: Bearer/cookie token authentication and role gating.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ryde/internal/types"
)

const (
	principalKey = "ryde.principal"
	tokenKey     = "ryde.token"
	// TokenCookie carries the session token for browser clients.
	TokenCookie = "token"
)

// Authenticator resolves a raw token to the caller.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (types.Principal, error)
}

// Auth rejects the request with 401 unless it carries a valid token in the
// Authorization header or the token cookie.
func Auth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			abortJSON(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		p, err := a.Authenticate(c.Request.Context(), raw)
		if err != nil {
			abortJSON(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		c.Set(principalKey, p)
		c.Set(tokenKey, raw)
		c.Next()
	}
}

// RequireRole must run after Auth.
func RequireRole(role types.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := Principal(c)
		if p.ID == "" {
			abortJSON(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		if p.Role != role {
			abortJSON(c, http.StatusForbidden, "forbidden")
			return
		}
		c.Next()
	}
}

// Principal returns the authenticated caller, or the zero value.
func Principal(c *gin.Context) types.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(types.Principal); ok {
			return p
		}
	}
	return types.Principal{}
}

func Token(c *gin.Context) string {
	return c.GetString(tokenKey)
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, tok, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(tok)
	}
	if tok, err := c.Cookie(TokenCookie); err == nil {
		return tok
	}
	return ""
}

func abortJSON(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
