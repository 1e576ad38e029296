package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"pine/common"
)

const (
	AccessCookie  = "access"
	RefreshCookie = "refresh"
	CSRFCookie    = "csrftoken"

	// RefreshHeader carries the refresh cookie to handlers that need it.
	RefreshHeader = "X-Refresh-Token"

	principalKey = "principal"
)

// SessionBridge copies the auth cookies onto the request headers so every
// downstream check reads credentials from one place. An Authorization header
// sent by the client wins over the cookie. It never validates anything and
// never aborts.
func SessionBridge() gin.HandlerFunc {
	return func(c *gin.Context) {
		if access, err := c.Cookie(AccessCookie); err == nil && access != "" && c.GetHeader("Authorization") == "" {
			c.Request.Header.Set("Authorization", "Bearer "+access)
		}
		if refresh, err := c.Cookie(RefreshCookie); err == nil && refresh != "" && c.GetHeader(RefreshHeader) == "" {
			c.Request.Header.Set(RefreshHeader, refresh)
		}
		c.Next()
	}
}

// RequireAuth rejects the request unless the Authorization header holds a
// valid access token, and attaches the principal to the context.
func (s *TokenService) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			common.RespondError(c, common.NewUnauthenticated("Authentication credentials were not provided."))
			return
		}

		principal, err := s.Validate(c.Request.Context(), raw)
		if err != nil {
			common.RespondError(c, err)
			return
		}

		c.Set(principalKey, principal)
		c.Set("user_id", principal.User.ID)
		c.Next()
	}
}

// bearerToken accepts both the "Bearer" and the "JWT" scheme.
func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return ""
	}
	switch strings.ToLower(scheme) {
	case "bearer", "jwt":
		return strings.TrimSpace(token)
	}
	return ""
}

// CurrentPrincipal returns the principal set by RequireAuth, or nil.
func CurrentPrincipal(c *gin.Context) *Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*Principal)
	return p
}

// CurrentUserID returns the authenticated user's id, or 0.
func CurrentUserID(c *gin.Context) uint {
	return c.GetUint("user_id")
}
