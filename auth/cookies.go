package auth

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/gin-gonic/gin"

	"pine/common"
)

type cookieWriter struct {
	cfg common.CookieConfig
}

func (w cookieWriter) setTokenCookies(c *gin.Context, pair *TokenPair, accessLifetime, refreshLifetime time.Duration) error {
	w.setAccess(c, pair.Access, accessLifetime)
	w.set(c, RefreshCookie, pair.Refresh, int(refreshLifetime.Seconds()), true)

	csrf, err := generateToken()
	if err != nil {
		return err
	}
	w.set(c, CSRFCookie, csrf, int(refreshLifetime.Seconds()), false)
	return nil
}

func (w cookieWriter) setAccess(c *gin.Context, access string, lifetime time.Duration) {
	w.set(c, AccessCookie, access, int(lifetime.Seconds()), true)
}

func (w cookieWriter) clearTokenCookies(c *gin.Context) {
	w.set(c, AccessCookie, "", -1, true)
	w.set(c, RefreshCookie, "", -1, true)
}

func (w cookieWriter) set(c *gin.Context, name, value string, maxAge int, httpOnly bool) {
	c.SetSameSite(w.cfg.SameSite)
	c.SetCookie(name, value, maxAge, "/", w.cfg.Domain, w.cfg.Secure, httpOnly)
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
