package handlers

import (
	"net/http"

	"github.com/docflow-io/docflow/backend/internal/config"
	"github.com/docflow-io/docflow/backend/internal/services"
	"github.com/docflow-io/docflow/backend/internal/utils"
	"github.com/gin-gonic/gin"
)

// refreshCookies handles delivery of the raw refresh secret: a signed,
// http-only, SameSite=Lax cookie scoped to the auth surface with max-age
// equal to the refresh TTL.
type refreshCookies struct {
	cfg *config.RefreshConfig
}

func (rc refreshCookies) set(c *gin.Context, secret string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		rc.cfg.CookieName,
		utils.SignCookieValue(secret, rc.cfg.CookieSecret),
		rc.cfg.TTLSeconds(),
		rc.cfg.CookiePath,
		"",
		rc.cfg.CookieSecure,
		true,
	)
}

func (rc refreshCookies) clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(rc.cfg.CookieName, "", -1, rc.cfg.CookiePath, "", rc.cfg.CookieSecure, true)
}

// get returns the raw refresh secret from the signed cookie, or "" when the
// cookie is absent or its signature does not verify.
func (rc refreshCookies) get(c *gin.Context) string {
	signed, err := c.Cookie(rc.cfg.CookieName)
	if err != nil || signed == "" {
		return ""
	}
	secret, err := utils.UnsignCookieValue(signed, rc.cfg.CookieSecret)
	if err != nil {
		return ""
	}
	return secret
}

// requestInfo captures caller provenance for the service layer.
func requestInfo(c *gin.Context) services.RequestInfo {
	return services.RequestInfo{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
