package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"

	"github.com/docflow-io/docflow/backend/internal/utils"
	"github.com/docflow-io/docflow/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

const (
	csrfCookieName   = "docflow_csrf"
	csrfHeaderName   = "X-CSRF-Token"
	csrfTokenBytes   = 24
	csrfCookieMaxAge = 4 * 60 * 60
)

// CSRF implements a signed double-submit check: the plaintext token goes to
// the client body, its signed counterpart into an http-only cookie, and
// state-changing auth calls must present both.
type CSRF struct {
	secret string
	secure bool
}

func NewCSRF(secret string, secure bool) *CSRF {
	return &CSRF{secret: secret, secure: secure}
}

// IssueToken generates a fresh CSRF token, sets the signed cookie and
// returns the plaintext token for the response body.
func (m *CSRF) IssueToken(c *gin.Context) (string, error) {
	buf := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(csrfCookieName, utils.SignCookieValue(token, m.secret), csrfCookieMaxAge, "/", "", m.secure, true)
	return token, nil
}

// Protect rejects requests whose header token does not match the signed
// cookie token.
func (m *CSRF) Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(csrfHeaderName)
		if header == "" {
			response.Fail(c, http.StatusForbidden, response.CodeCSRFTokenInvalid)
			c.Abort()
			return
		}

		signed, err := c.Cookie(csrfCookieName)
		if err != nil {
			response.Fail(c, http.StatusForbidden, response.CodeCSRFTokenInvalid)
			c.Abort()
			return
		}

		token, err := utils.UnsignCookieValue(signed, m.secret)
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(header)) != 1 {
			response.Fail(c, http.StatusForbidden, response.CodeCSRFTokenInvalid)
			c.Abort()
			return
		}

		c.Next()
	}
}
