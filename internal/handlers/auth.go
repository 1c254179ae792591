package handlers

import (
	"errors"
	"net/http"

	"github.com/docflow-io/docflow/backend/internal/config"
	"github.com/docflow-io/docflow/backend/internal/middleware"
	"github.com/docflow-io/docflow/backend/internal/services"
	"github.com/docflow-io/docflow/backend/pkg/logger"
	"github.com/docflow-io/docflow/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthHandler struct {
	authService *services.AuthService
	cookies     refreshCookies
	csrf        *middleware.CSRF
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config, csrf *middleware.CSRF) *AuthHandler {
	return &AuthHandler{
		authService: services.NewAuthService(db, &cfg.JWT, &cfg.Refresh),
		cookies:     refreshCookies{cfg: &cfg.Refresh},
		csrf:        csrf,
	}
}

// CSRFToken issues a CSRF token for the state-changing auth endpoints.
// GET /auth/csrf
func (h *AuthHandler) CSRFToken(c *gin.Context) {
	token, err := h.csrf.IssueToken(c)
	if err != nil {
		logger.Error().Err(err).Msg("csrf token generation failed")
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"csrfToken": token})
}

// Register creates a password account.
// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.CodeValidation)
		return
	}

	user, err := h.authService.Register(&req, requestInfo(c))
	if err != nil {
		if errors.Is(err, services.ErrEmailExists) {
			response.Fail(c, http.StatusConflict, response.CodeEmailExists)
			return
		}
		logger.Error().Err(err).Msg("register failed")
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{"user": gin.H{
		"id":        user.ID,
		"email":     user.Email,
		"createdAt": user.CreatedAt,
	}})
}

// Login authenticates and issues an access/refresh pair. The refresh secret
// travels in the cookie; it is echoed in the body only on request.
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.CodeValidation)
		return
	}

	pair, err := h.authService.Login(&req, requestInfo(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPasswordRequired):
			response.Fail(c, http.StatusBadRequest, response.CodePasswordRequired)
		case errors.Is(err, services.ErrInvalidCredentials):
			response.Fail(c, http.StatusUnauthorized, response.CodeInvalidCredentials)
		default:
			logger.Error().Err(err).Msg("login failed")
			response.Error(c, err)
		}
		return
	}

	h.cookies.set(c, pair.RefreshSecret)

	body := gin.H{"accessToken": pair.AccessToken}
	if req.ReturnRefreshToken {
		body["refreshToken"] = pair.RefreshSecret
	}
	response.OK(c, body)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh rotates the presented refresh secret.
// POST /auth/refresh (CSRF protected)
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Fail(c, http.StatusBadRequest, response.CodeValidation)
			return
		}
	}

	secret := req.RefreshToken
	if secret == "" {
		secret = h.cookies.get(c)
	}
	if secret == "" {
		response.Fail(c, http.StatusBadRequest, response.CodeRefreshTokenRequired)
		return
	}

	pair, err := h.authService.Rotate(secret, requestInfo(c))
	if err != nil {
		h.cookies.clear(c)
		switch {
		case errors.Is(err, services.ErrRefreshTokenReuse):
			response.Fail(c, http.StatusUnauthorized, response.CodeRefreshTokenReuse)
		case errors.Is(err, services.ErrRefreshTokenExpired):
			response.Fail(c, http.StatusUnauthorized, response.CodeRefreshTokenExpired)
		case errors.Is(err, services.ErrInvalidRefreshToken), errors.Is(err, services.ErrConcurrentRotation):
			response.Fail(c, http.StatusUnauthorized, response.CodeInvalidRefreshToken)
		default:
			logger.Error().Err(err).Msg("refresh failed")
			response.Error(c, err)
		}
		return
	}

	h.cookies.set(c, pair.RefreshSecret)
	response.OK(c, gin.H{"accessToken": pair.AccessToken})
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Logout revokes the presented refresh secret and clears the cookie.
// Unknown secrets are a no-op; only a store failure is an error.
// POST /auth/logout (CSRF protected)
func (h *AuthHandler) Logout(c *gin.Context) {
	var req logoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Fail(c, http.StatusBadRequest, response.CodeValidation)
			return
		}
	}

	secret := req.RefreshToken
	if secret == "" {
		secret = h.cookies.get(c)
	}

	if _, err := h.authService.Logout(secret, requestInfo(c)); err != nil {
		logger.Error().Err(err).Msg("logout failed")
		response.Error(c, err)
		return
	}
	h.cookies.clear(c)

	response.OK(c, nil)
}
