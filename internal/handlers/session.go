package handlers

import (
	"errors"
	"net/http"

	"github.com/docflow-io/docflow/backend/internal/config"
	"github.com/docflow-io/docflow/backend/internal/middleware"
	"github.com/docflow-io/docflow/backend/internal/services"
	"github.com/docflow-io/docflow/backend/internal/utils"
	"github.com/docflow-io/docflow/backend/pkg/logger"
	"github.com/docflow-io/docflow/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SessionHandler struct {
	sessions *services.SessionService
	cookies  refreshCookies
}

func NewSessionHandler(db *gorm.DB, cfg *config.Config) *SessionHandler {
	return &SessionHandler{
		sessions: services.NewSessionService(db),
		cookies:  refreshCookies{cfg: &cfg.Refresh},
	}
}

// currentDigest derives the digest of the caller's cookie secret, or ""
// when no valid cookie is presented.
func (h *SessionHandler) currentDigest(c *gin.Context) string {
	secret := h.cookies.get(c)
	if secret == "" {
		return ""
	}
	return utils.HashRefreshSecret(secret)
}

// List returns the caller's active sessions, marking the current one.
// GET /auth/sessions
func (h *SessionHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)

	views, err := h.sessions.ListActive(userID, h.currentDigest(c))
	if err != nil {
		logger.Error().Err(err).Msg("session list failed")
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"sessions": views})
}

// RevokeOne revokes a single session of the caller.
// DELETE /auth/sessions/:id
func (h *SessionHandler) RevokeOne(c *gin.Context) {
	userID := middleware.GetUserID(c)
	recordID := c.Param("id")

	err := h.sessions.RevokeOne(userID, recordID, h.currentDigest(c), requestInfo(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			response.Fail(c, http.StatusNotFound, response.CodeNotFound)
		case errors.Is(err, services.ErrCannotRevokeCurrent):
			response.Fail(c, http.StatusBadRequest, response.CodeCannotRevokeCurrent)
		default:
			logger.Error().Err(err).Msg("session revoke failed")
			response.Error(c, err)
		}
		return
	}

	response.OK(c, nil)
}

// RevokeOthers revokes every session of the caller except the current one.
// DELETE /auth/sessions
func (h *SessionHandler) RevokeOthers(c *gin.Context) {
	userID := middleware.GetUserID(c)

	revoked, err := h.sessions.RevokeOthers(userID, h.currentDigest(c), requestInfo(c))
	if err != nil {
		logger.Error().Err(err).Msg("session revoke-all failed")
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"revoked": revoked})
}
