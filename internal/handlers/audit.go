package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/docflow-io/docflow/backend/internal/middleware"
	"github.com/docflow-io/docflow/backend/internal/services"
	"github.com/docflow-io/docflow/backend/pkg/logger"
	"github.com/docflow-io/docflow/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuditHandler struct {
	audit *services.AuditService
	auth  *services.AuthService
}

func NewAuditHandler(db *gorm.DB, auth *services.AuthService) *AuditHandler {
	return &AuditHandler{audit: services.NewAuditService(db), auth: auth}
}

// List returns recent audit entries. Admin only.
// GET /admin/audit
func (h *AuditHandler) List(c *gin.Context) {
	user, err := h.auth.GetUserByID(middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			response.Fail(c, http.StatusUnauthorized, response.CodeUnauthorized)
			return
		}
		logger.Error().Err(err).Msg("audit list failed")
		response.Error(c, err)
		return
	}
	if !user.IsAdmin {
		response.Fail(c, http.StatusForbidden, response.CodeForbidden)
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			response.Fail(c, http.StatusBadRequest, response.CodeValidation)
			return
		}
		limit = n
	}

	rows, err := h.audit.List(limit)
	if err != nil {
		logger.Error().Err(err).Msg("audit list failed")
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"audit": rows})
}
