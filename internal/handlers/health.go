package handlers

import (
	"net/http"

	"github.com/docflow-io/docflow/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check reports liveness and database reachability.
// GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		response.Fail(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE")
		return
	}
	response.OK(c, gin.H{"db": "ok"})
}
