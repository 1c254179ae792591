package main

import (
	"github.com/docflow-io/docflow/backend/internal/config"
	"github.com/docflow-io/docflow/backend/internal/handlers"
	"github.com/docflow-io/docflow/backend/internal/middleware"
	"github.com/docflow-io/docflow/backend/internal/models"
	"github.com/docflow-io/docflow/backend/internal/services"
	"github.com/docflow-io/docflow/backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

func setupRouter(cfg *config.Config, storage *services.StorageService, queue services.TaskQueue) *gin.Engine {
	r := gin.New()
	r.Use(logger.GinLogger())
	r.Use(logger.GinRecovery())
	r.Use(middleware.CORS())
	r.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))

	db := models.GetDB()
	csrf := middleware.NewCSRF(cfg.CSRF.Secret, cfg.Refresh.CookieSecure)

	authHandler := handlers.NewAuthHandler(db, cfg, csrf)
	sessionHandler := handlers.NewSessionHandler(db, cfg)
	authService := services.NewAuthService(db, &cfg.JWT, &cfg.Refresh)
	auditHandler := handlers.NewAuditHandler(db, authService)
	documentHandler := handlers.NewDocumentHandler(services.NewDocumentService(db, storage, queue))
	healthHandler := handlers.NewHealthHandler(db)

	r.GET("/health", healthHandler.Check)

	// Auth surface
	auth := r.Group("/auth")
	{
		auth.GET("/csrf", authHandler.CSRFToken)
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", csrf.Protect(), authHandler.Refresh)
		auth.POST("/logout", csrf.Protect(), authHandler.Logout)

		sessions := auth.Group("/sessions")
		sessions.Use(middleware.AuthRequired())
		{
			sessions.GET("", sessionHandler.List)
			sessions.DELETE("/:id", sessionHandler.RevokeOne)
			sessions.DELETE("", sessionHandler.RevokeOthers)
		}
	}

	// Documents
	protected := r.Group("")
	protected.Use(middleware.AuthRequired())
	{
		protected.POST("/upload", documentHandler.Upload)
		protected.GET("/documents", documentHandler.List)
		protected.GET("/documents/:id", documentHandler.GetByID)
		protected.GET("/documents/:id/status", documentHandler.Status)
		protected.GET("/documents/:id/download", documentHandler.Download)
		protected.DELETE("/documents/:id", documentHandler.Delete)

		protected.GET("/admin/audit", auditHandler.List)
	}

	return r
}
