package main

import (
	"context"
	"os"

	"github.com/docflow-io/docflow/backend/internal/config"
	"github.com/docflow-io/docflow/backend/internal/models"
	"github.com/docflow-io/docflow/backend/internal/services"
	"github.com/docflow-io/docflow/backend/internal/utils"
	"github.com/docflow-io/docflow/backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Server.LogLevel)

	// Initialize JWT secret
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Nightly audit retention sweep
	services.StartCleanupScheduler(models.GetDB(), cfg.Audit.RetentionDays)

	// Object storage for documents
	storage, err := services.NewStorageService(&cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize object storage: %v", err)
	}
	if err := storage.EnsureBucket(context.Background()); err != nil {
		logger.Warnf("Failed to ensure bucket %q: %v", cfg.Storage.Bucket, err)
	}

	// Ingest dispatch queue
	queue := services.InitTaskQueue(cfg)
	defer queue.Close()

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	r := setupRouter(cfg, storage, queue)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	logger.Infof("Server starting on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
