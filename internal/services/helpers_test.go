package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/docflow-io/docflow/backend/internal/config"
	"github.com/docflow-io/docflow/backend/internal/models"
	"github.com/docflow-io/docflow/backend/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBSeq int64

func init() {
	utils.SetJWTSecret("test-secret-for-service-tests")
}

// newTestDB opens a fresh in-memory sqlite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:services_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	// A single connection keeps the shared in-memory database alive for the
	// duration of the test.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&models.User{}, &models.RefreshToken{}, &models.Document{}, &models.AuditLog{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func testRefreshConfig() *config.RefreshConfig {
	return &config.RefreshConfig{
		TTLDays:       30,
		CookieName:    "docflow_refresh",
		CookieSecret:  "test-cookie-secret",
		CookiePath:    "/auth",
		AllowDevLogin: true,
	}
}

func newTestAuthService(db *gorm.DB) *AuthService {
	jwtCfg := &config.JWTConfig{Secret: "test-secret-for-service-tests", ExpireMinutes: 15}
	return NewAuthService(db, jwtCfg, testRefreshConfig())
}

var testInfo = RequestInfo{IP: "203.0.113.7", UserAgent: "test-agent"}

func registerAndLogin(t *testing.T, svc *AuthService, email string) *TokenPair {
	t.Helper()

	if _, err := svc.Register(&RegisterRequest{Email: email, Password: "password123"}, testInfo); err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	pair, err := svc.Login(&LoginRequest{Email: email, Password: "password123"}, testInfo)
	if err != nil {
		t.Fatalf("Login(%s): %v", email, err)
	}
	return pair
}

func countActive(t *testing.T, db *gorm.DB, userID string) int64 {
	t.Helper()

	var n int64
	if err := db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Count(&n).Error; err != nil {
		t.Fatalf("count active: %v", err)
	}
	return n
}
