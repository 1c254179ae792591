package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/docflow-io/docflow/backend/internal/config"
	"github.com/docflow-io/docflow/backend/internal/middleware"
	"github.com/docflow-io/docflow/backend/internal/models"
	"github.com/docflow-io/docflow/backend/internal/services"
	"github.com/docflow-io/docflow/backend/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("test-secret-for-handler-tests")
}

var handlerDBSeq int64

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:        "test-secret-for-handler-tests",
			ExpireMinutes: 15,
		},
		Refresh: config.RefreshConfig{
			TTLDays:       30,
			CookieName:    "docflow_refresh",
			CookieSecret:  "test-cookie-secret",
			CookiePath:    "/auth",
			AllowDevLogin: true,
		},
		CSRF: config.CSRFConfig{Secret: "test-csrf-secret"},
	}
}

// newTestEnv wires the auth surface the way the server router does, backed
// by a fresh in-memory database.
func newTestEnv(t *testing.T) (*gin.Engine, *gorm.DB, *config.Config) {
	t.Helper()

	dsn := fmt.Sprintf("file:handlers_test_%d?mode=memory&cache=shared", atomic.AddInt64(&handlerDBSeq, 1))
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
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&models.User{}, &models.RefreshToken{}, &models.Document{}, &models.AuditLog{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	cfg := testConfig()
	csrf := middleware.NewCSRF(cfg.CSRF.Secret, cfg.Refresh.CookieSecure)
	authHandler := NewAuthHandler(db, cfg, csrf)
	sessionHandler := NewSessionHandler(db, cfg)
	auditHandler := NewAuditHandler(db, services.NewAuthService(db, &cfg.JWT, &cfg.Refresh))

	r := gin.New()
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

	r.GET("/admin/audit", middleware.AuthRequired(), auditHandler.List)

	return r, db, cfg
}

// testClient replays cookies across requests like a browser would.
type testClient struct {
	t       *testing.T
	router  *gin.Engine
	cookies map[string]*http.Cookie
	bearer  string
	csrf    string
}

func newTestClient(t *testing.T, router *gin.Engine) *testClient {
	return &testClient{t: t, router: router, cookies: make(map[string]*http.Cookie)}
}

func (c *testClient) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	if c.csrf != "" {
		req.Header.Set("X-CSRF-Token", c.csrf)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)

	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
		} else {
			c.cookies[ck.Name] = ck
		}
	}
	return w
}

// fetchCSRF obtains a CSRF token and attaches it to subsequent requests.
func (c *testClient) fetchCSRF() {
	c.t.Helper()

	w := c.do("GET", "/auth/csrf", nil)
	if w.Code != http.StatusOK {
		c.t.Fatalf("GET /auth/csrf status = %d", w.Code)
	}
	c.csrf = decodeBody(c.t, w)["csrfToken"].(string)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return body
}

func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()

	if w.Code != status {
		t.Errorf("status = %d, expected %d (body %s)", w.Code, status, w.Body.String())
	}
	body := decodeBody(t, w)
	if ok, _ := body["ok"].(bool); ok {
		t.Error("error response should have ok=false")
	}
	if body["error"] != code {
		t.Errorf("error = %v, expected %q", body["error"], code)
	}
}

// registerAndLogin registers a password account and logs in, returning the
// access token and the raw refresh secret from the response body.
func (c *testClient) registerAndLogin(email string) (string, string) {
	c.t.Helper()

	w := c.do("POST", "/auth/register", gin.H{"email": email, "password": "password123"})
	if w.Code != http.StatusCreated {
		c.t.Fatalf("register status = %d (body %s)", w.Code, w.Body.String())
	}

	w = c.do("POST", "/auth/login", gin.H{"email": email, "password": "password123", "returnRefreshToken": true})
	if w.Code != http.StatusOK {
		c.t.Fatalf("login status = %d (body %s)", w.Code, w.Body.String())
	}
	body := decodeBody(c.t, w)
	return body["accessToken"].(string), body["refreshToken"].(string)
}
