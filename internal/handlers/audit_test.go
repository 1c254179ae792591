package handlers

import (
	"net/http"
	"testing"

	"github.com/docflow-io/docflow/backend/internal/models"
)

func TestAuditList_NonAdminForbidden(t *testing.T) {
	router, _, _ := newTestEnv(t)
	client := newTestClient(t, router)

	access, _ := client.registerAndLogin("alice@example.com")
	client.bearer = access

	w := client.do("GET", "/admin/audit", nil)
	assertErrorCode(t, w, http.StatusForbidden, "FORBIDDEN")
}

func TestAuditList_Admin(t *testing.T) {
	router, db, _ := newTestEnv(t)
	client := newTestClient(t, router)

	access, _ := client.registerAndLogin("admin@example.com")
	client.bearer = access

	if err := db.Model(&models.User{}).
		Where("email = ?", "admin@example.com").
		Update("is_admin", true).Error; err != nil {
		t.Fatalf("promote admin: %v", err)
	}

	w := client.do("GET", "/admin/audit", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", w.Code, w.Body.String())
	}

	entries, _ := decodeBody(t, w)["audit"].([]interface{})
	// Register and login were audited.
	if len(entries) < 2 {
		t.Errorf("audit entries = %d, expected at least 2", len(entries))
	}
}

func TestAuditList_InvalidLimit(t *testing.T) {
	router, db, _ := newTestEnv(t)
	client := newTestClient(t, router)

	access, _ := client.registerAndLogin("admin@example.com")
	client.bearer = access

	if err := db.Model(&models.User{}).
		Where("email = ?", "admin@example.com").
		Update("is_admin", true).Error; err != nil {
		t.Fatalf("promote admin: %v", err)
	}

	for _, q := range []string{"limit=0", "limit=-3", "limit=abc"} {
		w := client.do("GET", "/admin/audit?"+q, nil)
		assertErrorCode(t, w, http.StatusBadRequest, "VALIDATION_ERROR")
	}
}

func TestAuditList_RequiresAuth(t *testing.T) {
	router, _, _ := newTestEnv(t)
	client := newTestClient(t, router)

	w := client.do("GET", "/admin/audit", nil)
	assertErrorCode(t, w, http.StatusUnauthorized, "UNAUTHORIZED")
}
