package services

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/docflow-io/docflow/backend/internal/models"
	"github.com/docflow-io/docflow/backend/internal/utils"
)

func TestListActive(t *testing.T) {
	db := newTestDB(t)
	auth := newTestAuthService(db)
	sessions := NewSessionService(db)

	first := registerAndLogin(t, auth, "alice@example.com")
	second, err := auth.Login(&LoginRequest{Email: "alice@example.com", Password: "password123"}, testInfo)
	if err != nil {
		t.Fatalf("second Login() error = %v", err)
	}

	currentDigest := utils.HashRefreshSecret(second.RefreshSecret)
	views, err := sessions.ListActive(first.User.ID, currentDigest)
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("sessions = %d, expected 2", len(views))
	}

	currents := 0
	for _, v := range views {
		if v.ID == "" {
			t.Error("session view should carry the record id")
		}
		if v.CreatedIP != testInfo.IP {
			t.Errorf("CreatedIP = %q, expected %q", v.CreatedIP, testInfo.IP)
		}
		if v.IsCurrent {
			currents++
		}
	}
	if currents != 1 {
		t.Errorf("exactly one session should be current, got %d", currents)
	}
}

func TestListActive_NoDigestMeansNoCurrent(t *testing.T) {
	db := newTestDB(t)
	auth := newTestAuthService(db)
	sessions := NewSessionService(db)
	pair := registerAndLogin(t, auth, "alice@example.com")

	views, err := sessions.ListActive(pair.User.ID, "")
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	for _, v := range views {
		if v.IsCurrent {
			t.Error("no session can be current without a presented cookie")
		}
	}
}

func TestListActive_ExcludesRevokedAndExpired(t *testing.T) {
	db := newTestDB(t)
	auth := newTestAuthService(db)
	sessions := NewSessionService(db)
	pair := registerAndLogin(t, auth, "alice@example.com")

	now := time.Now()
	revokedAt := now.Add(-time.Minute)
	_, revokedDigest, _ := utils.NewRefreshSecret()
	_, expiredDigest, _ := utils.NewRefreshSecret()
	stale := []models.RefreshToken{
		{UserID: pair.User.ID, TokenHash: revokedDigest, ExpiresAt: now.Add(time.Hour), RevokedAt: &revokedAt},
		{UserID: pair.User.ID, TokenHash: expiredDigest, ExpiresAt: now.Add(-time.Hour)},
	}
	for i := range stale {
		if err := db.Create(&stale[i]).Error; err != nil {
			t.Fatalf("create stale record: %v", err)
		}
	}

	views, err := sessions.ListActive(pair.User.ID, "")
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(views) != 1 {
		t.Errorf("sessions = %d, expected 1 (revoked and expired hidden)", len(views))
	}
}

func TestSessionView_NeverLeaksDigest(t *testing.T) {
	db := newTestDB(t)
	auth := newTestAuthService(db)
	sessions := NewSessionService(db)
	pair := registerAndLogin(t, auth, "alice@example.com")

	digest := utils.HashRefreshSecret(pair.RefreshSecret)
	views, err := sessions.ListActive(pair.User.ID, digest)
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}

	raw, err := json.Marshal(views)
	if err != nil {
		t.Fatalf("marshal views: %v", err)
	}
	if strings.Contains(string(raw), digest) {
		t.Error("serialized session views must not contain the token digest")
	}
	if strings.Contains(string(raw), pair.RefreshSecret) {
		t.Error("serialized session views must not contain the raw secret")
	}
}

func TestRevokeOne(t *testing.T) {
	db := newTestDB(t)
	auth := newTestAuthService(db)
	sessions := NewSessionService(db)

	current := registerAndLogin(t, auth, "alice@example.com")
	other, err := auth.Login(&LoginRequest{Email: "alice@example.com", Password: "password123"}, testInfo)
	if err != nil {
		t.Fatalf("second Login() error = %v", err)
	}

	var otherRecord models.RefreshToken
	if err := db.First(&otherRecord, "token_hash = ?", utils.HashRefreshSecret(other.RefreshSecret)).Error; err != nil {
		t.Fatalf("load record: %v", err)
	}

	currentDigest := utils.HashRefreshSecret(current.RefreshSecret)
	if err := sessions.RevokeOne(current.User.ID, otherRecord.ID, currentDigest, testInfo); err != nil {
		t.Fatalf("RevokeOne() error = %v", err)
	}

	if n := countActive(t, db, current.User.ID); n != 1 {
		t.Errorf("active sessions = %d, expected 1", n)
	}

	// Idempotent on an already-revoked session.
	if err := sessions.RevokeOne(current.User.ID, otherRecord.ID, currentDigest, testInfo); err != nil {
		t.Errorf("repeated RevokeOne() error = %v, expected nil", err)
	}
}

func TestRevokeOne_CurrentForbidden(t *testing.T) {
	db := newTestDB(t)
	auth := newTestAuthService(db)
	sessions := NewSessionService(db)
	pair := registerAndLogin(t, auth, "alice@example.com")

	digest := utils.HashRefreshSecret(pair.RefreshSecret)
	var record models.RefreshToken
	if err := db.First(&record, "token_hash = ?", digest).Error; err != nil {
		t.Fatalf("load record: %v", err)
	}

	err := sessions.RevokeOne(pair.User.ID, record.ID, digest, testInfo)
	if !errors.Is(err, ErrCannotRevokeCurrent) {
		t.Errorf("RevokeOne(current) error = %v, expected ErrCannotRevokeCurrent", err)
	}
	if n := countActive(t, db, pair.User.ID); n != 1 {
		t.Errorf("active sessions = %d, expected 1", n)
	}
}

func TestRevokeOne_NotFound(t *testing.T) {
	db := newTestDB(t)
	auth := newTestAuthService(db)
	sessions := NewSessionService(db)

	alice := registerAndLogin(t, auth, "alice@example.com")
	bob := registerAndLogin(t, auth, "bob@example.com")

	var bobRecord models.RefreshToken
	if err := db.First(&bobRecord, "token_hash = ?", utils.HashRefreshSecret(bob.RefreshSecret)).Error; err != nil {
		t.Fatalf("load record: %v", err)
	}

	// Another user's session looks exactly like a missing one.
	if err := sessions.RevokeOne(alice.User.ID, bobRecord.ID, "", testInfo); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("cross-user RevokeOne() error = %v, expected ErrSessionNotFound", err)
	}
	if err := sessions.RevokeOne(alice.User.ID, "no-such-id", "", testInfo); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("RevokeOne(missing) error = %v, expected ErrSessionNotFound", err)
	}
	if n := countActive(t, db, bob.User.ID); n != 1 {
		t.Error("cross-user revoke attempt must not touch the other account")
	}
}

func TestRevokeOthers(t *testing.T) {
	db := newTestDB(t)
	auth := newTestAuthService(db)
	sessions := NewSessionService(db)

	current := registerAndLogin(t, auth, "alice@example.com")
	for i := 0; i < 3; i++ {
		if _, err := auth.Login(&LoginRequest{Email: "alice@example.com", Password: "password123"}, testInfo); err != nil {
			t.Fatalf("Login() error = %v", err)
		}
	}

	currentDigest := utils.HashRefreshSecret(current.RefreshSecret)
	revoked, err := sessions.RevokeOthers(current.User.ID, currentDigest, testInfo)
	if err != nil {
		t.Fatalf("RevokeOthers() error = %v", err)
	}
	if revoked != 3 {
		t.Errorf("revoked = %d, expected 3", revoked)
	}

	views, err := sessions.ListActive(current.User.ID, currentDigest)
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(views) != 1 || !views[0].IsCurrent {
		t.Errorf("only the current session should survive, got %d views", len(views))
	}
}

func TestRevokeOthers_EmptyDigestRevokesAll(t *testing.T) {
	db := newTestDB(t)
	auth := newTestAuthService(db)
	sessions := NewSessionService(db)

	pair := registerAndLogin(t, auth, "alice@example.com")
	if _, err := auth.Login(&LoginRequest{Email: "alice@example.com", Password: "password123"}, testInfo); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	revoked, err := sessions.RevokeOthers(pair.User.ID, "", testInfo)
	if err != nil {
		t.Fatalf("RevokeOthers() error = %v", err)
	}
	if revoked != 2 {
		t.Errorf("revoked = %d, expected 2", revoked)
	}
	if n := countActive(t, db, pair.User.ID); n != 0 {
		t.Errorf("active sessions = %d, expected 0", n)
	}
}

func TestRevokeAll(t *testing.T) {
	db := newTestDB(t)
	auth := newTestAuthService(db)
	sessions := NewSessionService(db)

	pair := registerAndLogin(t, auth, "alice@example.com")
	if _, err := auth.Login(&LoginRequest{Email: "alice@example.com", Password: "password123"}, testInfo); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	revoked, err := sessions.RevokeAll(pair.User.ID)
	if err != nil {
		t.Fatalf("RevokeAll() error = %v", err)
	}
	if revoked != 2 {
		t.Errorf("revoked = %d, expected 2", revoked)
	}
	if n := countActive(t, db, pair.User.ID); n != 0 {
		t.Errorf("active sessions = %d, expected 0", n)
	}
}
