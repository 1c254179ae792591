package services

import (
	"errors"
	"time"

	"github.com/docflow-io/docflow/backend/internal/models"
	"gorm.io/gorm"
)

// SessionView is the client-facing shape of an active session. It carries
// provenance metadata only; the token digest never leaves the service.
type SessionView struct {
	ID                string     `json:"id"`
	CreatedAt         time.Time  `json:"createdAt"`
	ExpiresAt         time.Time  `json:"expiresAt"`
	CreatedIP         string     `json:"createdIp,omitempty"`
	CreatedUserAgent  string     `json:"createdUserAgent,omitempty"`
	LastUsedAt        *time.Time `json:"lastUsedAt,omitempty"`
	LastUsedIP        string     `json:"lastUsedIp,omitempty"`
	LastUsedUserAgent string     `json:"lastUsedUserAgent,omitempty"`
	IsCurrent         bool       `json:"isCurrent"`
}

// SessionService is the read side and explicit-revocation side of a user's
// refresh records.
type SessionService struct {
	db    *gorm.DB
	audit *AuditService
}

func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{db: db, audit: NewAuditService(db)}
}

// ListActive returns the user's active, unexpired sessions newest-first.
// currentDigest is the digest of the caller's presented cookie secret, or
// empty when no cookie was presented; it only drives the IsCurrent flag.
func (s *SessionService) ListActive(userID, currentDigest string) ([]SessionView, error) {
	var rows []models.RefreshToken
	err := s.db.
		Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, time.Now()).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	views := make([]SessionView, 0, len(rows))
	for _, r := range rows {
		views = append(views, SessionView{
			ID:                r.ID,
			CreatedAt:         r.CreatedAt,
			ExpiresAt:         r.ExpiresAt,
			CreatedIP:         r.CreatedIP,
			CreatedUserAgent:  r.CreatedUserAgent,
			LastUsedAt:        r.LastUsedAt,
			LastUsedIP:        r.LastUsedIP,
			LastUsedUserAgent: r.LastUsedUserAgent,
			IsCurrent:         currentDigest != "" && r.TokenHash == currentDigest,
		})
	}
	return views, nil
}

// RevokeOne revokes a single session of the user. Revoking the caller's own
// current session through this path is forbidden; logout is the way out.
// Already-revoked sessions are left untouched (idempotent).
func (s *SessionService) RevokeOne(userID, recordID, currentDigest string, info RequestInfo) error {
	var record models.RefreshToken
	err := s.db.Where("id = ? AND user_id = ?", recordID, userID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}

	if currentDigest != "" && record.TokenHash == currentDigest {
		return ErrCannotRevokeCurrent
	}

	if record.RevokedAt == nil {
		res := s.db.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked_at IS NULL", record.ID).
			Update("revoked_at", time.Now())
		if res.Error != nil {
			return res.Error
		}
	}

	s.audit.Record(AuditEvent{
		Action:    "auth.session.revoke",
		UserID:    &userID,
		IP:        info.IP,
		UserAgent: info.UserAgent,
		Meta:      map[string]interface{}{"refresh_token_id": recordID},
	})

	return nil
}

// RevokeOthers revokes every active session of the user except the one
// matching currentDigest and returns the number of sessions revoked. An
// empty digest revokes everything ("sign out everywhere").
func (s *SessionService) RevokeOthers(userID, currentDigest string, info RequestInfo) (int64, error) {
	query := s.db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID)
	if currentDigest != "" {
		query = query.Where("token_hash <> ?", currentDigest)
	}

	res := query.Update("revoked_at", time.Now())
	if res.Error != nil {
		return 0, res.Error
	}

	s.audit.Record(AuditEvent{
		Action:    "auth.session.revoke_all_others",
		UserID:    &userID,
		IP:        info.IP,
		UserAgent: info.UserAgent,
		Meta:      map[string]interface{}{"revoked_count": res.RowsAffected},
	})

	return res.RowsAffected, nil
}

// RevokeAll revokes every active session of the user. Used by reuse
// detection and by explicit sign-out-everywhere.
func (s *SessionService) RevokeAll(userID string) (int64, error) {
	res := s.db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", time.Now())
	return res.RowsAffected, res.Error
}
