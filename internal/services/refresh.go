package services

import (
	"errors"
	"time"

	"github.com/docflow-io/docflow/backend/internal/models"
	"github.com/docflow-io/docflow/backend/internal/utils"
	"gorm.io/gorm"
)

var errLostRotationRace = errors.New("lost rotation race")

// Rotate validates a presented refresh secret and advances its rotation
// chain: the record's provenance is updated, a successor record is created
// and the predecessor is revoked, all in one transaction. Presenting an
// already-revoked secret is treated as theft and revokes every active
// session of the owning user; only a caller that loses the in-flight
// conditional claim is spared the cascade.
func (s *AuthService) Rotate(presentedSecret string, info RequestInfo) (*TokenPair, error) {
	if presentedSecret == "" {
		return nil, ErrInvalidRefreshToken
	}

	digest := utils.HashRefreshSecret(presentedSecret)

	var record models.RefreshToken
	if err := s.db.Where("token_hash = ?", digest).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	now := time.Now()

	if record.RevokedAt != nil {
		// Already revoked when first observed: the caller is replaying an
		// old secret, not racing a concurrent rotation.
		return nil, s.reuseDetected(&record, now, info)
	}
	if !record.ExpiresAt.After(now) {
		// A merely stale token is not evidence of theft: no cascade.
		return nil, ErrRefreshTokenExpired
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", record.UserID).Error; err != nil {
		return nil, err
	}

	accessToken, err := utils.GenerateToken(user.ID, user.Email, s.jwtCfg.ExpireMinutes)
	if err != nil {
		return nil, err
	}

	newSecret, newDigest, err := utils.NewRefreshSecret()
	if err != nil {
		return nil, err
	}

	successor := models.RefreshToken{
		UserID:            record.UserID,
		TokenHash:         newDigest,
		ExpiresAt:         now.Add(time.Duration(s.refreshCfg.TTLDays) * 24 * time.Hour),
		CreatedIP:         info.IP,
		CreatedUserAgent:  info.UserAgent,
		LastUsedAt:        &now,
		LastUsedIP:        info.IP,
		LastUsedUserAgent: info.UserAgent,
	}

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		// Conditional claim of the predecessor. Exactly one concurrent
		// caller can see RowsAffected == 1; everyone else lost the race.
		res := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked_at IS NULL", record.ID).
			Updates(map[string]interface{}{
				"last_used_at":         now,
				"last_used_ip":         info.IP,
				"last_used_user_agent": info.UserAgent,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errLostRotationRace
		}

		if err := tx.Create(&successor).Error; err != nil {
			return err
		}

		return tx.Model(&models.RefreshToken{}).
			Where("id = ?", record.ID).
			Updates(map[string]interface{}{
				"revoked_at":     now,
				"replaced_by_id": successor.ID,
			}).Error
	})
	if txErr != nil {
		if errors.Is(txErr, errLostRotationRace) {
			// The record was ACTIVE at first read but another caller
			// claimed it before we could: a benign race (typically a
			// client retry), not theft. No cascade.
			return nil, ErrConcurrentRotation
		}
		return nil, txErr
	}

	s.audit.Record(AuditEvent{
		Action:    "auth.refresh",
		UserID:    &record.UserID,
		IP:        info.IP,
		UserAgent: info.UserAgent,
	})

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshSecret:    newSecret,
		RefreshExpiresAt: successor.ExpiresAt,
		User:             &user,
	}, nil
}

// reuseDetected handles presentation of an already-revoked secret. This is
// account-wide compromise: every active record of the owner is revoked and
// the incident is audited. The cascade must never be silently skipped.
func (s *AuthService) reuseDetected(record *models.RefreshToken, now time.Time, info RequestInfo) error {
	res := s.db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", record.UserID).
		Update("revoked_at", now)
	if res.Error != nil {
		return res.Error
	}

	s.audit.Record(AuditEvent{
		Action:    "auth.refresh.reuse_detected",
		UserID:    &record.UserID,
		IP:        info.IP,
		UserAgent: info.UserAgent,
		Meta: map[string]interface{}{
			"refresh_token_id": record.ID,
			"revoked_sessions": res.RowsAffected,
			"reason":           "refresh token reused after rotation/revocation",
		},
	})

	return ErrRefreshTokenReuse
}
