package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefreshToken is one link in a session's rotation chain. Only the SHA-256
// digest of the secret is stored. Rows are never deleted: revocation sets
// RevokedAt and, when caused by rotation, ReplacedByID points at the
// successor row.
type RefreshToken struct {
	ID                string     `gorm:"primaryKey;size:36" json:"id"`
	UserID            string     `gorm:"index;size:36;not null" json:"user_id"`
	TokenHash         string     `gorm:"uniqueIndex;size:64;not null" json:"-"`
	ExpiresAt         time.Time  `gorm:"index;not null" json:"expires_at"`
	RevokedAt         *time.Time `gorm:"index" json:"revoked_at,omitempty"`
	ReplacedByID      *string    `gorm:"size:36;index" json:"replaced_by_id,omitempty"`
	CreatedIP         string     `gorm:"size:64" json:"created_ip,omitempty"`
	CreatedUserAgent  string     `gorm:"size:255" json:"created_user_agent,omitempty"`
	LastUsedAt        *time.Time `json:"last_used_at,omitempty"`
	LastUsedIP        string     `gorm:"size:64" json:"last_used_ip,omitempty"`
	LastUsedUserAgent string     `gorm:"size:255" json:"last_used_user_agent,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (RefreshToken) TableName() string { return "refresh_tokens" }

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Active reports whether the token is usable at the given instant.
func (t *RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && t.ExpiresAt.After(now)
}
