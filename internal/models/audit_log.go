package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog is an append-only record of security-relevant events. Writes go
// through the audit service, which never propagates failures to callers.
type AuditLog struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Action     string    `gorm:"size:100;index;not null" json:"action"`
	UserID     *string   `gorm:"size:36;index" json:"user_id"`
	EntityType *string   `gorm:"size:50" json:"entity_type,omitempty"`
	EntityID   *string   `gorm:"size:36" json:"entity_id,omitempty"`
	IP         string    `gorm:"size:64" json:"ip"`
	UserAgent  string    `gorm:"size:500" json:"user_agent"`
	Meta       string    `gorm:"type:text" json:"meta"` // JSON extra data
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
