package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document processing states.
const (
	DocumentStatusUploaded   = "UPLOADED"
	DocumentStatusProcessing = "PROCESSING"
	DocumentStatusProcessed  = "PROCESSED"
	DocumentStatusFailed     = "FAILED"
)

// Document is an uploaded file. The bytes live in object storage under
// Bucket/ObjectKey; this row only carries metadata and processing state.
type Document struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      string     `gorm:"index;size:36;not null" json:"user_id"`
	Filename    string     `gorm:"size:512;not null" json:"filename"`
	MimeType    *string    `gorm:"size:255" json:"mime_type"`
	Size        int64      `gorm:"not null" json:"size"`
	Bucket      string     `gorm:"size:128;not null" json:"bucket"`
	ObjectKey   string     `gorm:"size:128;not null" json:"object_key"`
	Status      string     `gorm:"size:20;default:UPLOADED" json:"status"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	Error       *string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Document) TableName() string { return "documents" }

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
