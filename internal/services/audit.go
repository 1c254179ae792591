package services

import (
	"encoding/json"
	"time"

	"github.com/docflow-io/docflow/backend/internal/models"
	"github.com/docflow-io/docflow/backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// AuditEvent describes one security-relevant action.
type AuditEvent struct {
	Action     string
	UserID     *string
	EntityType *string
	EntityID   *string
	IP         string
	UserAgent  string
	Meta       map[string]interface{}
}

// AuditService persists audit events. Record is best-effort: a failed audit
// write must never turn a successful operation into a user-visible failure,
// so errors are logged and dropped.
type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Record writes an audit event. It never returns an error.
func (s *AuditService) Record(ev AuditEvent) {
	if s == nil || s.db == nil {
		return
	}

	var metaStr string
	if ev.Meta != nil {
		if b, err := json.Marshal(ev.Meta); err == nil {
			metaStr = string(b)
		}
	}

	entry := &models.AuditLog{
		Action:     ev.Action,
		UserID:     ev.UserID,
		EntityType: ev.EntityType,
		EntityID:   ev.EntityID,
		IP:         ev.IP,
		UserAgent:  ev.UserAgent,
		Meta:       metaStr,
		CreatedAt:  time.Now(),
	}
	if err := s.db.Create(entry).Error; err != nil {
		logger.Error().Err(err).Str("action", ev.Action).Msg("audit write failed")
	}
}

// List returns the most recent audit entries, newest first.
func (s *AuditService) List(limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var rows []models.AuditLog
	if err := s.db.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CleanupOldEntries deletes audit entries older than retentionDays and
// returns the number of deleted rows.
func (s *AuditService) CleanupOldEntries(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// StartCleanupScheduler runs a nightly retention sweep over audit_logs.
func StartCleanupScheduler(db *gorm.DB, retentionDays int) *cron.Cron {
	service := NewAuditService(db)

	c := cron.New()
	c.AddFunc("0 3 * * *", func() {
		deleted, err := service.CleanupOldEntries(retentionDays)
		if err != nil {
			logger.Error().Err(err).Msg("audit cleanup failed")
			return
		}
		if deleted > 0 {
			logger.Infof("[Audit] Cleaned up %d entries older than %d days", deleted, retentionDays)
		}
	})
	c.Start()
	return c
}
