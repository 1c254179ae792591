package services

import (
	"context"
	"errors"

	"github.com/docflow-io/docflow/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentService owns uploaded-document metadata. Bytes live in object
// storage; processing happens behind the ingest queue.
type DocumentService struct {
	db      *gorm.DB
	storage *StorageService
	queue   TaskQueue
	audit   *AuditService
}

func NewDocumentService(db *gorm.DB, storage *StorageService, queue TaskQueue) *DocumentService {
	return &DocumentService{
		db:      db,
		storage: storage,
		queue:   queue,
		audit:   NewAuditService(db),
	}
}

// Upload stores the file bytes, records the document row and dispatches an
// ingest task.
func (s *DocumentService) Upload(ctx context.Context, userID, filename string, mimeType *string, data []byte, info RequestInfo) (*models.Document, error) {
	doc := models.Document{
		UserID:    userID,
		Filename:  filename,
		MimeType:  mimeType,
		Size:      int64(len(data)),
		Bucket:    s.storage.Bucket(),
		ObjectKey: uuid.NewString(),
		Status:    models.DocumentStatusUploaded,
	}
	if err := s.db.Create(&doc).Error; err != nil {
		return nil, err
	}

	contentType := ""
	if mimeType != nil {
		contentType = *mimeType
	}
	if err := s.storage.PutObject(ctx, doc.ObjectKey, data, contentType); err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(&IngestTask{DocumentID: doc.ID}); err != nil {
		return nil, err
	}

	s.audit.Record(AuditEvent{
		Action:     "document.upload",
		UserID:     &userID,
		EntityType: strPtr("Document"),
		EntityID:   &doc.ID,
		IP:         info.IP,
		UserAgent:  info.UserAgent,
		Meta: map[string]interface{}{
			"filename":   doc.Filename,
			"mime_type":  doc.MimeType,
			"size":       doc.Size,
			"bucket":     doc.Bucket,
			"object_key": doc.ObjectKey,
		},
	})

	return &doc, nil
}

// List returns the user's documents newest-first.
func (s *DocumentService) List(userID string) ([]models.Document, error) {
	var docs []models.Document
	err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&docs).Error
	return docs, err
}

// Get returns one document owned by the user.
func (s *DocumentService) Get(userID, docID string) (*models.Document, error) {
	var doc models.Document
	err := s.db.Where("id = ? AND user_id = ?", docID, userID).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// DownloadURL returns a presigned GET link for the document and audits the
// access.
func (s *DocumentService) DownloadURL(ctx context.Context, userID, docID string, info RequestInfo) (string, error) {
	doc, err := s.Get(userID, docID)
	if err != nil {
		return "", err
	}

	s.audit.Record(AuditEvent{
		Action:     "document.download",
		UserID:     &userID,
		EntityType: strPtr("Document"),
		EntityID:   &doc.ID,
		IP:         info.IP,
		UserAgent:  info.UserAgent,
	})

	return s.storage.PresignGet(ctx, doc.ObjectKey)
}

// Delete removes the stored object and the document row.
func (s *DocumentService) Delete(ctx context.Context, userID, docID string, info RequestInfo) error {
	doc, err := s.Get(userID, docID)
	if err != nil {
		return err
	}

	if err := s.storage.RemoveObject(ctx, doc.ObjectKey); err != nil {
		return err
	}
	if err := s.db.Delete(&models.Document{}, "id = ?", doc.ID).Error; err != nil {
		return err
	}

	s.audit.Record(AuditEvent{
		Action:     "document.delete",
		UserID:     &userID,
		EntityType: strPtr("Document"),
		EntityID:   &doc.ID,
		IP:         info.IP,
		UserAgent:  info.UserAgent,
	})

	return nil
}

func strPtr(s string) *string { return &s }
