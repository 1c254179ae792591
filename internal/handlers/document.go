package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/docflow-io/docflow/backend/internal/middleware"
	"github.com/docflow-io/docflow/backend/internal/services"
	"github.com/docflow-io/docflow/backend/pkg/logger"
	"github.com/docflow-io/docflow/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// maxUploadBytes caps a single document upload at 25 MiB.
const maxUploadBytes = 25 << 20

type DocumentHandler struct {
	documents *services.DocumentService
}

func NewDocumentHandler(documents *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// Upload accepts a single multipart file, stores it and dispatches ingest.
// POST /upload
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID := middleware.GetUserID(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.CodeNoFile)
		return
	}
	if fileHeader.Size > maxUploadBytes {
		response.Fail(c, http.StatusBadRequest, response.CodeValidation)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		logger.Error().Err(err).Msg("upload open failed")
		response.Error(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		logger.Error().Err(err).Msg("upload read failed")
		response.Error(c, err)
		return
	}
	if len(data) > maxUploadBytes {
		response.Fail(c, http.StatusBadRequest, response.CodeValidation)
		return
	}

	var mimeType *string
	if ct := fileHeader.Header.Get("Content-Type"); ct != "" {
		mimeType = &ct
	}

	doc, err := h.documents.Upload(c.Request.Context(), userID, fileHeader.Filename, mimeType, data, requestInfo(c))
	if err != nil {
		logger.Error().Err(err).Msg("upload failed")
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"document": doc})
}

// List returns the caller's documents.
// GET /documents
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documents.List(middleware.GetUserID(c))
	if err != nil {
		logger.Error().Err(err).Msg("document list failed")
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"documents": docs})
}

// GetByID returns one document.
// GET /documents/:id
func (h *DocumentHandler) GetByID(c *gin.Context) {
	doc, err := h.documents.Get(middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, "document get failed")
		return
	}
	response.OK(c, gin.H{"document": doc})
}

// Status returns the processing state of one document.
// GET /documents/:id/status
func (h *DocumentHandler) Status(c *gin.Context) {
	doc, err := h.documents.Get(middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, "document status failed")
		return
	}
	response.OK(c, gin.H{"status": gin.H{
		"id":          doc.ID,
		"status":      doc.Status,
		"processedAt": doc.ProcessedAt,
		"error":       doc.Error,
	}})
}

// Download returns a presigned GET URL for the document bytes.
// GET /documents/:id/download
func (h *DocumentHandler) Download(c *gin.Context) {
	url, err := h.documents.DownloadURL(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), requestInfo(c))
	if err != nil {
		h.fail(c, err, "document download failed")
		return
	}
	response.OK(c, gin.H{"url": url})
}

// Delete removes the document and its stored object.
// DELETE /documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	err := h.documents.Delete(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), requestInfo(c))
	if err != nil {
		h.fail(c, err, "document delete failed")
		return
	}
	response.OK(c, nil)
}

func (h *DocumentHandler) fail(c *gin.Context, err error, msg string) {
	if errors.Is(err, services.ErrDocumentNotFound) {
		response.Fail(c, http.StatusNotFound, response.CodeNotFound)
		return
	}
	logger.Error().Err(err).Msg(msg)
	response.Error(c, err)
}
