package handlers

import (
	"errors"
	"net/http"
	"path"
	"strings"
	"time"

	"support-chat-service/internal/models"
	"support-chat-service/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var allowedMimeTypes = map[string]bool{
	models.MimeTypePDF:  true,
	models.MimeTypeDOCX: true,
	models.MimeTypeText: true,
}

// UploadDocument accepts a multipart upload, stores the file, creates the
// document in pending status and schedules extraction. The response returns
// before processing finishes.
func (h *Handlers) UploadDocument(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "No file uploaded")
		return
	}

	if file.Size > h.MaxFileSize {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "File exceeds the maximum allowed size")
		return
	}

	mimeType := file.Header.Get("Content-Type")
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if !allowedMimeTypes[mimeType] {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid file type. Only PDF, DOCX, and TXT files are allowed.")
		return
	}

	documentID := uuid.New().String()
	filename := "doc-" + documentID + path.Ext(file.Filename)
	key := "documents/" + documentID + "/" + filename

	src, err := file.Open()
	if err != nil {
		h.Logger.Error().Err(err).Msg("Failed to open uploaded file")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store file")
		return
	}
	defer src.Close()

	if err := h.Files.Upload(c.Request.Context(), key, mimeType, src); err != nil {
		h.Logger.Error().Err(err).Str("key", key).Msg("Failed to store file")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store file")
		return
	}

	title := c.PostForm("title")
	if title == "" {
		title = file.Filename
	}

	now := time.Now()
	doc := &models.Document{
		ID:           documentID,
		Title:        title,
		Description:  c.PostForm("description"),
		Filename:     filename,
		OriginalName: file.Filename,
		MimeType:     mimeType,
		FileSize:     file.Size,
		FilePath:     key,
		Status:       models.DocumentStatusPending,
		UploadedBy:   userID(c),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Repository.CreateDocument(c.Request.Context(), doc); err != nil {
		h.Logger.Error().Err(err).Msg("Failed to save document")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save document")
		return
	}

	h.Processor.Enqueue(documentID)

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Document uploaded successfully. Processing in progress.",
		"document": doc,
	})
}

func (h *Handlers) ListDocuments(c *gin.Context) {
	page, limit, offset := pagination(c)
	statusFilter := c.Query("status")

	documents, total, err := h.Repository.ListDocuments(c.Request.Context(), limit, offset, statusFilter)
	if err != nil {
		h.Logger.Error().Err(err).Msg("Failed to list documents")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list documents")
		return
	}

	docList := make([]models.Document, len(documents))
	for i, doc := range documents {
		docList[i] = *doc
	}

	c.JSON(http.StatusOK, models.DocumentListResponse{
		Documents:  docList,
		Pagination: paginationMeta(page, limit, total),
	})
}

func (h *Handlers) GetDocument(c *gin.Context) {
	documentID := c.Param("id")

	doc, err := h.Repository.GetDocumentWithChunks(c.Request.Context(), documentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Document not found")
			return
		}
		h.Logger.Error().Err(err).Str("document_id", documentID).Msg("Failed to get document")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get document")
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (h *Handlers) UpdateDocument(c *gin.Context) {
	documentID := c.Param("id")

	var req models.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request format")
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if err := h.Repository.UpdateDocument(c.Request.Context(), documentID, updates); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Document not found")
			return
		}
		h.Logger.Error().Err(err).Str("document_id", documentID).Msg("Failed to update document")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update document")
		return
	}

	doc, err := h.Repository.GetDocument(c.Request.Context(), documentID)
	if err != nil {
		h.Logger.Error().Err(err).Str("document_id", documentID).Msg("Failed to reload document")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update document")
		return
	}

	c.JSON(http.StatusOK, doc)
}

// DeleteDocument removes the record and its backing file.
func (h *Handlers) DeleteDocument(c *gin.Context) {
	documentID := c.Param("id")

	doc, err := h.Repository.GetDocument(c.Request.Context(), documentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Document not found")
			return
		}
		h.Logger.Error().Err(err).Str("document_id", documentID).Msg("Failed to get document")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete document")
		return
	}

	if doc.FilePath != "" {
		if err := h.Files.Delete(c.Request.Context(), doc.FilePath); err != nil {
			h.Logger.Error().Err(err).Str("key", doc.FilePath).Msg("Failed to delete stored file")
		}
	}

	if err := h.Repository.DeleteDocument(c.Request.Context(), documentID); err != nil {
		h.Logger.Error().Err(err).Str("document_id", documentID).Msg("Failed to delete document")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete document")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Document deleted successfully"})
}

// ReprocessDocument re-runs extraction for a document, typically after a
// previous error.
func (h *Handlers) ReprocessDocument(c *gin.Context) {
	documentID := c.Param("id")

	if _, err := h.Repository.GetDocument(c.Request.Context(), documentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Document not found")
			return
		}
		h.Logger.Error().Err(err).Str("document_id", documentID).Msg("Failed to get document")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to reprocess document")
		return
	}

	h.Processor.Enqueue(documentID)

	c.JSON(http.StatusOK, gin.H{"message": "Document reprocessing started"})
}
