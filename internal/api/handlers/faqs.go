package handlers

import (
	"errors"
	"net/http"
	"time"

	"support-chat-service/internal/models"
	"support-chat-service/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handlers) CreateFAQ(c *gin.Context) {
	var req models.CreateFAQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Question and answer are required")
		return
	}

	now := time.Now()
	faq := &models.FAQ{
		ID:        uuid.New().String(),
		Question:  req.Question,
		Answer:    req.Answer,
		Category:  req.Category,
		Tags:      req.Tags,
		Priority:  req.Priority,
		IsActive:  true,
		CreatedBy: userID(c),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Repository.CreateFAQ(c.Request.Context(), faq); err != nil {
		h.Logger.Error().Err(err).Msg("Failed to create FAQ")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create FAQ")
		return
	}

	c.JSON(http.StatusCreated, faq)
}

func (h *Handlers) ListFAQs(c *gin.Context) {
	page, limit, offset := pagination(c)
	category := c.Query("category")

	faqs, total, err := h.Repository.ListFAQs(c.Request.Context(), category, limit, offset)
	if err != nil {
		h.Logger.Error().Err(err).Msg("Failed to list FAQs")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list FAQs")
		return
	}

	faqList := make([]models.FAQ, len(faqs))
	for i, faq := range faqs {
		faqList[i] = *faq
	}

	c.JSON(http.StatusOK, models.FAQListResponse{
		FAQs:       faqList,
		Pagination: paginationMeta(page, limit, total),
	})
}

// GetFAQ also bumps the view counter.
func (h *Handlers) GetFAQ(c *gin.Context) {
	faq, err := h.Repository.GetFAQ(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "FAQ not found")
			return
		}
		h.Logger.Error().Err(err).Msg("Failed to get FAQ")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get FAQ")
		return
	}

	c.JSON(http.StatusOK, faq)
}

func (h *Handlers) UpdateFAQ(c *gin.Context) {
	faqID := c.Param("id")

	var req models.UpdateFAQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request format")
		return
	}

	updates := map[string]interface{}{}
	if req.Question != nil {
		updates["question"] = *req.Question
	}
	if req.Answer != nil {
		updates["answer"] = *req.Answer
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Tags != nil {
		updates["tags"] = req.Tags
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if err := h.Repository.UpdateFAQ(c.Request.Context(), faqID, updates); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "FAQ not found")
			return
		}
		h.Logger.Error().Err(err).Str("faq_id", faqID).Msg("Failed to update FAQ")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update FAQ")
		return
	}

	faq, err := h.Repository.GetFAQ(c.Request.Context(), faqID)
	if err != nil {
		h.Logger.Error().Err(err).Str("faq_id", faqID).Msg("Failed to reload FAQ")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update FAQ")
		return
	}

	c.JSON(http.StatusOK, faq)
}

func (h *Handlers) DeleteFAQ(c *gin.Context) {
	faqID := c.Param("id")

	if err := h.Repository.DeleteFAQ(c.Request.Context(), faqID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "FAQ not found")
			return
		}
		h.Logger.Error().Err(err).Str("faq_id", faqID).Msg("Failed to delete FAQ")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete FAQ")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "FAQ deleted successfully"})
}
