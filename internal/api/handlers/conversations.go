package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"support-chat-service/internal/chat"
	"support-chat-service/internal/models"
	"support-chat-service/internal/repository"
	"support-chat-service/pkg/sse"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handlers) CreateConversation(c *gin.Context) {
	now := time.Now()
	conv := &models.Conversation{
		ID:        uuid.New().String(),
		UserID:    userID(c),
		Title:     models.DefaultConversationTitle,
		Status:    models.ConversationStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Repository.CreateConversation(c.Request.Context(), conv); err != nil {
		h.Logger.Error().Err(err).Msg("Failed to create conversation")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create conversation")
		return
	}

	c.JSON(http.StatusCreated, conv)
}

func (h *Handlers) ListConversations(c *gin.Context) {
	page, limit, offset := pagination(c)

	conversations, total, err := h.Repository.ListConversations(c.Request.Context(), userID(c), limit, offset)
	if err != nil {
		h.Logger.Error().Err(err).Msg("Failed to list conversations")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list conversations")
		return
	}

	convList := make([]models.Conversation, len(conversations))
	for i, conv := range conversations {
		convList[i] = *conv
	}

	c.JSON(http.StatusOK, models.ConversationListResponse{
		Conversations: convList,
		Pagination:    paginationMeta(page, limit, total),
	})
}

func (h *Handlers) GetConversation(c *gin.Context) {
	conv, err := h.Repository.GetConversation(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Conversation not found")
			return
		}
		h.Logger.Error().Err(err).Msg("Failed to get conversation")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get conversation")
		return
	}

	c.JSON(http.StatusOK, conv)
}

// DeleteConversation is a soft delete: the status flips to deleted and the
// record stays.
func (h *Handlers) DeleteConversation(c *gin.Context) {
	err := h.Repository.SoftDeleteConversation(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Conversation not found")
			return
		}
		h.Logger.Error().Err(err).Msg("Failed to delete conversation")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete conversation")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Conversation deleted"})
}

// ClearMessages empties the conversation and resets its title and counters.
func (h *Handlers) ClearMessages(c *gin.Context) {
	err := h.Repository.ClearMessages(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Conversation not found")
			return
		}
		h.Logger.Error().Err(err).Msg("Failed to clear conversation")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to clear conversation")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Conversation cleared"})
}

// SendMessage runs a whole-response chat turn.
func (h *Handlers) SendMessage(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request format")
		return
	}

	msg, err := h.Chat.SendMessage(c.Request.Context(), userID(c), c.Param("id"), req.Message)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrConversationNotFound):
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Conversation not found")
		case errors.Is(err, chat.ErrEmptyMessage):
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Message must not be empty")
		default:
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to send message")
		}
		return
	}

	c.JSON(http.StatusOK, models.SendMessageResponse{Success: true, Message: *msg})
}

// StreamMessage runs an incremental chat turn over server-sent events. Each
// orchestrator event becomes one frame, flushed as soon as it is written.
func (h *Handlers) StreamMessage(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request format")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	events := h.Chat.StreamMessage(c.Request.Context(), userID(c), c.Param("id"), req.Message)

	c.Stream(func(w io.Writer) bool {
		event, ok := <-events
		if !ok {
			return false
		}
		err := sse.WriteFrame(w, sse.Event{
			Type:    string(event.Type),
			Content: event.Content,
			Error:   event.Error,
		})
		return err == nil
	})
}
