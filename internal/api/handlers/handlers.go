package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"support-chat-service/internal/chat"
	"support-chat-service/internal/models"
	"support-chat-service/internal/repository"
	"support-chat-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ChatService is the orchestrator surface the handlers call.
type ChatService interface {
	SendMessage(ctx context.Context, userID, conversationID, message string) (*models.Message, error)
	StreamMessage(ctx context.Context, userID, conversationID, message string) <-chan chat.Event
}

// DocumentProcessor schedules background extraction for uploaded documents.
type DocumentProcessor interface {
	Enqueue(documentID string)
}

type Handlers struct {
	Repository  repository.Repository
	Files       services.FileStore
	Chat        ChatService
	Processor   DocumentProcessor
	MaxFileSize int64
	Logger      zerolog.Logger
}

func NewHandlers(repo repository.Repository, files services.FileStore, chatSvc ChatService, processor DocumentProcessor, maxFileSize int64, logger zerolog.Logger) *Handlers {
	return &Handlers{
		Repository:  repo,
		Files:       files,
		Chat:        chatSvc,
		Processor:   processor,
		MaxFileSize: maxFileSize,
		Logger:      logger,
	}
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (h *Handlers) Ready(c *gin.Context) {
	if err := h.Repository.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, models.ReadinessResponse{
			Status:       "not_ready",
			Dependencies: map[string]string{"database": err.Error()},
		})
		return
	}

	c.JSON(http.StatusOK, models.ReadinessResponse{
		Status:       "ready",
		Dependencies: map[string]string{"database": "ok"},
	})
}

func userID(c *gin.Context) string {
	return c.GetString("userID")
}

// pagination reads page/limit query parameters with sane bounds.
func pagination(c *gin.Context) (page, limit, offset int) {
	page = 1
	limit = 20

	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	return page, limit, (page - 1) * limit
}

func paginationMeta(page, limit, total int) models.Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return models.Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{Code: code, Message: message},
	})
}
