package repository

import (
	"context"
	"errors"

	"support-chat-service/internal/models"
)

// ErrNotFound is returned when a record does not exist or is not visible to
// the requesting user.
var ErrNotFound = errors.New("record not found")

type DocumentRepository interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	// GetDocument loads a document without its raw content or chunks.
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	// GetDocumentWithChunks loads a document including its chunk list.
	GetDocumentWithChunks(ctx context.Context, id string) (*models.Document, error)
	ListDocuments(ctx context.Context, limit, offset int, statusFilter string) ([]*models.Document, int, error)
	// ListRetrievable returns title and chunks for every active document in
	// ready status; it feeds the retrieval engine.
	ListRetrievable(ctx context.Context) ([]*models.Document, error)
	UpdateDocument(ctx context.Context, id string, updates map[string]interface{}) error
	DeleteDocument(ctx context.Context, id string) error
	UpdateDocumentStatus(ctx context.Context, id, status, errorMessage string) error
	// StoreExtraction writes the extraction result and moves the document to
	// ready status in one statement.
	StoreExtraction(ctx context.Context, id, rawContent string, chunks []models.Chunk, wordCount int) error
}

type ConversationRepository interface {
	CreateConversation(ctx context.Context, conv *models.Conversation) error
	// GetConversation is ownership-scoped: a conversation belonging to another
	// user yields ErrNotFound.
	GetConversation(ctx context.Context, id, userID string) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID string, limit, offset int) ([]*models.Conversation, int, error)
	// SaveConversation persists title, messages, status and metadata. The
	// message count is recomputed from the embedded message list.
	SaveConversation(ctx context.Context, conv *models.Conversation) error
	SoftDeleteConversation(ctx context.Context, id, userID string) error
	ClearMessages(ctx context.Context, id, userID string) error
}

type FAQRepository interface {
	CreateFAQ(ctx context.Context, faq *models.FAQ) error
	GetFAQ(ctx context.Context, id string) (*models.FAQ, error)
	ListFAQs(ctx context.Context, category string, limit, offset int) ([]*models.FAQ, int, error)
	// ListActiveFAQs returns up to limit active FAQs ordered by priority
	// descending, then most recently created.
	ListActiveFAQs(ctx context.Context, limit int) ([]*models.FAQ, error)
	UpdateFAQ(ctx context.Context, id string, updates map[string]interface{}) error
	DeleteFAQ(ctx context.Context, id string) error
}

type Repository interface {
	DocumentRepository
	ConversationRepository
	FAQRepository

	Ping(ctx context.Context) error
}
