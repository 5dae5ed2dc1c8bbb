package models

import (
	"strings"
	"time"
)

// Document processing statuses.
const (
	DocumentStatusPending    = "pending"
	DocumentStatusProcessing = "processing"
	DocumentStatusReady      = "ready"
	DocumentStatusError      = "error"
)

// Conversation statuses.
const (
	ConversationStatusActive   = "active"
	ConversationStatusArchived = "archived"
	ConversationStatusDeleted  = "deleted"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// DefaultConversationTitle is the placeholder set on new conversations until
// the first user message arrives.
const DefaultConversationTitle = "New Conversation"

// Supported upload mime types.
const (
	MimeTypePDF  = "application/pdf"
	MimeTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeTypeText = "text/plain"
)

type ChunkMetadata struct {
	StartPage int    `json:"start_page,omitempty"`
	EndPage   int    `json:"end_page,omitempty"`
	Heading   string `json:"heading,omitempty"`
}

// Chunk is a bounded contiguous span of a document's text, the unit of
// retrieval. Indices are contiguous starting at 0 within a document.
type Chunk struct {
	Content    string         `json:"content"`
	ChunkIndex int            `json:"chunk_index"`
	Metadata   *ChunkMetadata `json:"metadata,omitempty"`
}

type Document struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Filename        string    `json:"filename"`
	OriginalName    string    `json:"original_name"`
	MimeType        string    `json:"mime_type"`
	FileSize        int64     `json:"file_size"`
	FilePath        string    `json:"file_path,omitempty"`
	RawContent      string    `json:"-"`
	Chunks          []Chunk   `json:"chunks,omitempty"`
	Status          string    `json:"status"`
	ProcessingError string    `json:"processing_error,omitempty"`
	UploadedBy      string    `json:"uploaded_by"`
	IsActive        bool      `json:"is_active"`
	TotalChunks     int       `json:"total_chunks"`
	WordCount       int       `json:"word_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SourceRef names a retrieved chunk that grounded an assistant message.
type SourceRef struct {
	DocumentID     string `json:"document_id"`
	ChunkIndex     int    `json:"chunk_index"`
	RelevanceScore int    `json:"relevance_score"`
}

type MessageMetadata struct {
	TokensUsed     int         `json:"tokens_used,omitempty"`
	Model          string      `json:"model,omitempty"`
	ProcessingTime int64       `json:"processing_time,omitempty"`
	Sources        []SourceRef `json:"sources,omitempty"`
}

// Message is an element within a conversation. Immutable once appended.
type Message struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

type ConversationMetadata struct {
	TotalTokens  int      `json:"total_tokens"`
	MessageCount int      `json:"message_count"`
	Sentiment    string   `json:"sentiment,omitempty"`
	Topics       []string `json:"topics,omitempty"`
	Resolved     bool     `json:"resolved,omitempty"`
}

type Conversation struct {
	ID        string               `json:"id"`
	UserID    string               `json:"user_id"`
	Title     string               `json:"title"`
	Messages  []Message            `json:"messages,omitempty"`
	Status    string               `json:"status"`
	Metadata  ConversationMetadata `json:"metadata"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// Recount refreshes the message counter to match the embedded message list.
// Called by the repository on every save.
func (c *Conversation) Recount() {
	c.Metadata.MessageCount = len(c.Messages)
}

// FirstUserMessage returns the first message with the user role, or nil.
func (c *Conversation) FirstUserMessage() *Message {
	for i := range c.Messages {
		if c.Messages[i].Role == RoleUser {
			return &c.Messages[i]
		}
	}
	return nil
}

// DeriveTitle sets the title from the first user message: the first 50
// characters, with "..." appended when the message is longer.
func (c *Conversation) DeriveTitle() string {
	first := c.FirstUserMessage()
	if first == nil {
		return c.Title
	}
	c.Title = TruncateTitle(first.Content)
	return c.Title
}

// TruncateTitle shortens s to 50 characters with an ellipsis suffix.
func TruncateTitle(s string) string {
	runes := []rune(s)
	if len(runes) <= 50 {
		return s
	}
	return string(runes[:50]) + "..."
}

type FAQ struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Category  string    `json:"category"`
	Tags      []string  `json:"tags,omitempty"`
	Priority  int       `json:"priority"`
	IsActive  bool      `json:"is_active"`
	CreatedBy string    `json:"created_by"`
	ViewCount int       `json:"view_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RetrievedChunk is an ephemeral search result. It is built per query and
// discarded after prompt composition; it is never persisted.
type RetrievedChunk struct {
	DocumentID    string `json:"document_id"`
	DocumentTitle string `json:"document_title"`
	Content       string `json:"content"`
	ChunkIndex    int    `json:"chunk_index"`
	Score         int    `json:"score"`
}

// JoinChunks concatenates retrieved chunk contents in rank order, separated
// by blank lines, for injection into the system prompt.
func JoinChunks(chunks []RetrievedChunk) string {
	if len(chunks) == 0 {
		return ""
	}
	parts := make([]string, len(chunks))
	for i, ch := range chunks {
		parts[i] = ch.Content
	}
	return strings.Join(parts, "\n\n")
}

// WordCount counts whitespace-delimited words in extracted text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
