package llm

import (
	"context"

	"support-chat-service/internal/models"
)

// Result is a whole-response model completion.
type Result struct {
	Text       string
	TokensUsed int
}

type EventType string

const (
	EventChunk    EventType = "chunk"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is one element of a streaming completion. The stream always
// terminates with exactly one complete or error event.
type Event struct {
	Type       EventType
	Content    string
	TokensUsed int
	Err        error
}

// Provider is an opaque text-generation backend. History carries prior
// conversation turns; the new user message is passed separately.
type Provider interface {
	Generate(ctx context.Context, systemPrompt string, history []models.Message, message string) (*Result, error)
	GenerateStream(ctx context.Context, systemPrompt string, history []models.Message, message string) <-chan Event
	Model() string
}
