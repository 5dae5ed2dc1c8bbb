package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"support-chat-service/internal/llm"
	"support-chat-service/internal/models"
	"support-chat-service/internal/repository"

	"github.com/rs/zerolog"
)

var (
	// ErrConversationNotFound covers both a missing conversation and one
	// owned by another user.
	ErrConversationNotFound = errors.New("conversation not found")

	ErrEmptyMessage = errors.New("message must not be empty")

	// ErrSendFailed is the generic client-facing failure for a chat turn.
	ErrSendFailed = errors.New("failed to send message")
)

type EventType string

const (
	EventChunk    EventType = "chunk"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is one element of the incremental output stream. The wire encoding
// lives in the transport adapter, not here.
type Event struct {
	Type    EventType
	Content string
	Error   string
}

// ContextRetriever supplies grounding chunks for a query. Implementations
// must soft-fail: retrieval problems degrade to an empty result.
type ContextRetriever interface {
	FindRelevantChunks(ctx context.Context, query string, limit int) []models.RetrievedChunk
}

// PromptComposer builds the system prompt from grounding inputs.
type PromptComposer interface {
	BuildSystemPrompt(contextText string, faqs []*models.FAQ) string
}

// Config bounds the grounding inputs of a chat turn.
type Config struct {
	TopK          int
	MaxFAQs       int
	HistoryWindow int
}

// Orchestrator executes one chat turn end to end: load the conversation,
// gather grounding context, call the model, persist the exchange and hand
// the assistant message (or its stream) back to the transport.
type Orchestrator struct {
	conversations repository.ConversationRepository
	faqs          repository.FAQRepository
	retriever     ContextRetriever
	composer      PromptComposer
	provider      llm.Provider
	cfg           Config
	logger        zerolog.Logger
}

func NewOrchestrator(
	conversations repository.ConversationRepository,
	faqs repository.FAQRepository,
	retriever ContextRetriever,
	composer PromptComposer,
	provider llm.Provider,
	cfg Config,
	logger zerolog.Logger,
) *Orchestrator {
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	if cfg.MaxFAQs <= 0 {
		cfg.MaxFAQs = 5
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 10
	}
	return &Orchestrator{
		conversations: conversations,
		faqs:          faqs,
		retriever:     retriever,
		composer:      composer,
		provider:      provider,
		cfg:           cfg,
		logger:        logger,
	}
}

// turn carries the prepared state of a chat turn before the model call.
type turn struct {
	conv         *models.Conversation
	systemPrompt string
	history      []models.Message
	sources      []models.RetrievedChunk
}

// SendMessage runs a whole-response chat turn. On provider failure nothing
// is persisted: the in-memory user message is discarded and the caller gets
// a generic error.
func (o *Orchestrator) SendMessage(ctx context.Context, userID, conversationID, message string) (*models.Message, error) {
	t, err := o.prepareTurn(ctx, userID, conversationID, message)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := o.provider.Generate(ctx, t.systemPrompt, t.history, message)
	if err != nil {
		o.logger.Error().Err(err).Str("conversation_id", conversationID).Msg("Model call failed")
		return nil, ErrSendFailed
	}

	assistant, err := o.finalize(ctx, t, result.Text, result.TokensUsed, time.Since(start))
	if err != nil {
		o.logger.Error().Err(err).Str("conversation_id", conversationID).Msg("Failed to persist chat turn")
		return nil, ErrSendFailed
	}
	return assistant, nil
}

// StreamMessage runs an incremental chat turn. Fragments are forwarded as
// they arrive, one in flight at a time; the channel always terminates with
// exactly one complete or error event. No assistant message is persisted
// when the provider errors mid-stream.
func (o *Orchestrator) StreamMessage(ctx context.Context, userID, conversationID, message string) <-chan Event {
	events := make(chan Event)

	go func() {
		defer close(events)

		// send drops the event once the consumer's context ends, so a
		// departed client never blocks the turn.
		send := func(ev Event) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		}

		t, err := o.prepareTurn(ctx, userID, conversationID, message)
		if err != nil {
			send(Event{Type: EventError, Error: clientError(err)})
			return
		}

		start := time.Now()
		var full strings.Builder
		tokensUsed := 0

		for ev := range o.provider.GenerateStream(ctx, t.systemPrompt, t.history, message) {
			switch ev.Type {
			case llm.EventChunk:
				full.WriteString(ev.Content)
				send(Event{Type: EventChunk, Content: ev.Content})
			case llm.EventComplete:
				tokensUsed = ev.TokensUsed
			case llm.EventError:
				o.logger.Error().Err(ev.Err).Str("conversation_id", conversationID).Msg("Model stream failed")
				send(Event{Type: EventError, Error: "Failed to get AI response"})
				return
			}
		}

		// Persistence outlives a transport disconnect.
		if _, err := o.finalize(context.WithoutCancel(ctx), t, full.String(), tokensUsed, time.Since(start)); err != nil {
			o.logger.Error().Err(err).Str("conversation_id", conversationID).Msg("Failed to persist chat turn")
			send(Event{Type: EventError, Error: ErrSendFailed.Error()})
			return
		}

		send(Event{Type: EventComplete})
	}()

	return events
}

// prepareTurn loads the conversation, appends the user message in memory and
// gathers the grounding inputs. Retrieval and the FAQ lookup are independent
// reads and run concurrently; the model call needs both.
func (o *Orchestrator) prepareTurn(ctx context.Context, userID, conversationID, message string) (*turn, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	conv, err := o.conversations.GetConversation(ctx, conversationID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	conv.Messages = append(conv.Messages, models.Message{
		Role:      models.RoleUser,
		Content:   message,
		CreatedAt: time.Now(),
	})

	var (
		retrieved []models.RetrievedChunk
		faqs      []*models.FAQ
		faqErr    error
		wg        sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		retrieved = o.retriever.FindRelevantChunks(ctx, message, o.cfg.TopK)
	}()
	go func() {
		defer wg.Done()
		faqs, faqErr = o.faqs.ListActiveFAQs(ctx, o.cfg.MaxFAQs)
	}()
	wg.Wait()
	if faqErr != nil {
		return nil, fmt.Errorf("failed to load FAQs: %w", faqErr)
	}

	recent := conv.Messages
	if len(recent) > o.cfg.HistoryWindow {
		recent = recent[len(recent)-o.cfg.HistoryWindow:]
	}

	return &turn{
		conv:         conv,
		systemPrompt: o.composer.BuildSystemPrompt(models.JoinChunks(retrieved), faqs),
		// Prior turns exclude the just-appended user message.
		history: recent[:len(recent)-1],
		sources: retrieved,
	}, nil
}

// finalize appends the assistant message, derives the title on the first
// exchange and persists the conversation.
func (o *Orchestrator) finalize(ctx context.Context, t *turn, responseText string, tokensUsed int, elapsed time.Duration) (*models.Message, error) {
	assistant := models.Message{
		Role:    models.RoleAssistant,
		Content: responseText,
		Metadata: &models.MessageMetadata{
			TokensUsed:     tokensUsed,
			Model:          o.provider.Model(),
			ProcessingTime: elapsed.Milliseconds(),
			Sources:        sourceRefs(t.sources),
		},
		CreatedAt: time.Now(),
	}

	t.conv.Messages = append(t.conv.Messages, assistant)
	t.conv.Metadata.TotalTokens += tokensUsed

	if t.conv.Title == models.DefaultConversationTitle {
		t.conv.DeriveTitle()
	}

	if err := o.conversations.SaveConversation(ctx, t.conv); err != nil {
		return nil, err
	}
	return &assistant, nil
}

func sourceRefs(retrieved []models.RetrievedChunk) []models.SourceRef {
	if len(retrieved) == 0 {
		return nil
	}
	refs := make([]models.SourceRef, len(retrieved))
	for i, ch := range retrieved {
		refs[i] = models.SourceRef{
			DocumentID:     ch.DocumentID,
			ChunkIndex:     ch.ChunkIndex,
			RelevanceScore: ch.Score,
		}
	}
	return refs
}

func clientError(err error) string {
	switch {
	case errors.Is(err, ErrConversationNotFound):
		return "Conversation not found"
	case errors.Is(err, ErrEmptyMessage):
		return "Message must not be empty"
	default:
		return ErrSendFailed.Error()
	}
}
