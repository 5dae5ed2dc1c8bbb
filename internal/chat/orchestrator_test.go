package chat_test

import (
	"context"
	"testing"
	"time"

	"support-chat-service/internal/chat"
	"support-chat-service/internal/llm"
	"support-chat-service/internal/models"
	"support-chat-service/internal/repository"
	"support-chat-service/internal/repository/mocks"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Generate(ctx context.Context, systemPrompt string, history []models.Message, message string) (*llm.Result, error) {
	args := m.Called(ctx, systemPrompt, history, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Result), args.Error(1)
}

func (m *mockProvider) GenerateStream(ctx context.Context, systemPrompt string, history []models.Message, message string) <-chan llm.Event {
	args := m.Called(ctx, systemPrompt, history, message)
	return args.Get(0).(<-chan llm.Event)
}

func (m *mockProvider) Model() string {
	args := m.Called()
	return args.String(0)
}

type stubRetriever struct {
	chunks []models.RetrievedChunk
}

func (s *stubRetriever) FindRelevantChunks(ctx context.Context, query string, limit int) []models.RetrievedChunk {
	if limit > 0 && len(s.chunks) > limit {
		return s.chunks[:limit]
	}
	return s.chunks
}

type stubComposer struct{}

func (stubComposer) BuildSystemPrompt(contextText string, faqs []*models.FAQ) string {
	return "persona\n" + contextText
}

func eventChannel(events ...llm.Event) <-chan llm.Event {
	ch := make(chan llm.Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}

func activeConversation(id, userID string) *models.Conversation {
	now := time.Now()
	return &models.Conversation{
		ID:        id,
		UserID:    userID,
		Title:     models.DefaultConversationTitle,
		Status:    models.ConversationStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newTestOrchestrator(repo *mocks.MockRepository, retriever chat.ContextRetriever, provider llm.Provider) *chat.Orchestrator {
	return chat.NewOrchestrator(repo, repo, retriever, stubComposer{}, provider, chat.Config{}, zerolog.Nop())
}

func TestOrchestratorSendMessage(t *testing.T) {
	t.Run("SendMessage_Success", func(t *testing.T) {
		mockRepo := mocks.NewMockRepository()
		provider := &mockProvider{}
		conv := activeConversation("conv-1", "user-1")
		retriever := &stubRetriever{chunks: []models.RetrievedChunk{
			{DocumentID: "doc-1", ChunkIndex: 0, Content: "Refunds take 5 days.", Score: 3},
		}}

		mockRepo.On("GetConversation", mock.Anything, "conv-1", "user-1").Return(conv, nil)
		mockRepo.On("ListActiveFAQs", mock.Anything, 5).Return([]*models.FAQ{}, nil)
		provider.On("Generate", mock.Anything, mock.Anything, mock.Anything, "What is your refund policy?").
			Return(&llm.Result{Text: "Refunds take five days.", TokensUsed: 42}, nil)
		provider.On("Model").Return("test-model")
		mockRepo.On("SaveConversation", mock.Anything, conv).Return(nil)

		o := newTestOrchestrator(mockRepo, retriever, provider)
		msg, err := o.SendMessage(context.Background(), "user-1", "conv-1", "What is your refund policy?")

		assert.NoError(t, err)
		assert.Equal(t, models.RoleAssistant, msg.Role)
		assert.Equal(t, "Refunds take five days.", msg.Content)
		assert.Equal(t, 42, msg.Metadata.TokensUsed)
		assert.Equal(t, "test-model", msg.Metadata.Model)
		assert.Equal(t, []models.SourceRef{{DocumentID: "doc-1", ChunkIndex: 0, RelevanceScore: 3}}, msg.Metadata.Sources)

		// The persisted conversation carries both sides of the exchange and a
		// title derived from the first user message.
		assert.Len(t, conv.Messages, 2)
		assert.Equal(t, models.RoleUser, conv.Messages[0].Role)
		assert.Equal(t, "What is your refund policy?", conv.Title)
		assert.Equal(t, 42, conv.Metadata.TotalTokens)
		mockRepo.AssertExpectations(t)
		provider.AssertExpectations(t)
	})

	t.Run("SendMessage_EmptyMessage", func(t *testing.T) {
		mockRepo := mocks.NewMockRepository()
		provider := &mockProvider{}

		o := newTestOrchestrator(mockRepo, &stubRetriever{}, provider)
		_, err := o.SendMessage(context.Background(), "user-1", "conv-1", "   ")

		assert.ErrorIs(t, err, chat.ErrEmptyMessage)
		mockRepo.AssertNotCalled(t, "GetConversation", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("SendMessage_ConversationNotFound", func(t *testing.T) {
		mockRepo := mocks.NewMockRepository()
		provider := &mockProvider{}
		mockRepo.On("GetConversation", mock.Anything, "missing", "user-1").Return(nil, repository.ErrNotFound)

		o := newTestOrchestrator(mockRepo, &stubRetriever{}, provider)
		_, err := o.SendMessage(context.Background(), "user-1", "missing", "hello there")

		assert.ErrorIs(t, err, chat.ErrConversationNotFound)
	})

	t.Run("SendMessage_ProviderFailureDiscardsUserMessage", func(t *testing.T) {
		mockRepo := mocks.NewMockRepository()
		provider := &mockProvider{}
		conv := activeConversation("conv-1", "user-1")

		mockRepo.On("GetConversation", mock.Anything, "conv-1", "user-1").Return(conv, nil)
		mockRepo.On("ListActiveFAQs", mock.Anything, 5).Return([]*models.FAQ{}, nil)
		provider.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, assert.AnError)

		o := newTestOrchestrator(mockRepo, &stubRetriever{}, provider)
		_, err := o.SendMessage(context.Background(), "user-1", "conv-1", "hello there")

		assert.ErrorIs(t, err, chat.ErrSendFailed)
		mockRepo.AssertNotCalled(t, "SaveConversation", mock.Anything, mock.Anything)
	})

	t.Run("SendMessage_LongFirstMessageTruncatesTitle", func(t *testing.T) {
		mockRepo := mocks.NewMockRepository()
		provider := &mockProvider{}
		conv := activeConversation("conv-1", "user-1")
		message := "How do I reset my password and also configure two-factor authentication please"

		mockRepo.On("GetConversation", mock.Anything, "conv-1", "user-1").Return(conv, nil)
		mockRepo.On("ListActiveFAQs", mock.Anything, 5).Return([]*models.FAQ{}, nil)
		provider.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(&llm.Result{Text: "Sure."}, nil)
		provider.On("Model").Return("test-model")
		mockRepo.On("SaveConversation", mock.Anything, conv).Return(nil)

		o := newTestOrchestrator(mockRepo, &stubRetriever{}, provider)
		_, err := o.SendMessage(context.Background(), "user-1", "conv-1", message)

		assert.NoError(t, err)
		assert.Equal(t, models.TruncateTitle(message), conv.Title)
		assert.Len(t, []rune(conv.Title), 53)
	})

	t.Run("SendMessage_HistoryWindowExcludesNewMessage", func(t *testing.T) {
		mockRepo := mocks.NewMockRepository()
		provider := &mockProvider{}
		conv := activeConversation("conv-1", "user-1")
		conv.Title = "Earlier exchange"
		for i := 0; i < 12; i++ {
			role := models.RoleUser
			if i%2 == 1 {
				role = models.RoleAssistant
			}
			conv.Messages = append(conv.Messages, models.Message{Role: role, Content: "turn"})
		}

		mockRepo.On("GetConversation", mock.Anything, "conv-1", "user-1").Return(conv, nil)
		mockRepo.On("ListActiveFAQs", mock.Anything, 5).Return([]*models.FAQ{}, nil)

		var history []models.Message
		provider.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				history = args.Get(2).([]models.Message)
			}).
			Return(&llm.Result{Text: "ok"}, nil)
		provider.On("Model").Return("test-model")
		mockRepo.On("SaveConversation", mock.Anything, conv).Return(nil)

		o := newTestOrchestrator(mockRepo, &stubRetriever{}, provider)
		_, err := o.SendMessage(context.Background(), "user-1", "conv-1", "one more question")

		assert.NoError(t, err)
		// 13 messages after the append, windowed to the last 10, minus the
		// just-appended user message.
		assert.Len(t, history, 9)
	})
}

func TestOrchestratorStreamMessage(t *testing.T) {
	t.Run("StreamMessage_Success", func(t *testing.T) {
		mockRepo := mocks.NewMockRepository()
		provider := &mockProvider{}
		conv := activeConversation("conv-1", "user-1")

		mockRepo.On("GetConversation", mock.Anything, "conv-1", "user-1").Return(conv, nil)
		mockRepo.On("ListActiveFAQs", mock.Anything, 5).Return([]*models.FAQ{}, nil)
		provider.On("GenerateStream", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(eventChannel(
				llm.Event{Type: llm.EventChunk, Content: "Refunds take "},
				llm.Event{Type: llm.EventChunk, Content: "five days."},
				llm.Event{Type: llm.EventComplete, TokensUsed: 17},
			))
		provider.On("Model").Return("test-model")
		mockRepo.On("SaveConversation", mock.Anything, conv).Return(nil)

		o := newTestOrchestrator(mockRepo, &stubRetriever{}, provider)

		var events []chat.Event
		for ev := range o.StreamMessage(context.Background(), "user-1", "conv-1", "refund policy?") {
			events = append(events, ev)
		}

		assert.Len(t, events, 3)
		assert.Equal(t, chat.EventChunk, events[0].Type)
		assert.Equal(t, chat.EventChunk, events[1].Type)
		assert.Equal(t, chat.EventComplete, events[2].Type)

		// The persisted assistant message is the concatenation of the
		// forwarded fragments.
		assert.Len(t, conv.Messages, 2)
		assert.Equal(t, events[0].Content+events[1].Content, conv.Messages[1].Content)
		assert.Equal(t, 17, conv.Messages[1].Metadata.TokensUsed)
		assert.Equal(t, 17, conv.Metadata.TotalTokens)
		mockRepo.AssertExpectations(t)
	})

	t.Run("StreamMessage_DepartedConsumerStillPersists", func(t *testing.T) {
		mockRepo := mocks.NewMockRepository()
		provider := &mockProvider{}
		conv := activeConversation("conv-1", "user-1")

		mockRepo.On("GetConversation", mock.Anything, "conv-1", "user-1").Return(conv, nil)
		mockRepo.On("ListActiveFAQs", mock.Anything, 5).Return([]*models.FAQ{}, nil)
		provider.On("GenerateStream", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(eventChannel(
				llm.Event{Type: llm.EventChunk, Content: "Refunds take "},
				llm.Event{Type: llm.EventChunk, Content: "five days."},
				llm.Event{Type: llm.EventComplete, TokensUsed: 17},
			))
		provider.On("Model").Return("test-model")

		saved := make(chan struct{})
		mockRepo.On("SaveConversation", mock.Anything, conv).
			Run(func(mock.Arguments) { close(saved) }).Return(nil)

		ctx, cancel := context.WithCancel(context.Background())
		o := newTestOrchestrator(mockRepo, &stubRetriever{}, provider)

		// Read one fragment, then walk away without draining the channel.
		events := o.StreamMessage(ctx, "user-1", "conv-1", "refund policy?")
		<-events
		cancel()

		select {
		case <-saved:
		case <-time.After(2 * time.Second):
			t.Fatal("conversation was not persisted after the consumer left")
		}

		assert.Len(t, conv.Messages, 2)
		assert.Equal(t, "Refunds take five days.", conv.Messages[1].Content)
		assert.Equal(t, 17, conv.Metadata.TotalTokens)
	})

	t.Run("StreamMessage_ProviderErrorEmitsSingleErrorEvent", func(t *testing.T) {
		mockRepo := mocks.NewMockRepository()
		provider := &mockProvider{}
		conv := activeConversation("conv-1", "user-1")

		mockRepo.On("GetConversation", mock.Anything, "conv-1", "user-1").Return(conv, nil)
		mockRepo.On("ListActiveFAQs", mock.Anything, 5).Return([]*models.FAQ{}, nil)
		provider.On("GenerateStream", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(eventChannel(
				llm.Event{Type: llm.EventChunk, Content: "partial"},
				llm.Event{Type: llm.EventError, Err: assert.AnError},
			))

		o := newTestOrchestrator(mockRepo, &stubRetriever{}, provider)

		var events []chat.Event
		for ev := range o.StreamMessage(context.Background(), "user-1", "conv-1", "refund policy?") {
			events = append(events, ev)
		}

		assert.Len(t, events, 2)
		assert.Equal(t, chat.EventChunk, events[0].Type)
		assert.Equal(t, chat.EventError, events[1].Type)
		assert.Equal(t, "Failed to get AI response", events[1].Error)
		mockRepo.AssertNotCalled(t, "SaveConversation", mock.Anything, mock.Anything)
	})

	t.Run("StreamMessage_ConversationNotFound", func(t *testing.T) {
		mockRepo := mocks.NewMockRepository()
		provider := &mockProvider{}
		mockRepo.On("GetConversation", mock.Anything, "missing", "user-1").Return(nil, repository.ErrNotFound)

		o := newTestOrchestrator(mockRepo, &stubRetriever{}, provider)

		var events []chat.Event
		for ev := range o.StreamMessage(context.Background(), "user-1", "missing", "hello") {
			events = append(events, ev)
		}

		assert.Len(t, events, 1)
		assert.Equal(t, chat.EventError, events[0].Type)
		assert.Equal(t, "Conversation not found", events[0].Error)
	})
}
