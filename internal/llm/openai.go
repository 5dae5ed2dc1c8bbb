package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	"support-chat-service/internal/config"
	"support-chat-service/internal/models"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider against any OpenAI-compatible endpoint.
type OpenAIProvider struct {
	client *openai.Client
	cfg    config.LLMConfig
}

func NewOpenAIProvider(cfg config.LLMConfig) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}
}

func (p *OpenAIProvider) Model() string {
	return p.cfg.Model
}

func (p *OpenAIProvider) Generate(ctx context.Context, systemPrompt string, history []models.Message, message string) (*Result, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.buildRequest(systemPrompt, history, message, false))
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	return &Result{
		Text:       resp.Choices[0].Message.Content,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

func (p *OpenAIProvider) GenerateStream(ctx context.Context, systemPrompt string, history []models.Message, message string) <-chan Event {
	events := make(chan Event)

	go func() {
		defer close(events)

		stream, err := p.client.CreateChatCompletionStream(ctx, p.buildRequest(systemPrompt, history, message, true))
		if err != nil {
			events <- Event{Type: EventError, Err: fmt.Errorf("failed to open stream: %w", err)}
			return
		}
		defer stream.Close()

		tokensUsed := 0
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				events <- Event{Type: EventComplete, TokensUsed: tokensUsed}
				return
			}
			if err != nil {
				events <- Event{Type: EventError, Err: fmt.Errorf("stream error: %w", err)}
				return
			}

			if resp.Usage != nil {
				tokensUsed = resp.Usage.TotalTokens
			}
			if len(resp.Choices) > 0 {
				if content := resp.Choices[0].Delta.Content; content != "" {
					events <- Event{Type: EventChunk, Content: content}
				}
			}
		}
	}()

	return events
}

func (p *OpenAIProvider) buildRequest(systemPrompt string, history []models.Message, message string, stream bool) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, msg := range history {
		role := openai.ChatMessageRoleUser
		if msg.Role == models.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	req := openai.ChatCompletionRequest{
		Model:       p.cfg.Model,
		Messages:    messages,
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: float32(p.cfg.Temperature),
		Stream:      stream,
	}
	if stream {
		req.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	}
	return req
}
