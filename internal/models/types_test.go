package models_test

import (
	"strings"
	"testing"

	"support-chat-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestTruncateTitle(t *testing.T) {
	t.Run("TruncateTitle_ShortUnchanged", func(t *testing.T) {
		assert.Equal(t, "Where is my order?", models.TruncateTitle("Where is my order?"))
	})

	t.Run("TruncateTitle_ExactlyFiftyUnchanged", func(t *testing.T) {
		s := strings.Repeat("a", 50)
		assert.Equal(t, s, models.TruncateTitle(s))
	})

	t.Run("TruncateTitle_LongGetsEllipsis", func(t *testing.T) {
		s := strings.Repeat("a", 51)
		got := models.TruncateTitle(s)
		assert.Equal(t, strings.Repeat("a", 50)+"...", got)
		assert.Len(t, []rune(got), 53)
	})

	t.Run("TruncateTitle_CountsRunesNotBytes", func(t *testing.T) {
		s := strings.Repeat("ü", 50)
		assert.Equal(t, s, models.TruncateTitle(s))

		long := strings.Repeat("ü", 60)
		assert.Equal(t, strings.Repeat("ü", 50)+"...", models.TruncateTitle(long))
	})

	t.Run("TruncateTitle_Idempotent", func(t *testing.T) {
		once := models.TruncateTitle(strings.Repeat("b", 80))
		assert.Equal(t, once, models.TruncateTitle(once))
	})
}

func TestConversationDeriveTitle(t *testing.T) {
	t.Run("DeriveTitle_FromFirstUserMessage", func(t *testing.T) {
		conv := &models.Conversation{
			Title: models.DefaultConversationTitle,
			Messages: []models.Message{
				{Role: models.RoleAssistant, Content: "Hi! How can I help?"},
				{Role: models.RoleUser, Content: "My package never arrived"},
				{Role: models.RoleUser, Content: "It has been two weeks"},
			},
		}

		assert.Equal(t, "My package never arrived", conv.DeriveTitle())
		assert.Equal(t, "My package never arrived", conv.Title)
	})

	t.Run("DeriveTitle_NoUserMessageKeepsPlaceholder", func(t *testing.T) {
		conv := &models.Conversation{Title: models.DefaultConversationTitle}

		assert.Equal(t, models.DefaultConversationTitle, conv.DeriveTitle())
	})
}

func TestConversationRecount(t *testing.T) {
	conv := &models.Conversation{
		Messages: []models.Message{
			{Role: models.RoleUser, Content: "one"},
			{Role: models.RoleAssistant, Content: "two"},
		},
		Metadata: models.ConversationMetadata{MessageCount: 99},
	}

	conv.Recount()
	assert.Equal(t, 2, conv.Metadata.MessageCount)
}

func TestJoinChunks(t *testing.T) {
	t.Run("JoinChunks_Empty", func(t *testing.T) {
		assert.Equal(t, "", models.JoinChunks(nil))
	})

	t.Run("JoinChunks_BlankLineSeparated", func(t *testing.T) {
		chunks := []models.RetrievedChunk{
			{Content: "First chunk."},
			{Content: "Second chunk."},
		}
		assert.Equal(t, "First chunk.\n\nSecond chunk.", models.JoinChunks(chunks))
	})
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, models.WordCount(""))
	assert.Equal(t, 0, models.WordCount("   \n\t "))
	assert.Equal(t, 5, models.WordCount("the quick  brown\nfox jumps"))
}
