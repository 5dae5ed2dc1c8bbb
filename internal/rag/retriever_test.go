package rag_test

import (
	"context"
	"testing"

	"support-chat-service/internal/models"
	"support-chat-service/internal/rag"
	"support-chat-service/internal/repository/mocks"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func retrievableDocs() []*models.Document {
	return []*models.Document{
		{
			ID:    "doc-1",
			Title: "Refund Policy",
			Chunks: []models.Chunk{
				{Content: "Our refund policy is simple. The policy covers 30 days.", ChunkIndex: 0},
				{Content: "Shipping takes 3 to 5 business days.", ChunkIndex: 1},
			},
		},
		{
			ID:    "doc-2",
			Title: "Account Guide",
			Chunks: []models.Chunk{
				{Content: "You can request a refund from the account page.", ChunkIndex: 0},
			},
		},
	}
}

func TestRetrieverFindRelevantChunks(t *testing.T) {
	t.Run("FindRelevantChunks_RanksByOccurrenceCount", func(t *testing.T) {
		mockRepo := mocks.NewMockRepository()
		mockRepo.On("ListRetrievable", mock.Anything).Return(retrievableDocs(), nil)

		retriever := rag.NewRetriever(mockRepo, zerolog.Nop())
		results := retriever.FindRelevantChunks(context.Background(), "What is your refund policy?", 3)

		// doc-1 chunk 0 scores policy*2 + refund*1 = 3; doc-2 chunk 0 scores 1.
		assert.Len(t, results, 2)
		assert.Equal(t, "doc-1", results[0].DocumentID)
		assert.Equal(t, 0, results[0].ChunkIndex)
		assert.Equal(t, 3, results[0].Score)
		assert.Equal(t, "doc-2", results[1].DocumentID)
		assert.Equal(t, 1, results[1].Score)
		mockRepo.AssertExpectations(t)
	})

	t.Run("FindRelevantChunks_DropsZeroScores", func(t *testing.T) {
		mockRepo := mocks.NewMockRepository()
		mockRepo.On("ListRetrievable", mock.Anything).Return(retrievableDocs(), nil)

		retriever := rag.NewRetriever(mockRepo, zerolog.Nop())
		results := retriever.FindRelevantChunks(context.Background(), "warranty claims", 3)

		assert.Empty(t, results)
	})

	t.Run("FindRelevantChunks_IgnoresShortTokensAndPunctuation", func(t *testing.T) {
		mockRepo := mocks.NewMockRepository()
		mockRepo.On("ListRetrievable", mock.Anything).Return(retrievableDocs(), nil)

		retriever := rag.NewRetriever(mockRepo, zerolog.Nop())
		results := retriever.FindRelevantChunks(context.Background(), "REFUND!!!", 3)

		assert.Len(t, results, 2)
		for _, r := range results {
			assert.Greater(t, r.Score, 0)
		}
	})

	t.Run("FindRelevantChunks_NoUsableKeywords", func(t *testing.T) {
		mockRepo := mocks.NewMockRepository()

		retriever := rag.NewRetriever(mockRepo, zerolog.Nop())
		results := retriever.FindRelevantChunks(context.Background(), "is it a no?", 3)

		assert.Empty(t, results)
		mockRepo.AssertNotCalled(t, "ListRetrievable", mock.Anything)
	})

	t.Run("FindRelevantChunks_StoreErrorDegradesToEmpty", func(t *testing.T) {
		mockRepo := mocks.NewMockRepository()
		mockRepo.On("ListRetrievable", mock.Anything).Return(nil, assert.AnError)

		retriever := rag.NewRetriever(mockRepo, zerolog.Nop())
		results := retriever.FindRelevantChunks(context.Background(), "refund policy", 3)

		assert.Empty(t, results)
		mockRepo.AssertExpectations(t)
	})

	t.Run("FindRelevantChunks_RespectsLimit", func(t *testing.T) {
		mockRepo := mocks.NewMockRepository()
		mockRepo.On("ListRetrievable", mock.Anything).Return(retrievableDocs(), nil)

		retriever := rag.NewRetriever(mockRepo, zerolog.Nop())
		results := retriever.FindRelevantChunks(context.Background(), "refund policy", 1)

		assert.Len(t, results, 1)
		assert.Equal(t, "doc-1", results[0].DocumentID)
	})
}
