package rag

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"support-chat-service/internal/models"
	"support-chat-service/internal/repository"

	"github.com/rs/zerolog"
)

var nonWord = regexp.MustCompile(`[^\w\s]`)

// Retriever ranks knowledge-base chunks against a query by counting literal
// keyword occurrences. No embeddings are involved.
type Retriever struct {
	docs   repository.DocumentRepository
	logger zerolog.Logger
}

func NewRetriever(docs repository.DocumentRepository, logger zerolog.Logger) *Retriever {
	return &Retriever{docs: docs, logger: logger}
}

// FindRelevantChunks returns up to limit chunks ranked by relevance, drawn
// from active documents in ready status. Retrieval is best-effort: a store
// failure degrades to an empty result rather than failing the chat turn.
func (r *Retriever) FindRelevantChunks(ctx context.Context, query string, limit int) []models.RetrievedChunk {
	keywords := extractKeywords(query)
	if len(keywords) == 0 {
		return nil
	}

	documents, err := r.docs.ListRetrievable(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Retrieval failed, continuing without context")
		return nil
	}

	var scored []models.RetrievedChunk
	for _, doc := range documents {
		for _, chunk := range doc.Chunks {
			content := strings.ToLower(chunk.Content)
			score := 0
			for _, word := range keywords {
				score += strings.Count(content, word)
			}
			if score > 0 {
				scored = append(scored, models.RetrievedChunk{
					DocumentID:    doc.ID,
					DocumentTitle: doc.Title,
					Content:       chunk.Content,
					ChunkIndex:    chunk.ChunkIndex,
					Score:         score,
				})
			}
		}
	}

	// Stable: ties keep document iteration order, then chunk index order.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// extractKeywords lowercases the query, strips punctuation and drops tokens
// of one or two characters.
func extractKeywords(query string) []string {
	cleaned := nonWord.ReplaceAllString(strings.ToLower(query), "")

	var keywords []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) > 2 {
			keywords = append(keywords, word)
		}
	}
	return keywords
}
