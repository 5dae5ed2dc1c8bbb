package rag

import (
	"regexp"
	"strings"

	"support-chat-service/internal/models"
)

var (
	newlineRuns  = regexp.MustCompile(`\n+`)
	sentenceEnds = regexp.MustCompile(`[.!?]+`)
)

// Chunker splits raw text into overlapping bounded-length chunks. Sentences
// are the unit of accumulation: a chunk closes when appending the next
// sentence would exceed the target size, and the following chunk is seeded
// with the trailing words of the one just closed. The overlap parameter is
// in characters but is applied as ceil(overlap/5) words, matching the
// behavior the retrieval scores were tuned against.
type Chunker struct {
	chunkSize int
	overlap   int
}

func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

func (c *Chunker) Split(text string) []models.Chunk {
	normalized := newlineRuns.ReplaceAllString(text, " ")
	sentences := sentenceEnds.Split(normalized, -1)

	var chunks []models.Chunk
	current := ""

	for _, sentence := range sentences {
		trimmed := strings.TrimSpace(sentence)
		if trimmed == "" {
			continue
		}

		if len(current)+len(trimmed) > c.chunkSize {
			if current != "" {
				chunks = append(chunks, models.Chunk{
					Content:    strings.TrimSpace(current),
					ChunkIndex: len(chunks),
				})
			}
			current = c.seedOverlap(current) + trimmed + ". "
		} else {
			current += trimmed + ". "
		}
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, models.Chunk{
			Content:    strings.TrimSpace(current),
			ChunkIndex: len(chunks),
		})
	}

	return chunks
}

// seedOverlap returns the trailing ceil(overlap/5) words of the closed chunk,
// with a trailing space, to prefix the next chunk.
func (c *Chunker) seedOverlap(closed string) string {
	words := strings.Fields(closed)
	n := (c.overlap + 4) / 5
	if n > len(words) {
		n = len(words)
	}
	if n == 0 {
		return ""
	}
	return strings.Join(words[len(words)-n:], " ") + " "
}
