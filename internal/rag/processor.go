package rag

import (
	"context"
	"fmt"
	"sync"

	"support-chat-service/internal/models"
	"support-chat-service/internal/repository"
	"support-chat-service/internal/services"

	"github.com/rs/zerolog"
)

// Processor runs document extraction as background jobs: an upload enqueues
// the document id and returns immediately, and a worker pool performs
// extract → chunk → store, writing terminal status back to the document.
//
// Each run takes a per-document generation number. A reprocess started while
// an older run is still in flight bumps the generation, and the older run's
// status writes are skipped. Last-started wins deterministically instead of
// last-finished.
type Processor struct {
	docs      repository.DocumentRepository
	files     services.FileStore
	extractor *Extractor
	chunker   *Chunker
	logger    zerolog.Logger

	jobs    chan string
	workers sync.WaitGroup
	pending sync.WaitGroup

	mu          sync.Mutex
	generations map[string]uint64
}

func NewProcessor(docs repository.DocumentRepository, files services.FileStore, extractor *Extractor, chunker *Chunker, logger zerolog.Logger) *Processor {
	return &Processor{
		docs:        docs,
		files:       files,
		extractor:   extractor,
		chunker:     chunker,
		logger:      logger,
		jobs:        make(chan string, 64),
		generations: make(map[string]uint64),
	}
}

// Start launches the worker pool.
func (p *Processor) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.workers.Add(1)
		go func() {
			defer p.workers.Done()
			for id := range p.jobs {
				if err := p.Process(context.Background(), id); err != nil {
					p.logger.Error().Err(err).Str("document_id", id).Msg("Document processing failed")
				}
				p.pending.Done()
			}
		}()
	}
}

// Enqueue schedules a document for processing and returns immediately.
func (p *Processor) Enqueue(documentID string) {
	p.pending.Add(1)
	p.jobs <- documentID
}

// Wait blocks until every enqueued job has finished.
func (p *Processor) Wait() {
	p.pending.Wait()
}

// Shutdown stops accepting jobs and waits for the workers to drain.
func (p *Processor) Shutdown() {
	close(p.jobs)
	p.workers.Wait()
}

// Process runs one extraction synchronously. It is the unit the workers
// execute; tests call it directly for determinism.
func (p *Processor) Process(ctx context.Context, documentID string) error {
	gen := p.begin(documentID)

	doc, err := p.docs.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to load document %s: %w", documentID, err)
	}

	// A newer run may have started (and even finished) while this one was
	// loading; writing processing now would strand the document there.
	if !p.current(documentID, gen) {
		p.logger.Info().Str("document_id", documentID).Msg("Discarding stale processing run")
		return nil
	}

	if err := p.docs.UpdateDocumentStatus(ctx, documentID, models.DocumentStatusProcessing, ""); err != nil {
		return fmt.Errorf("failed to mark document %s processing: %w", documentID, err)
	}

	rawContent, chunks, extractErr := p.run(ctx, doc)
	if !p.current(documentID, gen) {
		p.logger.Info().Str("document_id", documentID).Msg("Discarding stale processing result")
		return nil
	}

	if extractErr != nil {
		if statusErr := p.docs.UpdateDocumentStatus(ctx, documentID, models.DocumentStatusError, extractErr.Error()); statusErr != nil {
			return fmt.Errorf("failed to record processing error for %s: %w", documentID, statusErr)
		}
		return extractErr
	}

	if err := p.docs.StoreExtraction(ctx, documentID, rawContent, chunks, models.WordCount(rawContent)); err != nil {
		return fmt.Errorf("failed to store extraction for %s: %w", documentID, err)
	}

	p.logger.Info().
		Str("document_id", documentID).
		Int("chunks", len(chunks)).
		Msg("Document processed")
	return nil
}

func (p *Processor) run(ctx context.Context, doc *models.Document) (string, []models.Chunk, error) {
	data, err := p.files.Download(ctx, doc.FilePath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read stored file: %w", err)
	}

	rawContent, err := p.extractor.Extract(data, doc.MimeType)
	if err != nil {
		return "", nil, err
	}

	return rawContent, p.chunker.Split(rawContent), nil
}

func (p *Processor) begin(documentID string) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generations[documentID]++
	return p.generations[documentID]
}

func (p *Processor) current(documentID string, gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generations[documentID] == gen
}
