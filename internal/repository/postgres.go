package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"support-chat-service/internal/config"
	"support-chat-service/internal/models"

	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(cfg *config.DatabaseConfig) (*PostgresRepository, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// DB exposes the underlying handle for schema setup in integration tests.
func (r *PostgresRepository) DB() *sql.DB {
	return r.db
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const documentColumns = `id, title, description, filename, original_name, mime_type,
	file_size, file_path, status, processing_error, uploaded_by, is_active,
	total_chunks, word_count, created_at, updated_at`

func (r *PostgresRepository) CreateDocument(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (id, title, description, filename, original_name,
			mime_type, file_size, file_path, status, uploaded_by, is_active,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		doc.ID, doc.Title, doc.Description, doc.Filename, doc.OriginalName,
		doc.MimeType, doc.FileSize, doc.FilePath, doc.Status, doc.UploadedBy,
		doc.IsActive, doc.CreatedAt, doc.UpdatedAt,
	)
	return err
}

func (r *PostgresRepository) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`

	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *PostgresRepository) GetDocumentWithChunks(ctx context.Context, id string) (*models.Document, error) {
	doc, err := r.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	var chunksJSON []byte
	err = r.db.QueryRowContext(ctx, `SELECT COALESCE(chunks, '[]') FROM documents WHERE id = $1`, id).Scan(&chunksJSON)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(chunksJSON, &doc.Chunks); err != nil {
		return nil, fmt.Errorf("failed to decode chunks for document %s: %w", id, err)
	}
	return doc, nil
}

func (r *PostgresRepository) ListDocuments(ctx context.Context, limit, offset int, statusFilter string) ([]*models.Document, int, error) {
	query := `SELECT ` + documentColumns + ` FROM documents`
	countQuery := `SELECT COUNT(*) FROM documents`

	var args []interface{}
	if statusFilter != "" {
		args = append(args, statusFilter)
		query += " WHERE status = $1"
		countQuery += " WHERE status = $1"
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)

	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var documents []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		documents = append(documents, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return documents, total, nil
}

func (r *PostgresRepository) ListRetrievable(ctx context.Context) ([]*models.Document, error) {
	query := `
		SELECT id, title, COALESCE(chunks, '[]')
		FROM documents
		WHERE status = $1 AND is_active = TRUE
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, models.DocumentStatusReady)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var documents []*models.Document
	for rows.Next() {
		var doc models.Document
		var chunksJSON []byte
		if err := rows.Scan(&doc.ID, &doc.Title, &chunksJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(chunksJSON, &doc.Chunks); err != nil {
			return nil, fmt.Errorf("failed to decode chunks for document %s: %w", doc.ID, err)
		}
		doc.Status = models.DocumentStatusReady
		doc.IsActive = true
		documents = append(documents, &doc)
	}
	return documents, rows.Err()
}

func (r *PostgresRepository) UpdateDocument(ctx context.Context, id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	setClause := ""
	args := make([]interface{}, 0, len(updates)+2)
	for key, value := range updates {
		args = append(args, value)
		if setClause != "" {
			setClause += ", "
		}
		setClause += fmt.Sprintf("%s = $%d", key, len(args))
	}
	args = append(args, time.Now())
	setClause += fmt.Sprintf(", updated_at = $%d", len(args))
	args = append(args, id)

	query := fmt.Sprintf("UPDATE documents SET %s WHERE id = $%d", setClause, len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PostgresRepository) DeleteDocument(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PostgresRepository) UpdateDocumentStatus(ctx context.Context, id, status, errorMessage string) error {
	query := `
		UPDATE documents
		SET status = $1, processing_error = $2, updated_at = $3
		WHERE id = $4
	`
	res, err := r.db.ExecContext(ctx, query, status, nullString(errorMessage), time.Now(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PostgresRepository) StoreExtraction(ctx context.Context, id, rawContent string, chunks []models.Chunk, wordCount int) error {
	chunksJSON, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("failed to encode chunks: %w", err)
	}

	query := `
		UPDATE documents
		SET raw_content = $1, chunks = $2, total_chunks = $3, word_count = $4,
			status = $5, processing_error = NULL, updated_at = $6
		WHERE id = $7
	`
	res, err := r.db.ExecContext(ctx, query,
		rawContent, chunksJSON, len(chunks), wordCount,
		models.DocumentStatusReady, time.Now(), id,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PostgresRepository) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	query := `
		INSERT INTO conversations (id, user_id, title, messages, status,
			total_tokens, message_count, created_at, updated_at)
		VALUES ($1, $2, $3, '[]', $4, 0, 0, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		conv.ID, conv.UserID, conv.Title, conv.Status, conv.CreatedAt, conv.UpdatedAt,
	)
	return err
}

func (r *PostgresRepository) GetConversation(ctx context.Context, id, userID string) (*models.Conversation, error) {
	query := `
		SELECT id, user_id, title, COALESCE(messages, '[]'), status,
			total_tokens, message_count, created_at, updated_at
		FROM conversations
		WHERE id = $1 AND user_id = $2 AND status != $3
	`

	var conv models.Conversation
	var messagesJSON []byte
	err := r.db.QueryRowContext(ctx, query, id, userID, models.ConversationStatusDeleted).Scan(
		&conv.ID, &conv.UserID, &conv.Title, &messagesJSON, &conv.Status,
		&conv.Metadata.TotalTokens, &conv.Metadata.MessageCount,
		&conv.CreatedAt, &conv.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(messagesJSON, &conv.Messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages for conversation %s: %w", id, err)
	}
	return &conv, nil
}

func (r *PostgresRepository) ListConversations(ctx context.Context, userID string, limit, offset int) ([]*models.Conversation, int, error) {
	query := `
		SELECT id, user_id, title, status, total_tokens, message_count,
			created_at, updated_at
		FROM conversations
		WHERE user_id = $1 AND status != $2
		ORDER BY updated_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.QueryContext(ctx, query, userID, models.ConversationStatusDeleted, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var conversations []*models.Conversation
	for rows.Next() {
		var conv models.Conversation
		if err := rows.Scan(
			&conv.ID, &conv.UserID, &conv.Title, &conv.Status,
			&conv.Metadata.TotalTokens, &conv.Metadata.MessageCount,
			&conv.CreatedAt, &conv.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		conversations = append(conversations, &conv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM conversations WHERE user_id = $1 AND status != $2`
	if err := r.db.QueryRowContext(ctx, countQuery, userID, models.ConversationStatusDeleted).Scan(&total); err != nil {
		return nil, 0, err
	}

	return conversations, total, nil
}

func (r *PostgresRepository) SaveConversation(ctx context.Context, conv *models.Conversation) error {
	conv.Recount()

	messagesJSON, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("failed to encode messages: %w", err)
	}

	query := `
		UPDATE conversations
		SET title = $1, messages = $2, status = $3, total_tokens = $4,
			message_count = $5, updated_at = $6
		WHERE id = $7 AND user_id = $8
	`
	res, err := r.db.ExecContext(ctx, query,
		conv.Title, messagesJSON, conv.Status, conv.Metadata.TotalTokens,
		conv.Metadata.MessageCount, time.Now(), conv.ID, conv.UserID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PostgresRepository) SoftDeleteConversation(ctx context.Context, id, userID string) error {
	query := `
		UPDATE conversations
		SET status = $1, updated_at = $2
		WHERE id = $3 AND user_id = $4 AND status != $1
	`
	res, err := r.db.ExecContext(ctx, query, models.ConversationStatusDeleted, time.Now(), id, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PostgresRepository) ClearMessages(ctx context.Context, id, userID string) error {
	query := `
		UPDATE conversations
		SET messages = '[]', message_count = 0, total_tokens = 0,
			title = $1, updated_at = $2
		WHERE id = $3 AND user_id = $4
	`
	res, err := r.db.ExecContext(ctx, query, models.DefaultConversationTitle, time.Now(), id, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

const faqColumns = `id, question, answer, category, tags, priority, is_active,
	created_by, view_count, created_at, updated_at`

func (r *PostgresRepository) CreateFAQ(ctx context.Context, faq *models.FAQ) error {
	query := `
		INSERT INTO faqs (id, question, answer, category, tags, priority,
			is_active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		faq.ID, faq.Question, faq.Answer, faq.Category, pq.Array(faq.Tags),
		faq.Priority, faq.IsActive, faq.CreatedBy, faq.CreatedAt, faq.UpdatedAt,
	)
	return err
}

func (r *PostgresRepository) GetFAQ(ctx context.Context, id string) (*models.FAQ, error) {
	query := `
		UPDATE faqs SET view_count = view_count + 1 WHERE id = $1
		RETURNING ` + faqColumns

	faq, err := scanFAQ(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return faq, nil
}

func (r *PostgresRepository) ListFAQs(ctx context.Context, category string, limit, offset int) ([]*models.FAQ, int, error) {
	query := `SELECT ` + faqColumns + ` FROM faqs WHERE is_active = TRUE`
	countQuery := `SELECT COUNT(*) FROM faqs WHERE is_active = TRUE`

	var args []interface{}
	if category != "" {
		args = append(args, category)
		query += " AND category = $1"
		countQuery += " AND category = $1"
	}
	query += fmt.Sprintf(" ORDER BY priority DESC, created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)

	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var faqs []*models.FAQ
	for rows.Next() {
		faq, err := scanFAQ(rows)
		if err != nil {
			return nil, 0, err
		}
		faqs = append(faqs, faq)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return faqs, total, nil
}

func (r *PostgresRepository) ListActiveFAQs(ctx context.Context, limit int) ([]*models.FAQ, error) {
	query := `SELECT ` + faqColumns + `
		FROM faqs
		WHERE is_active = TRUE
		ORDER BY priority DESC, created_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var faqs []*models.FAQ
	for rows.Next() {
		faq, err := scanFAQ(rows)
		if err != nil {
			return nil, err
		}
		faqs = append(faqs, faq)
	}
	return faqs, rows.Err()
}

func (r *PostgresRepository) UpdateFAQ(ctx context.Context, id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	setClause := ""
	args := make([]interface{}, 0, len(updates)+2)
	for key, value := range updates {
		if key == "tags" {
			if tags, ok := value.([]string); ok {
				value = pq.Array(tags)
			}
		}
		args = append(args, value)
		if setClause != "" {
			setClause += ", "
		}
		setClause += fmt.Sprintf("%s = $%d", key, len(args))
	}
	args = append(args, time.Now())
	setClause += fmt.Sprintf(", updated_at = $%d", len(args))
	args = append(args, id)

	query := fmt.Sprintf("UPDATE faqs SET %s WHERE id = $%d", setClause, len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PostgresRepository) DeleteFAQ(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM faqs WHERE id = $1", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row scanner) (*models.Document, error) {
	var doc models.Document
	var description, processingError, filePath sql.NullString
	err := row.Scan(
		&doc.ID, &doc.Title, &description, &doc.Filename, &doc.OriginalName,
		&doc.MimeType, &doc.FileSize, &filePath, &doc.Status, &processingError,
		&doc.UploadedBy, &doc.IsActive, &doc.TotalChunks, &doc.WordCount,
		&doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.Description = description.String
	doc.ProcessingError = processingError.String
	doc.FilePath = filePath.String
	return &doc, nil
}

func scanFAQ(row scanner) (*models.FAQ, error) {
	var faq models.FAQ
	err := row.Scan(
		&faq.ID, &faq.Question, &faq.Answer, &faq.Category, pq.Array(&faq.Tags),
		&faq.Priority, &faq.IsActive, &faq.CreatedBy, &faq.ViewCount,
		&faq.CreatedAt, &faq.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &faq, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
