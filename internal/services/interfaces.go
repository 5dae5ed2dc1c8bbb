package services

import (
	"context"
	"io"
)

// FileStore abstracts the object storage backing uploaded document files.
type FileStore interface {
	// Upload writes the object under key and returns nothing; the key doubles
	// as the document's stored file path.
	Upload(ctx context.Context, key, contentType string, body io.Reader) error

	// Download reads the full object back.
	Download(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object.
	Delete(ctx context.Context, key string) error
}
