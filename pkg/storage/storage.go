// Package storage archives the raw statements handed to the importer so a
// parsed transaction's originalLine can be traced back to its source file.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// FileInfo contains metadata about an archived upload.
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	BatchID     uuid.UUID `json:"batch_id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	SHA256      string    `json:"sha256"`
	Path        string    `json:"path"` // relative to the batch directory
	CreatedAt   time.Time `json:"created_at"`
}

// Archive stores uploads grouped by import batch.
type Archive interface {
	Store(ctx context.Context, batchID uuid.UUID, filename, contentType string, r io.Reader) (*FileInfo, error)
	Open(ctx context.Context, batchID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error)
	Info(ctx context.Context, batchID, fileID uuid.UUID) (*FileInfo, error)
	List(ctx context.Context, batchID uuid.UUID) ([]*FileInfo, error)
}
