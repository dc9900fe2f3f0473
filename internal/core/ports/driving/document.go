package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
)

// DocumentService reads and removes stored documents.
type DocumentService interface {
	// List returns every stored document.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// GetDetails returns a document summary with its chunk count.
	GetDetails(ctx context.Context, documentID string) (*DocumentDetails, error)

	// Chunks returns the document's chunks in order.
	Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// Delete removes a document with its chunks and embeddings.
	Delete(ctx context.Context, documentID string) error
}

// DocumentDetails is a display summary of a stored document.
type DocumentDetails struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Source     string    `json:"source,omitempty"`
	Type       string    `json:"type,omitempty"`
	URL        string    `json:"url,omitempty"`
	Chunked    bool      `json:"chunked"`
	ChunkCount int       `json:"chunkCount"`
	Embedded   int       `json:"embedded"`
	Characters int       `json:"characters"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
