package driven

import (
	"context"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
)

// VectorIndex provides similarity search over the embedding collection.
// An index has a name and a lifecycle: absent -> creating -> ready.
type VectorIndex interface {
	// EnsureIndex builds the named index if it is not ready.
	// It is a no-op on a ready index or an empty collection.
	EnsureIndex(ctx context.Context, name string) (domain.IndexInfo, error)

	// Rebuild discards and rebuilds the named index from the current collection.
	Rebuild(ctx context.Context, name string) (domain.IndexInfo, error)

	// State returns the current state of the named index.
	State(ctx context.Context, name string) (domain.IndexInfo, error)

	// Search returns up to numCandidates nearest neighbours of query.
	// Returns ErrIndexUnavailable if the index is not ready.
	Search(ctx context.Context, name string, query []float32, numCandidates int) ([]VectorHit, error)

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score.
	Similarity float64
}

// IndexCatalog persists the state of named vector indexes.
type IndexCatalog interface {
	// GetIndex returns the catalog entry, or ErrNotFound.
	GetIndex(ctx context.Context, name string) (*domain.IndexInfo, error)

	// PutIndex creates or replaces the catalog entry.
	PutIndex(ctx context.Context, info domain.IndexInfo) error

	// DeleteIndex removes the entry. Deleting a missing entry is not an error.
	DeleteIndex(ctx context.Context, name string) error
}
