package driven

import (
	"context"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
)

// DocumentStore persists documents and their chunks.
// Document names are unique and are the upsert key.
type DocumentStore interface {
	// UpsertDocument inserts a document or updates the one with the same name.
	// On update the existing ID, CreatedAt and Chunked flag are kept and
	// copied back into doc. Returns true when a new row was created.
	UpsertDocument(ctx context.Context, doc *domain.Document) (bool, error)

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetDocumentByName retrieves a document by its unique name.
	GetDocumentByName(ctx context.Context, name string) (*domain.Document, error)

	// ListDocuments returns every document ordered by name.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// ListUnchunked returns documents whose chunks have not been stored.
	ListUnchunked(ctx context.Context) ([]domain.Document, error)

	// MarkChunked flags a document as fully chunked.
	MarkChunked(ctx context.Context, id string) error

	// ResetDocument deletes a document's chunks and embeddings and clears Chunked.
	ResetDocument(ctx context.Context, id string) error

	// DeleteDocument removes a document, its chunks and their embeddings.
	DeleteDocument(ctx context.Context, id string) error

	// SaveChunks stores chunks in a single transaction.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// ReplaceChunks atomically swaps a document's chunks for the given set
	// and marks it chunked. Existing chunks and their embeddings are dropped.
	ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error

	// GetChunk retrieves a chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// GetChunks retrieves all chunks for a document ordered by chunk index.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// ListUnprocessedChunks returns up to limit chunks without an embedding.
	// A limit of zero or less returns all of them.
	ListUnprocessedChunks(ctx context.Context, limit int) ([]domain.Chunk, error)

	// CountChunks returns the total number of stored chunks.
	CountChunks(ctx context.Context) (int, error)
}

// EmbeddingStore persists one embedding per chunk.
// The first stored vector fixes the dimensionality of the collection.
type EmbeddingStore interface {
	// SaveEmbedding stores the record and marks its chunk processed atomically.
	// Returns ErrDimensionMismatch if the vector length differs from the collection.
	SaveEmbedding(ctx context.Context, rec *domain.EmbeddingRecord) error

	// GetEmbeddings returns the records for the given chunk IDs.
	// Unknown IDs are omitted.
	GetEmbeddings(ctx context.Context, chunkIDs []string) ([]domain.EmbeddingRecord, error)

	// AllEmbeddings returns every stored record.
	AllEmbeddings(ctx context.Context) ([]domain.EmbeddingRecord, error)

	// Sample returns up to k arbitrary records.
	Sample(ctx context.Context, k int) ([]domain.EmbeddingRecord, error)

	// CountEmbeddings returns the number of stored records.
	CountEmbeddings(ctx context.Context) (int, error)

	// Dimensions returns the collection dimensionality, or 0 when empty.
	Dimensions(ctx context.Context) (int, error)
}
