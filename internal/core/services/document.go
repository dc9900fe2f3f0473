package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driving"
	"github.com/custodia-labs/chunkwise/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService reads and removes stored documents.
type DocumentService struct {
	docStore       driven.DocumentStore
	embeddingStore driven.EmbeddingStore
	index          driven.VectorIndex
	indexName      string
}

// NewDocumentService creates a new document service.
// index may be nil; otherwise it is refreshed after deletes.
func NewDocumentService(
	docStore driven.DocumentStore,
	embeddingStore driven.EmbeddingStore,
	index driven.VectorIndex,
	indexName string,
) *DocumentService {
	if indexName == "" {
		indexName = domain.DefaultIndexName
	}
	return &DocumentService{
		docStore:       docStore,
		embeddingStore: embeddingStore,
		index:          index,
		indexName:      indexName,
	}
}

// List returns every stored document.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	return s.docStore.ListDocuments(ctx)
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.docStore.GetDocument(ctx, documentID)
}

// Chunks returns the document's chunks ordered by index.
func (s *DocumentService) Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	// Verify document exists
	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return s.docStore.GetChunks(ctx, documentID)
}

// GetDetails returns metadata for display.
func (s *DocumentService) GetDetails(ctx context.Context, documentID string) (*driving.DocumentDetails, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	chunks, err := s.docStore.GetChunks(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get chunks: %w", err)
	}

	embedded := 0
	if s.embeddingStore != nil && len(chunks) > 0 {
		ids := make([]string, len(chunks))
		for i := range chunks {
			ids[i] = chunks[i].ID
		}
		records, err := s.embeddingStore.GetEmbeddings(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("get embeddings: %w", err)
		}
		embedded = len(records)
	}

	return &driving.DocumentDetails{
		ID:         doc.ID,
		Name:       doc.Name,
		Source:     doc.Source,
		Type:       doc.Type,
		URL:        doc.URL,
		Chunked:    doc.Chunked,
		ChunkCount: len(chunks),
		Embedded:   embedded,
		Characters: len([]rune(doc.Content)),
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}, nil
}

// Delete removes a document with its chunks and embeddings, then
// brings the vector index back in line with the collection.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		return err
	}
	if s.index == nil {
		return nil
	}
	if _, err := s.index.EnsureIndex(ctx, s.indexName); err != nil {
		logger.Warn("Refresh vector index %q after delete: %v", s.indexName, err)
	}
	return nil
}
