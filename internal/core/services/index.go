package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driving"
	"github.com/custodia-labs/chunkwise/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexService exposes the vector index lifecycle to driving adapters.
type IndexService struct {
	docStore       driven.DocumentStore
	embeddingStore driven.EmbeddingStore
	index          driven.VectorIndex
	indexName      string
}

// NewIndexService creates a new index service.
func NewIndexService(
	docStore driven.DocumentStore,
	embeddingStore driven.EmbeddingStore,
	index driven.VectorIndex,
	indexName string,
) *IndexService {
	if indexName == "" {
		indexName = domain.DefaultIndexName
	}
	return &IndexService{
		docStore:       docStore,
		embeddingStore: embeddingStore,
		index:          index,
		indexName:      indexName,
	}
}

// Status reports the catalogued index state and the store counts.
func (s *IndexService) Status(ctx context.Context) (*driving.IndexStatus, error) {
	info, err := s.index.State(ctx, s.indexName)
	if err != nil {
		return nil, fmt.Errorf("index state: %w", err)
	}
	chunks, err := s.docStore.CountChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	embeddings, err := s.embeddingStore.CountEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("count embeddings: %w", err)
	}
	return &driving.IndexStatus{Index: info, Chunks: chunks, Embeddings: embeddings}, nil
}

// Rebuild rebuilds the index from every stored embedding.
func (s *IndexService) Rebuild(ctx context.Context) (domain.IndexInfo, error) {
	logger.Info("rebuilding index %s", s.indexName)
	info, err := s.index.Rebuild(ctx, s.indexName)
	if err != nil {
		return info, fmt.Errorf("rebuild index %s: %w", s.indexName, err)
	}
	logger.Info("index %s is %s with %d vectors", s.indexName, info.State, info.Vectors)
	return info, nil
}
