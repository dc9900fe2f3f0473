package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/viant/vec/search"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
	"github.com/custodia-labs/chunkwise/internal/logger"
)

// SearchTimeout bounds one index search.
const SearchTimeout = 10 * time.Second

// Retriever finds the stored chunks nearest to a query vector.
type Retriever struct {
	index      driven.VectorIndex
	embeddings driven.EmbeddingStore
	indexName  string
	candidates int
}

// NewRetriever creates a retriever over the named index.
// A nil index always degrades to sampling.
func NewRetriever(index driven.VectorIndex, embeddings driven.EmbeddingStore, indexName string, candidates int) *Retriever {
	if indexName == "" {
		indexName = domain.DefaultIndexName
	}
	if candidates <= 0 {
		candidates = domain.DefaultCandidatePool
	}
	return &Retriever{
		index:      index,
		embeddings: embeddings,
		indexName:  indexName,
		candidates: candidates,
	}
}

// Search returns up to k chunks ranked by cosine similarity to query.
// When the index cannot serve the request the result is an arbitrary
// sample in degraded mode.
func (r *Retriever) Search(ctx context.Context, query []float32, k int) (domain.Retrieval, error) {
	if k <= 0 {
		k = domain.DefaultTopK
	}
	if len(query) == 0 {
		return domain.Retrieval{}, fmt.Errorf("%w: empty query vector", domain.ErrInvalidInput)
	}

	dims, err := r.embeddings.Dimensions(ctx)
	if err != nil {
		return domain.Retrieval{}, fmt.Errorf("collection dimensions: %w", err)
	}
	if dims == 0 {
		return domain.Retrieval{Mode: domain.RetrievalRanked}, nil
	}
	if dims != len(query) {
		return domain.Retrieval{}, fmt.Errorf("%w: query has %d dimensions, collection has %d",
			domain.ErrDimensionMismatch, len(query), dims)
	}

	hits, err := r.ranked(ctx, query, k)
	if err == nil {
		return domain.Retrieval{Mode: domain.RetrievalRanked, Hits: hits}, nil
	}
	if errors.Is(err, domain.ErrDataIntegrity) || errors.Is(err, domain.ErrStoreUnavailable) {
		return domain.Retrieval{}, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.Retrieval{}, ctxErr
	}

	logger.Warn("Vector index %q unavailable, falling back to unranked sample: %v", r.indexName, err)
	return r.degraded(ctx, k)
}

func (r *Retriever) ranked(ctx context.Context, query []float32, k int) ([]domain.RetrievedChunk, error) {
	if r.index == nil {
		return nil, domain.ErrIndexUnavailable
	}

	searchCtx, cancel := context.WithTimeout(ctx, SearchTimeout)
	defer cancel()

	candidates, err := r.index.Search(searchCtx, r.indexName, query, r.candidates)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ChunkID
	}
	records, err := r.embeddings.GetEmbeddings(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate candidates: %w", err)
	}

	hits := make([]domain.RetrievedChunk, 0, len(records))
	for i := range records {
		rec := &records[i]
		if len(rec.Vector) != len(query) {
			logger.Debug("Dropping candidate %s with %d dimensions", rec.ChunkID, len(rec.Vector))
			continue
		}
		hits = append(hits, domain.RetrievedChunk{
			ChunkID:  rec.ChunkID,
			Text:     rec.Text,
			Metadata: rec.Metadata,
			Score:    cosineSimilarity(query, rec.Vector),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (r *Retriever) degraded(ctx context.Context, k int) (domain.Retrieval, error) {
	records, err := r.embeddings.Sample(ctx, k)
	if err != nil {
		return domain.Retrieval{}, fmt.Errorf("sample embeddings: %w", err)
	}
	hits := make([]domain.RetrievedChunk, len(records))
	for i := range records {
		hits[i] = domain.RetrievedChunk{
			ChunkID:  records[i].ChunkID,
			Text:     records[i].Text,
			Metadata: records[i].Metadata,
		}
	}
	return domain.Retrieval{Mode: domain.RetrievalDegraded, Hits: hits}, nil
}

// cosineSimilarity is exact cosine similarity; a zero vector scores 0.
func cosineSimilarity(a, b []float32) float64 {
	va, vb := search.Float32s(a), search.Float32s(b)
	if va.Magnitude() == 0 || vb.Magnitude() == 0 {
		return 0
	}
	return 1 - float64(va.CosineDistance(vb))
}
