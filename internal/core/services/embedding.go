package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
	"github.com/custodia-labs/chunkwise/internal/logger"
)

// EmbedReport summarises one EmbedPending run.
type EmbedReport struct {
	Batches  int
	Embedded int
	Skipped  int
	Failed   int
}

// EmbeddingGenerator embeds stored chunks that have no embedding yet.
type EmbeddingGenerator struct {
	docStore       driven.DocumentStore
	embeddingStore driven.EmbeddingStore
	embedder       driven.EmbeddingService
	batchSize      int
}

// NewEmbeddingGenerator creates a generator. A batchSize of zero or less
// uses domain.DefaultEmbeddingBatchSize.
func NewEmbeddingGenerator(
	docStore driven.DocumentStore,
	embeddingStore driven.EmbeddingStore,
	embedder driven.EmbeddingService,
	batchSize int,
) *EmbeddingGenerator {
	if batchSize <= 0 {
		batchSize = domain.DefaultEmbeddingBatchSize
	}
	return &EmbeddingGenerator{
		docStore:       docStore,
		embeddingStore: embeddingStore,
		embedder:       embedder,
		batchSize:      batchSize,
	}
}

// EmbedPending embeds every unprocessed chunk, one provider call per batch.
// A failed batch leaves its chunks unprocessed and the run moves on.
// Only an unavailable store stops the run.
func (g *EmbeddingGenerator) EmbedPending(ctx context.Context) (EmbedReport, error) {
	var report EmbedReport
	if g.embedder == nil {
		return report, domain.ErrEmbeddingUnavailable
	}

	pending, err := g.docStore.ListUnprocessedChunks(ctx, 0)
	if err != nil {
		return report, fmt.Errorf("list unprocessed chunks: %w", err)
	}
	if len(pending) == 0 {
		logger.Debug("No chunks pending embedding")
		return report, nil
	}

	// Whitespace-only chunks would embed to noise.
	work := make([]domain.Chunk, 0, len(pending))
	for i := range pending {
		if strings.TrimSpace(pending[i].Text) == "" {
			logger.Warn("Skipping empty chunk %s", pending[i].ID)
			report.Skipped++
			continue
		}
		work = append(work, pending[i])
	}

	logger.Info("Embedding %d chunks in batches of %d", len(work), g.batchSize)

	for start := 0; start < len(work); start += g.batchSize {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		end := min(start+g.batchSize, len(work))
		batch := work[start:end]
		report.Batches++

		embedded, err := g.embedBatch(ctx, batch)
		report.Embedded += embedded
		report.Failed += len(batch) - embedded
		if err != nil {
			return report, err
		}
	}

	logger.Info("Embedded %d chunks (%d failed, %d skipped)", report.Embedded, report.Failed, report.Skipped)
	return report, nil
}

// embedBatch returns the number of chunks stored. The error is non-nil only
// when the run must stop.
func (g *EmbeddingGenerator) embedBatch(ctx context.Context, batch []domain.Chunk) (int, error) {
	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = batch[i].Text
	}

	vectors, err := g.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		logger.Warn("Embedding batch of %d failed: %v", len(batch), err)
		return 0, nil
	}
	if len(vectors) < len(batch) {
		logger.Warn("Provider returned %d of %d embeddings", len(vectors), len(batch))
	}

	stored := 0
	for i := range batch {
		if i >= len(vectors) || len(vectors[i]) == 0 {
			continue
		}
		rec := &domain.EmbeddingRecord{
			ChunkID:  batch[i].ID,
			Vector:   vectors[i],
			Text:     batch[i].Text,
			Metadata: batch[i].Metadata,
		}
		if err := g.embeddingStore.SaveEmbedding(ctx, rec); err != nil {
			if errors.Is(err, domain.ErrStoreUnavailable) {
				return stored, err
			}
			logger.Warn("Store embedding for chunk %s: %v", batch[i].ID, err)
			continue
		}
		stored++
	}
	return stored, nil
}
