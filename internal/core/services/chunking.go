package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driving"
	"github.com/custodia-labs/chunkwise/internal/postprocessors/chunker"
)

// Ensure ChunkingService implements the interface.
var _ driving.ChunkingService = (*ChunkingService)(nil)

// ChunkingService previews how a strategy splits caller-supplied text.
// Nothing is stored.
type ChunkingService struct{}

// NewChunkingService creates a new chunking service.
func NewChunkingService() *ChunkingService {
	return &ChunkingService{}
}

// Chunk splits req.Text. Zero size and overlap use the interactive defaults.
func (s *ChunkingService) Chunk(ctx context.Context, req driving.ChunkRequest) ([]driving.ChunkPreview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: text is required", domain.ErrInvalidInput)
	}

	strategy, err := domain.ParseStrategy(string(req.Strategy))
	if err != nil {
		return nil, err
	}
	params := domain.ChunkParams{
		ChunkSize: req.ChunkSize,
		Overlap:   req.Overlap,
		Delimiter: req.Delimiter,
	}.WithDefaults(domain.DefaultInteractiveChunkSize, domain.DefaultInteractiveOverlap)

	texts, err := chunker.Split(req.Text, strategy, params)
	if err != nil {
		return nil, err
	}

	previews := make([]driving.ChunkPreview, len(texts))
	for i, text := range texts {
		previews[i] = driving.ChunkPreview{
			ID:       fmt.Sprintf("chunk_%d", i),
			Text:     text,
			Strategy: strategy,
			Metadata: driving.PreviewMetadata{ChunkSize: params.ChunkSize, Overlap: params.Overlap, Index: i},
		}
	}
	return previews, nil
}
