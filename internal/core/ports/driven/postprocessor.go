package driven

import (
	"context"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
)

// PostProcessor is one stage of chunk production.
//
// The first stage (the chunker) is handed nil and cuts the document
// content into chunks. Every later stage receives the chunks produced so
// far and returns the set that replaces them.
type PostProcessor interface {
	Name() string
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline turns a normalised document into its final chunks.
type PostProcessorPipeline interface {
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
