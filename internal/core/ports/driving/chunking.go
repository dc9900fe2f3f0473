package driving

import (
	"context"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
)

// ChunkingService splits caller-supplied text without storing anything.
type ChunkingService interface {
	// Chunk splits the request text with the requested strategy.
	Chunk(ctx context.Context, req ChunkRequest) ([]ChunkPreview, error)
}

// ChunkRequest describes an interactive chunking request.
// Zero ChunkSize and Overlap fall back to the interactive defaults (200/50).
type ChunkRequest struct {
	Text      string
	Strategy  domain.Strategy
	ChunkSize int
	Overlap   int
	Delimiter string
}

// ChunkPreview is one chunk of an interactive request.
type ChunkPreview struct {
	ID       string          `json:"id"`
	Text     string          `json:"text"`
	Strategy domain.Strategy `json:"strategy"`
	Metadata PreviewMetadata `json:"metadata"`
}

// PreviewMetadata records the parameters that produced a preview chunk.
type PreviewMetadata struct {
	ChunkSize int `json:"chunkSize"`
	Overlap   int `json:"overlap"`
	Index     int `json:"index"`
}
