package driving

import (
	"context"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
)

// IndexService reports on and maintains the vector index.
type IndexService interface {
	// Status returns the index state together with store counts.
	Status(ctx context.Context) (*IndexStatus, error)

	// Rebuild discards the index and builds it again from stored embeddings.
	Rebuild(ctx context.Context) (domain.IndexInfo, error)
}

// IndexStatus summarises the vector index and the collection it covers.
type IndexStatus struct {
	Index      domain.IndexInfo `json:"index"`
	Chunks     int              `json:"chunks"`
	Embeddings int              `json:"embeddings"`
}

// Pending returns the number of chunks still waiting for an embedding.
func (s IndexStatus) Pending() int {
	if s.Chunks < s.Embeddings {
		return 0
	}
	return s.Chunks - s.Embeddings
}
