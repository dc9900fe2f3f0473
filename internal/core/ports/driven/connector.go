package driven

import (
	"context"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
)

// Connector reads documents from an input location.
type Connector interface {
	// Type returns the connector type identifier.
	Type() string

	// Validate checks the input location exists and is readable.
	Validate(ctx context.Context) error

	// FullSync emits every document in the location.
	// Both channels are closed when the scan finishes.
	FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error)

	// Watch emits changes until ctx is cancelled.
	Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error)

	// Close releases resources.
	Close() error
}
