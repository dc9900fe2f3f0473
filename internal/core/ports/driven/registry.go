package driven

import (
	"context"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
)

// NormaliserRegistry routes raw documents to a Normaliser by MIME type or
// file extension, preferring the highest priority.
type NormaliserRegistry interface {
	Register(normaliser Normaliser)

	// Supports takes either a file name or a MIME type.
	Supports(nameOrMIME string) bool

	// Normalise fails with domain.ErrUnsupportedType when no normaliser
	// accepts raw.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}
