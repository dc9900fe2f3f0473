package driven

import (
	"context"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
)

// Normaliser extracts text from one family of file formats.
type Normaliser interface {
	// SupportedMIMETypes and SupportedExtensions (".md", ".pdf") decide
	// which raw documents are routed here.
	SupportedMIMETypes() []string
	SupportedExtensions() []string

	// Priority breaks ties when several normalisers accept the same input.
	// Format-specific normalisers use 50-89 and catch-alls 1-9.
	Priority() int

	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult carries the extracted document. Content is plain text
// ready for the chunker.
type NormaliseResult struct {
	Document domain.Document
}
