package postprocessors

import (
	"context"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
)

// AnnotatorName is the registry name of the metadata annotator.
const AnnotatorName = "annotator"

// Annotator copies document provenance onto every chunk's metadata.
type Annotator struct{}

// NewAnnotator creates an annotator.
func NewAnnotator() *Annotator {
	return &Annotator{}
}

// Name returns the processor name.
func (a *Annotator) Name() string {
	return AnnotatorName
}

// Process stamps fileName, source and type on each chunk.
func (a *Annotator) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	for i := range chunks {
		chunks[i].DocumentID = doc.ID
		chunks[i].Metadata.FileName = doc.Name
		chunks[i].Metadata.Source = doc.Source
		chunks[i].Metadata.Type = doc.Type
	}
	return chunks, nil
}
