// Package postprocessors turns normalised documents into stored chunks.
//
// The ingest pipeline runs the chunker and then the annotator.
package postprocessors

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
	"github.com/custodia-labs/chunkwise/internal/logger"
)

// Ensure Pipeline implements the interface.
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline runs its stages over one document at a time. The first stage
// produces chunks from nothing; every later stage rewrites the running set.
type Pipeline struct {
	stages []driven.PostProcessor
}

// NewPipeline creates a pipeline running stages in order.
func NewPipeline(stages ...driven.PostProcessor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Process chunks doc. Cancellation is checked between stages.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := stage.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("%s stage on %q: %w", stage.Name(), doc.Name, err)
		}
		chunks = out
	}

	logger.Debug("pipeline [%s] produced %d chunks for %s", p.String(), len(chunks), doc.Name)
	return chunks, nil
}

// Append adds a stage after the existing ones.
func (p *Pipeline) Append(stage driven.PostProcessor) {
	p.stages = append(p.stages, stage)
}

// Stages returns the stage names in run order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// String joins the stage names with arrows.
func (p *Pipeline) String() string {
	return strings.Join(p.Stages(), " -> ")
}
