// Package chunker splits document text into ordered chunks.
//
// Split is the pure contract used by interactive callers. Processor wraps it
// as a PostProcessor for the ingest pipeline, turning a Document into
// domain.Chunk values with dense chunk indexes.
package chunker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
)

// Name is the registry name of the chunking processor.
const Name = "chunker"

// Processor splits document content with one strategy.
// It implements the PostProcessor interface.
type Processor struct {
	strategy domain.Strategy
	params   domain.ChunkParams
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithStrategy sets the chunking strategy.
func WithStrategy(s domain.Strategy) Option {
	return func(p *Processor) {
		p.strategy = s
	}
}

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.params.ChunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.params.Overlap = overlap
	}
}

// WithDelimiter sets the split separator for the delimiter strategy.
func WithDelimiter(delim string) Option {
	return func(p *Processor) {
		p.params.Delimiter = delim
	}
}

// New creates a chunker processor. The default is fixed_size 1000/200.
// Invalid combinations are rejected, never adjusted.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		strategy: domain.StrategyFixedSize,
		params: domain.ChunkParams{
			ChunkSize: domain.DefaultChunkSize,
			Overlap:   domain.DefaultChunkOverlap,
			Delimiter: domain.DefaultDelimiter,
		},
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := p.params.Validate(p.strategy); err != nil {
		return nil, fmt.Errorf("chunker: %w", err)
	}
	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

// Strategy returns the configured strategy.
func (p *Processor) Strategy() domain.Strategy {
	return p.strategy
}

// Params returns the configured parameters.
func (p *Processor) Params() domain.ChunkParams {
	return p.params
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	texts, err := Split(doc.Content, p.strategy, p.params)
	if err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, nil
	}

	now := time.Now()
	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Text:       text,
			Metadata: domain.ChunkMetadata{
				Strategy:    p.strategy,
				ChunkIndex:  i,
				TotalChunks: len(texts),
				ChunkSize:   p.params.ChunkSize,
				Overlap:     p.params.Overlap,
			},
			CreatedAt: now,
		}
	}

	return chunks, nil
}
