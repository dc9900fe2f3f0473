package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
	"github.com/custodia-labs/chunkwise/internal/postprocessors/chunker"
)

// Config keys understood by the chunker builder.
const (
	KeyStrategy  = "strategy"
	KeyChunkSize = "chunk_size"
	KeyOverlap   = "overlap"
	KeyDelimiter = "delimiter"
)

// RegisterDefaults registers all built-in processors with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(chunker.Name, buildChunker)
	r.Register(AnnotatorName, func(map[string]any) (driven.PostProcessor, error) {
		return NewAnnotator(), nil
	})
}

// NewIngestPipeline builds the chunker followed by the annotator.
func NewIngestPipeline(r *Registry, strategy domain.Strategy, params domain.ChunkParams) (*Pipeline, error) {
	c, err := r.Build(chunker.Name, ChunkerConfig(strategy, params))
	if err != nil {
		return nil, err
	}
	a, err := r.Build(AnnotatorName, nil)
	if err != nil {
		return nil, err
	}
	return NewPipeline(c, a), nil
}

// ChunkerConfig converts a strategy and its parameters into builder config.
func ChunkerConfig(strategy domain.Strategy, params domain.ChunkParams) map[string]any {
	return map[string]any{
		KeyStrategy:  string(strategy),
		KeyChunkSize: params.ChunkSize,
		KeyOverlap:   params.Overlap,
		KeyDelimiter: params.Delimiter,
	}
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - strategy (string): Strategy name; unknown names are rejected
//   - chunk_size (int): Characters per chunk (default: 1000)
//   - overlap (int): Overlapping characters between chunks (default: 200)
//   - delimiter (string): Separator for the delimiter strategy (default: blank line)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if name, ok := cfg[KeyStrategy].(string); ok && name != "" {
		s, err := domain.ParseStrategy(name)
		if err != nil {
			return nil, err
		}
		opts = append(opts, chunker.WithStrategy(s))
	}
	if size, ok := getIntFromConfig(cfg, KeyChunkSize); ok {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := getIntFromConfig(cfg, KeyOverlap); ok {
		opts = append(opts, chunker.WithOverlap(overlap))
	}
	if delim, ok := cfg[KeyDelimiter].(string); ok && delim != "" {
		opts = append(opts, chunker.WithDelimiter(delim))
	}

	p, err := chunker.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("build chunker: %w", err)
	}
	return p, nil
}

// getIntFromConfig extracts an int from a generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
