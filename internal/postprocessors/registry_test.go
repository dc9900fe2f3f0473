package postprocessors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
	"github.com/custodia-labs/chunkwise/internal/postprocessors/chunker"
)

func TestRegistry_RegisterAndBuild(t *testing.T) {
	r := NewRegistry()
	r.Register("test", func(cfg map[string]any) (driven.PostProcessor, error) {
		return &mockProcessor{name: cfg["name"].(string)}, nil
	})

	assert.True(t, r.Has("test"))
	p, err := r.Build("test", map[string]any{"name": "custom"})
	require.NoError(t, err)
	assert.Equal(t, "custom", p.Name())
}

func TestRegistry_Build_Unknown(t *testing.T) {
	_, err := NewRegistry().Build("stemmer", nil)
	assert.True(t, domain.IsConfigurationError(err))
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)
	assert.Equal(t, []string{"annotator", "chunker"}, r.Names())
}

func TestBuildChunker(t *testing.T) {
	tests := []struct {
		name     string
		cfg      map[string]any
		strategy domain.Strategy
		params   domain.ChunkParams
		wantErr  error
	}{
		{
			name:     "nil config uses defaults",
			cfg:      nil,
			strategy: domain.StrategyFixedSize,
			params:   domain.ChunkParams{ChunkSize: 1000, Overlap: 200, Delimiter: "\n\n"},
		},
		{
			name:     "toml style numbers",
			cfg:      map[string]any{"strategy": "recursive", "chunk_size": int64(400), "overlap": float64(0)},
			strategy: domain.StrategyRecursive,
			params:   domain.ChunkParams{ChunkSize: 400, Overlap: 0, Delimiter: "\n\n"},
		},
		{
			name:     "fixed alias",
			cfg:      map[string]any{"strategy": "fixed", "chunk_size": 300, "overlap": 50},
			strategy: domain.StrategyFixedSize,
			params:   domain.ChunkParams{ChunkSize: 300, Overlap: 50, Delimiter: "\n\n"},
		},
		{
			name:    "unknown strategy",
			cfg:     map[string]any{"strategy": "tokens"},
			wantErr: domain.ErrUnknownStrategy,
		},
		{
			name:    "overlap too large",
			cfg:     map[string]any{"chunk_size": 100, "overlap": 100},
			wantErr: domain.ErrInvalidOverlap,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := buildChunker(tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			c := p.(*chunker.Processor)
			assert.Equal(t, tt.strategy, c.Strategy())
			assert.Equal(t, tt.params, c.Params())
		})
	}
}

func TestAnnotator(t *testing.T) {
	a := NewAnnotator()
	assert.Equal(t, "annotator", a.Name())

	chunks, err := a.Process(context.Background(),
		&domain.Document{ID: "d", Name: "a.pdf", Source: "upload", Type: "pdf"},
		[]domain.Chunk{{ID: "1"}, {ID: "2"}})
	require.NoError(t, err)
	for _, c := range chunks {
		assert.Equal(t, "a.pdf", c.Metadata.FileName)
		assert.Equal(t, "upload", c.Metadata.Source)
		assert.Equal(t, "pdf", c.Metadata.Type)
	}
}
