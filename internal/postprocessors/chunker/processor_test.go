package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p, err := New()
		require.NoError(t, err)
		assert.Equal(t, domain.StrategyFixedSize, p.Strategy())
		assert.Equal(t, domain.DefaultChunkSize, p.Params().ChunkSize)
		assert.Equal(t, domain.DefaultChunkOverlap, p.Params().Overlap)
	})

	t.Run("custom options", func(t *testing.T) {
		p, err := New(WithStrategy(domain.StrategyDelimiter), WithChunkSize(500),
			WithOverlap(100), WithDelimiter("---"))
		require.NoError(t, err)
		assert.Equal(t, domain.StrategyDelimiter, p.Strategy())
		assert.Equal(t, domain.ChunkParams{ChunkSize: 500, Overlap: 100, Delimiter: "---"}, p.Params())
	})

	t.Run("overlap exceeds chunk size is rejected", func(t *testing.T) {
		_, err := New(WithChunkSize(100), WithOverlap(150))
		assert.ErrorIs(t, err, domain.ErrInvalidOverlap)
	})

	t.Run("zero chunk size is rejected", func(t *testing.T) {
		_, err := New(WithChunkSize(0), WithOverlap(0))
		assert.ErrorIs(t, err, domain.ErrInvalidChunkSize)
	})

	t.Run("unknown strategy is rejected", func(t *testing.T) {
		_, err := New(WithStrategy("tokens"))
		assert.True(t, domain.IsConfigurationError(err))
	})
}

func TestProcessor_Name(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	assert.Equal(t, "chunker", p.Name())
}

func TestProcessor_Process_EmptyContent(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	chunks, err := p.Process(context.Background(), &domain.Document{ID: "test-doc", Content: "  \n "}, nil)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestProcessor_Process_SmallContent(t *testing.T) {
	p, err := New(WithChunkSize(100), WithOverlap(20))
	require.NoError(t, err)
	doc := &domain.Document{ID: "test-doc", Content: "This is a small piece of content."}

	chunks, err := p.Process(context.Background(), doc, nil)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, doc.ID, chunks[0].DocumentID)
	assert.Equal(t, doc.Content, chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Metadata.ChunkIndex)
	assert.Equal(t, 1, chunks[0].Metadata.TotalChunks)
	assert.False(t, chunks[0].Processed)
}

func TestProcessor_Process_DenseIndexes(t *testing.T) {
	p, err := New(WithChunkSize(100), WithOverlap(20))
	require.NoError(t, err)
	doc := &domain.Document{ID: "test-doc", Content: strings.Repeat("x", 250)}

	chunks, err := p.Process(context.Background(), doc, nil)
	require.NoError(t, err)
	require.Len(t, chunks, 4)

	seen := make(map[string]bool)
	for i, c := range chunks {
		assert.False(t, seen[c.ID], "duplicate chunk ID %s", c.ID)
		seen[c.ID] = true
		assert.Equal(t, i, c.Metadata.ChunkIndex)
		assert.Equal(t, len(chunks), c.Metadata.TotalChunks)
		assert.Equal(t, domain.StrategyFixedSize, c.Metadata.Strategy)
		assert.Equal(t, 100, c.Metadata.ChunkSize)
		assert.Equal(t, 20, c.Metadata.Overlap)
		assert.Equal(t, doc.ID, c.DocumentID)
	}
	assert.Len(t, chunks[0].Text, 100)
}

func TestProcessor_Process_IgnoresInputChunks(t *testing.T) {
	p, err := New(WithChunkSize(100), WithOverlap(0))
	require.NoError(t, err)

	existing := []domain.Chunk{{ID: "existing", Text: "should be ignored"}}
	chunks, err := p.Process(context.Background(), &domain.Document{ID: "d", Content: "New content"}, existing)
	require.NoError(t, err)

	for _, c := range chunks {
		assert.NotEqual(t, "existing", c.ID)
	}
}

func TestProcessor_Process_CancelledContext(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Process(ctx, &domain.Document{ID: "d", Content: "text"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
