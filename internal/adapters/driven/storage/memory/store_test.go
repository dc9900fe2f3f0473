package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
)

func seed(t *testing.T, s *Store, name string, n int) (*domain.Document, []domain.Chunk) {
	t.Helper()
	ctx := context.Background()
	doc := &domain.Document{Name: name, Content: "content of " + name}
	created, err := s.UpsertDocument(ctx, doc)
	require.NoError(t, err)
	require.True(t, created)

	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{
			DocumentID: doc.ID,
			Text:       doc.Content,
			Metadata:   domain.ChunkMetadata{FileName: name, ChunkIndex: n - 1 - i, TotalChunks: n},
		}
	}
	require.NoError(t, s.SaveChunks(ctx, chunks))
	return doc, chunks
}

func TestStore_UpsertKeepsIdentity(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	doc, _ := seed(t, s, "a.txt", 1)
	require.NoError(t, s.MarkChunked(ctx, doc.ID))

	again := &domain.Document{Name: "a.txt", Content: "new"}
	created, err := s.UpsertDocument(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, doc.ID, again.ID)
	assert.Equal(t, doc.CreatedAt, again.CreatedAt)
	assert.True(t, again.Chunked)

	byName, err := s.GetDocumentByName(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "new", byName.Content)

	_, err = s.UpsertDocument(ctx, &domain.Document{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_ChunksOrderedAndUnprocessed(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	doc, chunks := seed(t, s, "a.txt", 3)

	got, err := s.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, c := range got {
		assert.Equal(t, i, c.Metadata.ChunkIndex)
	}

	require.NoError(t, s.SaveEmbedding(ctx, &domain.EmbeddingRecord{ChunkID: chunks[0].ID, Vector: []float32{1, 2}}))

	pending, err := s.ListUnprocessedChunks(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	pending, err = s.ListUnprocessedChunks(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	err = s.SaveChunks(ctx, []domain.Chunk{{DocumentID: "ghost"}})
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)
}

func TestStore_EmbeddingConstraints(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, chunks := seed(t, s, "a.txt", 2)

	require.NoError(t, s.SaveEmbedding(ctx, &domain.EmbeddingRecord{ChunkID: chunks[0].ID, Vector: []float32{1, 2, 3}}))

	err := s.SaveEmbedding(ctx, &domain.EmbeddingRecord{ChunkID: chunks[0].ID, Vector: []float32{1, 2, 3}})
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)

	err = s.SaveEmbedding(ctx, &domain.EmbeddingRecord{ChunkID: chunks[1].ID, Vector: []float32{1}})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	err = s.SaveEmbedding(ctx, &domain.EmbeddingRecord{ChunkID: "ghost", Vector: []float32{1, 2, 3}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	dims, err := s.Dimensions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, dims)
}

func TestStore_DeleteAndResetCascade(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a, aChunks := seed(t, s, "a.txt", 2)
	b, bChunks := seed(t, s, "b.txt", 2)
	for _, c := range append(aChunks, bChunks...) {
		require.NoError(t, s.SaveEmbedding(ctx, &domain.EmbeddingRecord{ChunkID: c.ID, Vector: []float32{1}}))
	}

	require.NoError(t, s.DeleteDocument(ctx, a.ID))
	n, _ := s.CountEmbeddings(ctx)
	assert.Equal(t, 2, n)
	n, _ = s.CountChunks(ctx)
	assert.Equal(t, 2, n)

	require.NoError(t, s.MarkChunked(ctx, b.ID))
	require.NoError(t, s.ResetDocument(ctx, b.ID))
	n, _ = s.CountEmbeddings(ctx)
	assert.Zero(t, n)
	got, err := s.GetDocument(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, got.Chunked)

	dims, _ := s.Dimensions(ctx)
	assert.Zero(t, dims)

	assert.ErrorIs(t, s.DeleteDocument(ctx, a.ID), domain.ErrNotFound)
}

func TestStore_Sample(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, chunks := seed(t, s, "a.txt", 4)
	for _, c := range chunks {
		require.NoError(t, s.SaveEmbedding(ctx, &domain.EmbeddingRecord{ChunkID: c.ID, Vector: []float32{1}}))
	}

	sample, err := s.Sample(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, sample, 2)

	all, err := s.AllEmbeddings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestStore_IndexCatalog(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_, err := s.GetIndex(ctx, "idx")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.PutIndex(ctx, domain.IndexInfo{Name: "idx", State: domain.IndexReady, Vectors: 2}))
	info, err := s.GetIndex(ctx, "idx")
	require.NoError(t, err)
	assert.Equal(t, domain.IndexReady, info.State)

	require.NoError(t, s.DeleteIndex(ctx, "idx"))
	_, err = s.GetIndex(ctx, "idx")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_Unavailable(t *testing.T) {
	s := NewStore()
	s.SetUnavailable(true)
	ctx := context.Background()

	_, err := s.ListDocuments(ctx)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	_, err = s.Sample(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	s.SetUnavailable(false)
	_, err = s.ListDocuments(ctx)
	assert.NoError(t, err)
}

func TestStore_ReplaceChunks(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	doc, old := seed(t, s, "a.txt", 3)
	require.NoError(t, s.SaveEmbedding(ctx, &domain.EmbeddingRecord{ChunkID: old[0].ID, Vector: []float32{1, 0}}))

	for range 2 {
		require.NoError(t, s.ReplaceChunks(ctx, doc.ID, []domain.Chunk{
			{DocumentID: doc.ID, Text: "one", Metadata: domain.ChunkMetadata{ChunkIndex: 0}},
			{DocumentID: doc.ID, Text: "two", Metadata: domain.ChunkMetadata{ChunkIndex: 1}},
		}))
	}

	n, err := s.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = s.CountEmbeddings(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	stored, err := s.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, stored.Chunked)
}

func TestStore_ReplaceChunks_RejectsDuplicateIndex(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	doc, _ := seed(t, s, "a.txt", 2)

	err := s.ReplaceChunks(ctx, doc.ID, []domain.Chunk{
		{DocumentID: doc.ID, Text: "x", Metadata: domain.ChunkMetadata{ChunkIndex: 0}},
		{DocumentID: doc.ID, Text: "y", Metadata: domain.ChunkMetadata{ChunkIndex: 0}},
	})
	require.ErrorIs(t, err, domain.ErrDataIntegrity)

	n, err := s.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	err = s.SaveChunks(ctx, []domain.Chunk{
		{DocumentID: doc.ID, Text: "dup", Metadata: domain.ChunkMetadata{ChunkIndex: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)

	err = s.ReplaceChunks(ctx, "ghost", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
