package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
)

func TestDocumentStore_UpsertAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docs := store.DocumentStore()

	doc := createTestDocument(t, store, "guide.md", "hello world")
	assert.NotEmpty(t, doc.ID)
	assert.False(t, doc.CreatedAt.IsZero())

	got, err := docs.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "guide.md", got.Name)
	assert.Equal(t, "hello world", got.Content)
	assert.Equal(t, "test", got.Source)
	assert.False(t, got.Chunked)

	byName, err := docs.GetDocumentByName(ctx, "guide.md")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, byName.ID)
}

func TestDocumentStore_UpsertSameNameUpdates(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docs := store.DocumentStore()

	first := createTestDocument(t, store, "a.txt", "v1")
	require.NoError(t, docs.MarkChunked(ctx, first.ID))

	second := &domain.Document{Name: "a.txt", Content: "v2", Source: "upload"}
	created, err := docs.UpsertDocument(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Chunked)
	assert.WithinDuration(t, first.CreatedAt, second.CreatedAt, 0)

	all, err := docs.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "v2", all[0].Content)
	assert.Equal(t, "upload", all[0].Source)
}

func TestDocumentStore_UpsertRequiresName(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.DocumentStore().UpsertDocument(context.Background(), &domain.Document{Content: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocumentStore_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docs := store.DocumentStore()

	_, err := docs.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = docs.GetDocumentByName(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = docs.GetChunk(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, docs.MarkChunked(ctx, "missing"), domain.ErrNotFound)
	assert.ErrorIs(t, docs.DeleteDocument(ctx, "missing"), domain.ErrNotFound)
	assert.ErrorIs(t, docs.ResetDocument(ctx, "missing"), domain.ErrNotFound)
}

func TestDocumentStore_ListUnchunked(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docs := store.DocumentStore()

	a := createTestDocument(t, store, "a.txt", "alpha")
	createTestDocument(t, store, "b.txt", "beta")
	require.NoError(t, docs.MarkChunked(ctx, a.ID))

	pending, err := docs.ListUnchunked(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b.txt", pending[0].Name)
}

func TestDocumentStore_SaveAndGetChunks(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docs := store.DocumentStore()

	doc := createTestDocument(t, store, "a.txt", "alpha")
	saved := createTestChunks(t, store, doc, 3)

	chunks, err := docs.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.Equal(t, i, c.Metadata.ChunkIndex)
		assert.Equal(t, 3, c.Metadata.TotalChunks)
		assert.Equal(t, domain.StrategyFixedSize, c.Metadata.Strategy)
		assert.Equal(t, "a.txt", c.Metadata.FileName)
		assert.False(t, c.Processed)
	}

	one, err := docs.GetChunk(ctx, saved[1].ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, one.DocumentID)

	n, err := docs.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestDocumentStore_SaveChunks_UnknownDocument(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.DocumentStore().SaveChunks(context.Background(), []domain.Chunk{
		{DocumentID: "ghost", Text: "x"},
	})
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)
}

func TestDocumentStore_ListUnprocessedChunks(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docs := store.DocumentStore()

	doc := createTestDocument(t, store, "a.txt", "alpha")
	chunks := createTestChunks(t, store, doc, 4)

	require.NoError(t, store.EmbeddingStore().SaveEmbedding(ctx, &domain.EmbeddingRecord{
		ChunkID: chunks[0].ID, Vector: []float32{1, 0},
	}))

	all, err := docs.ListUnprocessedChunks(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := docs.ListUnprocessedChunks(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestDocumentStore_DeleteDocument_Cascades(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docs := store.DocumentStore()
	embeddings := store.EmbeddingStore()

	doc := createTestDocument(t, store, "a.txt", "alpha")
	chunks := createTestChunks(t, store, doc, 2)
	for _, c := range chunks {
		require.NoError(t, embeddings.SaveEmbedding(ctx, &domain.EmbeddingRecord{
			ChunkID: c.ID, Vector: []float32{1, 2, 3},
		}))
	}

	require.NoError(t, docs.DeleteDocument(ctx, doc.ID))

	n, err := docs.CountChunks(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = embeddings.CountEmbeddings(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDocumentStore_ResetDocument(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docs := store.DocumentStore()
	embeddings := store.EmbeddingStore()

	doc := createTestDocument(t, store, "a.txt", "alpha")
	chunks := createTestChunks(t, store, doc, 2)
	require.NoError(t, docs.MarkChunked(ctx, doc.ID))
	require.NoError(t, embeddings.SaveEmbedding(ctx, &domain.EmbeddingRecord{
		ChunkID: chunks[0].ID, Vector: []float32{1, 2},
	}))

	require.NoError(t, docs.ResetDocument(ctx, doc.ID))

	got, err := docs.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, got.Chunked)
	assert.Equal(t, "alpha", got.Content)

	remaining, err := docs.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	n, err := embeddings.CountEmbeddings(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDocumentStore_ReplaceChunks(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docs := store.DocumentStore()
	embeddings := store.EmbeddingStore()

	doc := createTestDocument(t, store, "a.txt", "alpha")
	old := createTestChunks(t, store, doc, 3)
	require.NoError(t, embeddings.SaveEmbedding(ctx, &domain.EmbeddingRecord{
		ChunkID: old[0].ID, Vector: []float32{1, 2},
	}))

	replacement := []domain.Chunk{
		{DocumentID: doc.ID, Text: "one", Metadata: domain.ChunkMetadata{ChunkIndex: 0, TotalChunks: 2}},
		{DocumentID: doc.ID, Text: "two", Metadata: domain.ChunkMetadata{ChunkIndex: 1, TotalChunks: 2}},
	}
	require.NoError(t, docs.ReplaceChunks(ctx, doc.ID, replacement))
	// A second identical pass leaves the same count behind.
	again := []domain.Chunk{
		{DocumentID: doc.ID, Text: "one", Metadata: domain.ChunkMetadata{ChunkIndex: 0, TotalChunks: 2}},
		{DocumentID: doc.ID, Text: "two", Metadata: domain.ChunkMetadata{ChunkIndex: 1, TotalChunks: 2}},
	}
	require.NoError(t, docs.ReplaceChunks(ctx, doc.ID, again))

	got, err := docs.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "one", got[0].Text)
	assert.Equal(t, "two", got[1].Text)
	assert.Equal(t, again[0].ID, got[0].ID)

	n, err := embeddings.CountEmbeddings(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	stored, err := docs.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, stored.Chunked)
}

func TestDocumentStore_ReplaceChunks_RollsBackOnFailure(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docs := store.DocumentStore()

	doc := createTestDocument(t, store, "a.txt", "alpha")
	createTestChunks(t, store, doc, 2)

	err := docs.ReplaceChunks(ctx, doc.ID, []domain.Chunk{
		{DocumentID: doc.ID, Text: "x", Metadata: domain.ChunkMetadata{ChunkIndex: 0}},
		{DocumentID: doc.ID, Text: "y", Metadata: domain.ChunkMetadata{ChunkIndex: 0}},
	})
	require.ErrorIs(t, err, domain.ErrDataIntegrity)

	got, err := docs.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	stored, err := docs.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, stored.Chunked)

	err = docs.ReplaceChunks(ctx, "ghost", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	other := createTestDocument(t, store, "b.txt", "beta")
	err = docs.ReplaceChunks(ctx, doc.ID, []domain.Chunk{{DocumentID: other.ID, Text: "z"}})
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)
}

func TestDocumentStore_SaveChunks_DuplicateIndexRejected(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docs := store.DocumentStore()

	doc := createTestDocument(t, store, "a.txt", "alpha")
	createTestChunks(t, store, doc, 2)

	err := docs.SaveChunks(ctx, []domain.Chunk{
		{DocumentID: doc.ID, Text: "dup", Metadata: domain.ChunkMetadata{ChunkIndex: 1}},
	})
	require.ErrorIs(t, err, domain.ErrDataIntegrity)

	n, err := docs.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
