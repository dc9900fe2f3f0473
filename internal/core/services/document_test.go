package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chunkwise/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/chunkwise/internal/core/domain"
)

func TestDocumentService_ListAndGet(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	chunks := seedChunks(t, store, "a.txt", "one", "two")
	seedChunks(t, store, "b.txt", "three")

	svc := NewDocumentService(store, store, nil, "")

	docs, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	doc, err := svc.Get(ctx, chunks[0].DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "a.txt", doc.Name)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_Chunks(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	chunks := seedChunks(t, store, "a.txt", "one", "two", "three")

	svc := NewDocumentService(store, store, nil, "")

	got, err := svc.Chunks(ctx, chunks[0].DocumentID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "one", got[0].Text)
	assert.Equal(t, "three", got[2].Text)

	_, err = svc.Chunks(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_GetDetails(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	chunks := seedChunks(t, store, "notes.txt", "alpha", "beta", "gamma")
	require.NoError(t, store.SaveEmbedding(ctx, &domain.EmbeddingRecord{ChunkID: chunks[0].ID, Vector: []float32{1, 0}}))

	svc := NewDocumentService(store, store, nil, "")
	details, err := svc.GetDetails(ctx, chunks[0].DocumentID)
	require.NoError(t, err)

	assert.Equal(t, "notes.txt", details.Name)
	assert.True(t, details.Chunked)
	assert.Equal(t, 3, details.ChunkCount)
	assert.Equal(t, 1, details.Embedded)
	assert.Equal(t, len("notes.txt"), details.Characters)
}

func TestDocumentService_DeleteRefreshesIndex(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	chunks := seedChunks(t, store, "a.txt", "one")
	index := &mockIndex{}

	svc := NewDocumentService(store, store, index, "")
	require.NoError(t, svc.Delete(ctx, chunks[0].DocumentID))
	assert.Equal(t, 1, index.ensured)

	n, err := store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	err = svc.Delete(ctx, chunks[0].DocumentID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, index.ensured)
}

func TestDocumentService_DeleteIgnoresIndexFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	chunks := seedChunks(t, store, "a.txt", "one")
	index := &mockIndex{ensureErr: errors.New("index offline")}

	svc := NewDocumentService(store, store, index, "")
	assert.NoError(t, svc.Delete(ctx, chunks[0].DocumentID))
	assert.Equal(t, 1, index.ensured)
}
