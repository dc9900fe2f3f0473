package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
)

// embeddingStore implements driven.EmbeddingStore.
type embeddingStore struct {
	store *Store
}

var _ driven.EmbeddingStore = (*embeddingStore)(nil)

const embeddingColumns = `id, chunk_id, vector, text, metadata, created_at`

// SaveEmbedding stores the record and marks its chunk processed atomically.
func (s *embeddingStore) SaveEmbedding(ctx context.Context, rec *domain.EmbeddingRecord) error {
	if rec == nil || rec.ChunkID == "" {
		return fmt.Errorf("%w: embedding requires a chunk id", domain.ErrInvalidInput)
	}
	if len(rec.Vector) == 0 {
		return fmt.Errorf("%w: empty embedding vector", domain.ErrInvalidInput)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var dims int
	err = tx.QueryRowContext(ctx, "SELECT dimensions FROM embeddings LIMIT 1").Scan(&dims)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return wrapErr("reading collection dimensions", err)
	case dims != len(rec.Vector):
		return fmt.Errorf("%w: collection has %d dimensions, got %d",
			domain.ErrDimensionMismatch, dims, len(rec.Vector))
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling embedding metadata: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO embeddings (id, chunk_id, vector, dimensions, text, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.ChunkID, encodeVector(rec.Vector), len(rec.Vector), rec.Text,
		string(meta), formatTime(rec.CreatedAt))
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("%w: chunk %s already has an embedding", domain.ErrDataIntegrity, rec.ChunkID)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: chunk %s", domain.ErrNotFound, rec.ChunkID)
	case err != nil:
		return wrapErr("saving embedding", err)
	}

	res, err := tx.ExecContext(ctx, "UPDATE chunks SET processed = 1 WHERE id = ?", rec.ChunkID)
	if err != nil {
		return wrapErr("marking chunk processed", err)
	}
	if err := requireRow(res, rec.ChunkID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("committing embedding", err)
	}
	return nil
}

// GetEmbeddings returns the records for the given chunk IDs.
func (s *embeddingStore) GetEmbeddings(ctx context.Context, chunkIDs []string) ([]domain.EmbeddingRecord, error) {
	if len(chunkIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunkIDs)), ",")
	args := make([]any, len(chunkIDs))
	for i, id := range chunkIDs {
		args[i] = id
	}
	return s.query(ctx,
		"SELECT "+embeddingColumns+" FROM embeddings WHERE chunk_id IN ("+placeholders+")",
		args...)
}

// AllEmbeddings returns every stored record.
func (s *embeddingStore) AllEmbeddings(ctx context.Context) ([]domain.EmbeddingRecord, error) {
	return s.query(ctx, "SELECT "+embeddingColumns+" FROM embeddings")
}

// Sample returns up to k records in storage order.
func (s *embeddingStore) Sample(ctx context.Context, k int) ([]domain.EmbeddingRecord, error) {
	if k <= 0 {
		return nil, nil
	}
	return s.query(ctx, "SELECT "+embeddingColumns+" FROM embeddings LIMIT ?", k)
}

// CountEmbeddings returns the number of stored records.
func (s *embeddingStore) CountEmbeddings(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings").Scan(&n); err != nil {
		return 0, wrapErr("counting embeddings", err)
	}
	return n, nil
}

// Dimensions returns the collection dimensionality, or 0 when empty.
func (s *embeddingStore) Dimensions(ctx context.Context) (int, error) {
	var dims int
	err := s.store.db.QueryRowContext(ctx, "SELECT dimensions FROM embeddings LIMIT 1").Scan(&dims)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, wrapErr("reading collection dimensions", err)
	}
	return dims, nil
}

func (s *embeddingStore) query(ctx context.Context, query string, args ...any) ([]domain.EmbeddingRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("querying embeddings", err)
	}
	defer rows.Close()

	var records []domain.EmbeddingRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			rec       domain.EmbeddingRecord
			blob      []byte
			meta      string
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.ChunkID, &blob, &rec.Text, &meta, &createdAt); err != nil {
			return nil, wrapErr("scanning embedding", err)
		}
		if rec.Vector, err = decodeVector(blob); err != nil {
			return nil, fmt.Errorf("%w: embedding %s: %v", domain.ErrDataIntegrity, rec.ID, err)
		}
		if err := json.Unmarshal([]byte(meta), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling embedding metadata: %w", err)
		}
		rec.CreatedAt = parseTime(createdAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterating embeddings", err)
	}
	return records, nil
}
