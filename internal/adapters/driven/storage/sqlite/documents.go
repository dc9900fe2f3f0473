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

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, name, content, source, type, url, path, chunked, created_at, updated_at`

const chunkColumns = `id, document_id, chunk_index, text, metadata, processed, created_at`

// UpsertDocument inserts a document or updates the one with the same name.
func (s *documentStore) UpsertDocument(ctx context.Context, doc *domain.Document) (bool, error) {
	if doc == nil || strings.TrimSpace(doc.Name) == "" {
		return false, fmt.Errorf("%w: document name is required", domain.ErrInvalidInput)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return false, wrapErr("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	now := time.Now().UTC()

	var (
		existingID string
		createdAt  string
		chunked    int
	)
	err = tx.QueryRowContext(ctx,
		"SELECT id, created_at, chunked FROM documents WHERE name = ?", doc.Name,
	).Scan(&existingID, &createdAt, &chunked)

	created := false
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if doc.ID == "" {
			doc.ID = uuid.New().String()
		}
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = now
		}
		doc.UpdatedAt = now
		doc.Chunked = false
		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents (`+documentColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		`, doc.ID, doc.Name, doc.Content, doc.Source, doc.Type, doc.URL, doc.Path,
			formatTime(doc.CreatedAt), formatTime(doc.UpdatedAt))
		if isUniqueViolation(err) {
			return false, fmt.Errorf("%w: %s", domain.ErrDuplicateName, doc.Name)
		}
		if err != nil {
			return false, wrapErr("inserting document", err)
		}
		created = true
	case err != nil:
		return false, wrapErr("looking up document", err)
	default:
		doc.ID = existingID
		doc.CreatedAt = parseTime(createdAt)
		doc.Chunked = chunked != 0
		doc.UpdatedAt = now
		_, err = tx.ExecContext(ctx, `
			UPDATE documents
			SET content = ?, source = ?, type = ?, url = ?, path = ?, updated_at = ?
			WHERE id = ?
		`, doc.Content, doc.Source, doc.Type, doc.URL, doc.Path, formatTime(now), doc.ID)
		if err != nil {
			return false, wrapErr("updating document", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, wrapErr("committing document", err)
	}
	return created, nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	return scanDocument(row)
}

// GetDocumentByName retrieves a document by its unique name.
func (s *documentStore) GetDocumentByName(ctx context.Context, name string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE name = ?", name)
	return scanDocument(row)
}

// ListDocuments returns every document ordered by name.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	return s.queryDocuments(ctx, "SELECT "+documentColumns+" FROM documents ORDER BY name")
}

// ListUnchunked returns documents whose chunks have not been stored.
func (s *documentStore) ListUnchunked(ctx context.Context) ([]domain.Document, error) {
	return s.queryDocuments(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE chunked = 0 ORDER BY name")
}

func (s *documentStore) queryDocuments(ctx context.Context, query string) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapErr("querying documents", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterating documents", err)
	}
	return docs, nil
}

// MarkChunked flags a document as fully chunked.
func (s *documentStore) MarkChunked(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE documents SET chunked = 1, updated_at = ? WHERE id = ?",
		formatTime(time.Now()), id)
	if err != nil {
		return wrapErr("marking document chunked", err)
	}
	return requireRow(res, id)
}

// ResetDocument deletes a document's chunks and embeddings and clears Chunked.
func (s *documentStore) ResetDocument(ctx context.Context, id string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx,
		"UPDATE documents SET chunked = 0, updated_at = ? WHERE id = ?",
		formatTime(time.Now()), id)
	if err != nil {
		return wrapErr("resetting document", err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}

	// Embeddings follow their chunks through ON DELETE CASCADE.
	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", id); err != nil {
		return wrapErr("deleting chunks", err)
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("committing reset", err)
	}
	return nil
}

// DeleteDocument removes a document, its chunks and their embeddings.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return wrapErr("deleting document", err)
	}
	return requireRow(res, id)
}

// SaveChunks stores chunks in a single transaction.
func (s *documentStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := insertChunks(ctx, tx, chunks); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("committing chunks", err)
	}
	return nil
}

// ReplaceChunks drops a document's chunks, stores the new set and marks the
// document chunked in one transaction.
func (s *documentStore) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	// Embeddings follow their chunks through ON DELETE CASCADE.
	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return wrapErr("deleting chunks", err)
	}

	for i := range chunks {
		if chunks[i].DocumentID != documentID {
			return fmt.Errorf("%w: chunk %d belongs to document %s, not %s",
				domain.ErrDataIntegrity, i, chunks[i].DocumentID, documentID)
		}
	}
	if err := insertChunks(ctx, tx, chunks); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE documents SET chunked = 1, updated_at = ? WHERE id = ?",
		formatTime(time.Now()), documentID)
	if err != nil {
		return wrapErr("marking document chunked", err)
	}
	if err := requireRow(res, documentID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("committing chunks", err)
	}
	return nil
}

// insertChunks writes chunks inside tx, filling in missing IDs and timestamps.
func insertChunks(ctx context.Context, tx *sql.Tx, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (`+chunkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			metadata = excluded.metadata,
			chunk_index = excluded.chunk_index
	`)
	if err != nil {
		return wrapErr("preparing chunk insert", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range chunks {
		c := &chunks[i]
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		meta, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}
		_, err = stmt.ExecContext(ctx, c.ID, c.DocumentID, c.Metadata.ChunkIndex, c.Text,
			string(meta), boolToInt(c.Processed), formatTime(c.CreatedAt))
		switch {
		case isForeignKeyViolation(err):
			return fmt.Errorf("%w: chunk %s references unknown document %s",
				domain.ErrDataIntegrity, c.ID, c.DocumentID)
		case isUniqueViolation(err):
			return fmt.Errorf("%w: document %s already has chunk index %d",
				domain.ErrDataIntegrity, c.DocumentID, c.Metadata.ChunkIndex)
		case err != nil:
			return wrapErr("saving chunk", err)
		}
	}
	return nil
}

// GetChunk retrieves a chunk by ID.
func (s *documentStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, "SELECT "+chunkColumns+" FROM chunks WHERE id = ?", id)
	return scanChunk(row)
}

// GetChunks retrieves all chunks for a document ordered by chunk index.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	return s.queryChunks(ctx,
		"SELECT "+chunkColumns+" FROM chunks WHERE document_id = ? ORDER BY chunk_index",
		documentID)
}

// ListUnprocessedChunks returns up to limit chunks without an embedding.
func (s *documentStore) ListUnprocessedChunks(ctx context.Context, limit int) ([]domain.Chunk, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	return s.queryChunks(ctx,
		"SELECT "+chunkColumns+" FROM chunks WHERE processed = 0 ORDER BY document_id, chunk_index LIMIT ?",
		limit)
}

// CountChunks returns the total number of stored chunks.
func (s *documentStore) CountChunks(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, wrapErr("counting chunks", err)
	}
	return n, nil
}

func (s *documentStore) queryChunks(ctx context.Context, query string, args ...any) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("querying chunks", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterating chunks", err)
	}
	return chunks, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var (
		doc                  domain.Document
		chunked              int
		createdAt, updatedAt string
	)
	err := row.Scan(&doc.ID, &doc.Name, &doc.Content, &doc.Source, &doc.Type, &doc.URL,
		&doc.Path, &chunked, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("scanning document", err)
	}
	doc.Chunked = chunked != 0
	doc.CreatedAt = parseTime(createdAt)
	doc.UpdatedAt = parseTime(updatedAt)
	return &doc, nil
}

func scanChunk(row rowScanner) (*domain.Chunk, error) {
	var (
		c         domain.Chunk
		index     int
		meta      string
		processed int
		createdAt string
	)
	err := row.Scan(&c.ID, &c.DocumentID, &index, &c.Text, &meta, &processed, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("scanning chunk", err)
	}
	if err := json.Unmarshal([]byte(meta), &c.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshalling chunk metadata: %w", err)
	}
	c.Metadata.ChunkIndex = index
	c.Processed = processed != 0
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}

// requireRow returns ErrNotFound when an update or delete touched nothing.
func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr("reading affected rows", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return nil
}
