package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
)

// indexCatalog implements driven.IndexCatalog.
type indexCatalog struct {
	store *Store
}

var _ driven.IndexCatalog = (*indexCatalog)(nil)

// GetIndex returns the catalog entry, or ErrNotFound.
func (c *indexCatalog) GetIndex(ctx context.Context, name string) (*domain.IndexInfo, error) {
	var (
		info  domain.IndexInfo
		state string
	)
	err := c.store.db.QueryRowContext(ctx,
		"SELECT name, state, dimensions, vectors FROM vector_indexes WHERE name = ?", name,
	).Scan(&info.Name, &state, &info.Dimensions, &info.Vectors)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("reading index", err)
	}
	info.State = domain.IndexState(state)
	return &info, nil
}

// PutIndex creates or replaces the catalog entry.
func (c *indexCatalog) PutIndex(ctx context.Context, info domain.IndexInfo) error {
	if info.Name == "" {
		return fmt.Errorf("%w: index name is required", domain.ErrInvalidInput)
	}
	if info.State == domain.IndexAbsent {
		return c.DeleteIndex(ctx, info.Name)
	}
	_, err := c.store.db.ExecContext(ctx, `
		INSERT INTO vector_indexes (name, state, dimensions, vectors, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			state = excluded.state,
			dimensions = excluded.dimensions,
			vectors = excluded.vectors,
			updated_at = excluded.updated_at
	`, info.Name, string(info.State), info.Dimensions, info.Vectors, formatTime(time.Now()))
	if err != nil {
		return wrapErr("saving index", err)
	}
	return nil
}

// DeleteIndex removes the entry.
func (c *indexCatalog) DeleteIndex(ctx context.Context, name string) error {
	if _, err := c.store.db.ExecContext(ctx, "DELETE FROM vector_indexes WHERE name = ?", name); err != nil {
		return wrapErr("deleting index", err)
	}
	return nil
}
