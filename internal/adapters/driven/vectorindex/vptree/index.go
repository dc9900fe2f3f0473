package vptree

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
	"github.com/custodia-labs/chunkwise/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a catalog-backed collection of named VP-trees.
type Index struct {
	embeddings driven.EmbeddingStore
	catalog    driven.IndexCatalog

	// build serialises builds so two callers never construct the same tree.
	build sync.Mutex

	mu    sync.RWMutex
	trees map[string]*tree
}

// New creates an index over the given embedding store and catalog.
func New(embeddings driven.EmbeddingStore, catalog driven.IndexCatalog) *Index {
	return &Index{
		embeddings: embeddings,
		catalog:    catalog,
		trees:      make(map[string]*tree),
	}
}

// EnsureIndex builds the named index if it is not ready.
// A ready index whose vector count lags the collection is rebuilt.
func (x *Index) EnsureIndex(ctx context.Context, name string) (domain.IndexInfo, error) {
	x.build.Lock()
	defer x.build.Unlock()

	count, err := x.embeddings.CountEmbeddings(ctx)
	if err != nil {
		return domain.IndexInfo{}, err
	}
	info, err := x.state(ctx, name)
	if err != nil {
		return domain.IndexInfo{}, err
	}
	if count == 0 {
		if info.State == domain.IndexAbsent {
			return info, nil
		}
		// Every vector was deleted since the last build.
		if err := x.catalog.DeleteIndex(ctx, name); err != nil {
			return domain.IndexInfo{}, err
		}
		x.drop(name)
		return domain.IndexInfo{Name: name, State: domain.IndexAbsent}, nil
	}
	if info.State == domain.IndexReady && info.Vectors == count && x.loaded(name) {
		return info, nil
	}
	return x.rebuild(ctx, name)
}

// Rebuild discards and rebuilds the named index from the current collection.
func (x *Index) Rebuild(ctx context.Context, name string) (domain.IndexInfo, error) {
	x.build.Lock()
	defer x.build.Unlock()
	return x.rebuild(ctx, name)
}

// State returns the current state of the named index.
func (x *Index) State(ctx context.Context, name string) (domain.IndexInfo, error) {
	return x.state(ctx, name)
}

func (x *Index) state(ctx context.Context, name string) (domain.IndexInfo, error) {
	info, err := x.catalog.GetIndex(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.IndexInfo{Name: name, State: domain.IndexAbsent}, nil
	}
	if err != nil {
		return domain.IndexInfo{}, err
	}
	return *info, nil
}

// rebuild runs creating -> ready, or back to absent on failure. Caller holds x.build.
func (x *Index) rebuild(ctx context.Context, name string) (domain.IndexInfo, error) {
	creating := domain.IndexInfo{Name: name, State: domain.IndexCreating}
	if err := x.catalog.PutIndex(ctx, creating); err != nil {
		return domain.IndexInfo{}, err
	}

	t, err := x.load(ctx)
	if err != nil {
		if derr := x.catalog.DeleteIndex(context.WithoutCancel(ctx), name); derr != nil {
			logger.Warn("vptree: resetting index %s after failed build: %v", name, derr)
		}
		x.drop(name)
		return domain.IndexInfo{Name: name, State: domain.IndexAbsent}, fmt.Errorf("building index %s: %w", name, err)
	}

	if t.size == 0 {
		if err := x.catalog.DeleteIndex(ctx, name); err != nil {
			return domain.IndexInfo{}, err
		}
		x.drop(name)
		return domain.IndexInfo{Name: name, State: domain.IndexAbsent}, nil
	}

	ready := domain.IndexInfo{Name: name, State: domain.IndexReady, Dimensions: t.dimensions, Vectors: t.size}
	if err := x.catalog.PutIndex(ctx, ready); err != nil {
		return domain.IndexInfo{}, err
	}

	x.mu.Lock()
	x.trees[name] = t
	x.mu.Unlock()

	logger.Info("vptree: index %s ready (%d vectors, %d dimensions)", name, t.size, t.dimensions)
	return ready, nil
}

// load builds a tree from every stored embedding.
func (x *Index) load(ctx context.Context) (*tree, error) {
	records, err := x.embeddings.AllEmbeddings(ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	points := make([]point, 0, len(records))
	dims := 0
	for _, rec := range records {
		if dims == 0 {
			dims = len(rec.Vector)
		}
		if len(rec.Vector) != dims {
			return nil, fmt.Errorf("%w: record %s has %d dimensions, expected %d",
				domain.ErrDimensionMismatch, rec.ChunkID, len(rec.Vector), dims)
		}
		points = append(points, newPoint(rec.ChunkID, rec.Vector))
	}
	return buildTree(points), nil
}

func (x *Index) loaded(name string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.trees[name]
	return ok
}

func (x *Index) drop(name string) {
	x.mu.Lock()
	delete(x.trees, name)
	x.mu.Unlock()
}

// Search returns up to numCandidates nearest neighbours of query.
func (x *Index) Search(ctx context.Context, name string, query []float32, numCandidates int) ([]driven.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := x.state(ctx, name)
	if err != nil {
		return nil, err
	}
	if info.State != domain.IndexReady {
		return nil, fmt.Errorf("%w: %s is %s", domain.ErrIndexUnavailable, name, info.State)
	}

	t, err := x.tree(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(query) != t.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index %s has %d",
			domain.ErrDimensionMismatch, len(query), name, t.dimensions)
	}

	found := t.nearest(newPoint("", query), numCandidates)
	hits := make([]driven.VectorHit, len(found))
	for i, n := range found {
		hits[i] = driven.VectorHit{ChunkID: n.id, Similarity: similarity(n.distance)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	return hits, nil
}

// tree returns the loaded tree, rebuilding it when the catalog is ready
// but this process has not built it yet.
func (x *Index) tree(ctx context.Context, name string) (*tree, error) {
	x.mu.RLock()
	t, ok := x.trees[name]
	x.mu.RUnlock()
	if ok {
		return t, nil
	}

	if _, err := x.EnsureIndex(ctx, name); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}

	x.mu.RLock()
	t, ok = x.trees[name]
	x.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrIndexUnavailable, name)
	}
	return t, nil
}

// Close releases the in-memory trees.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.trees = make(map[string]*tree)
	return nil
}
