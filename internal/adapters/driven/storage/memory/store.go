package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
)

// Ensure Store implements the interfaces.
var (
	_ driven.DocumentStore  = (*Store)(nil)
	_ driven.EmbeddingStore = (*Store)(nil)
	_ driven.IndexCatalog   = (*Store)(nil)
)

// Store is an in-memory implementation of the document, embedding and
// index catalog stores. It mirrors the SQLite adapter's constraints:
// unique names, one embedding per chunk, uniform dimensionality and
// cascading deletes.
type Store struct {
	mu          sync.RWMutex
	documents   map[string]domain.Document
	chunks      map[string]domain.Chunk
	docChunks   map[string][]string
	embeddings  map[string]domain.EmbeddingRecord
	order       []string
	indexes     map[string]domain.IndexInfo
	unavailable bool
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		documents:  make(map[string]domain.Document),
		chunks:     make(map[string]domain.Chunk),
		docChunks:  make(map[string][]string),
		embeddings: make(map[string]domain.EmbeddingRecord),
		indexes:    make(map[string]domain.IndexInfo),
	}
}

// SetUnavailable makes every subsequent call fail with ErrStoreUnavailable.
func (s *Store) SetUnavailable(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unavailable = down
}

func (s *Store) check() error {
	if s.unavailable {
		return domain.ErrStoreUnavailable
	}
	return nil
}

// UpsertDocument inserts a document or updates the one with the same name.
func (s *Store) UpsertDocument(_ context.Context, doc *domain.Document) (bool, error) {
	if doc == nil || strings.TrimSpace(doc.Name) == "" {
		return false, fmt.Errorf("%w: document name is required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return false, err
	}

	now := time.Now().UTC()
	for id, existing := range s.documents {
		if existing.Name != doc.Name {
			continue
		}
		doc.ID = id
		doc.CreatedAt = existing.CreatedAt
		doc.Chunked = existing.Chunked
		doc.UpdatedAt = now
		s.documents[id] = *doc
		return false, nil
	}

	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	doc.Chunked = false
	s.documents[doc.ID] = *doc
	return true, nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetDocumentByName retrieves a document by its unique name.
func (s *Store) GetDocumentByName(_ context.Context, name string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	for _, doc := range s.documents {
		if doc.Name == name {
			return &doc, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ListDocuments returns every document ordered by name.
func (s *Store) ListDocuments(_ context.Context) ([]domain.Document, error) {
	return s.listDocuments(func(domain.Document) bool { return true })
}

// ListUnchunked returns documents whose chunks have not been stored.
func (s *Store) ListUnchunked(_ context.Context) ([]domain.Document, error) {
	return s.listDocuments(func(d domain.Document) bool { return !d.Chunked })
}

func (s *Store) listDocuments(keep func(domain.Document) bool) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	var docs []domain.Document
	for _, doc := range s.documents {
		if keep(doc) {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

// MarkChunked flags a document as fully chunked.
func (s *Store) MarkChunked(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	doc, ok := s.documents[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	doc.Chunked = true
	doc.UpdatedAt = time.Now().UTC()
	s.documents[id] = doc
	return nil
}

// ResetDocument deletes a document's chunks and embeddings and clears Chunked.
func (s *Store) ResetDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	doc, ok := s.documents[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	s.dropChunks(id)
	doc.Chunked = false
	doc.UpdatedAt = time.Now().UTC()
	s.documents[id] = doc
	return nil
}

// DeleteDocument removes a document, its chunks and their embeddings.
func (s *Store) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	if _, ok := s.documents[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	s.dropChunks(id)
	delete(s.documents, id)
	return nil
}

// dropChunks removes a document's chunks and embeddings. Caller holds the lock.
func (s *Store) dropChunks(docID string) {
	gone := make(map[string]bool)
	for _, chunkID := range s.docChunks[docID] {
		delete(s.chunks, chunkID)
		if _, ok := s.embeddings[chunkID]; ok {
			delete(s.embeddings, chunkID)
			gone[chunkID] = true
		}
	}
	delete(s.docChunks, docID)
	if len(gone) == 0 {
		return
	}
	kept := s.order[:0]
	for _, chunkID := range s.order {
		if !gone[chunkID] {
			kept = append(kept, chunkID)
		}
	}
	s.order = kept
}

// SaveChunks stores chunks atomically.
func (s *Store) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	if err := s.validateChunks(chunks, true); err != nil {
		return err
	}
	s.putChunks(chunks)
	return nil
}

// ReplaceChunks drops a document's chunks, stores the new set and marks the
// document chunked as one step.
func (s *Store) ReplaceChunks(_ context.Context, documentID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	doc, ok := s.documents[documentID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, documentID)
	}
	for i := range chunks {
		if chunks[i].DocumentID != documentID {
			return fmt.Errorf("%w: chunk %d belongs to document %s, not %s",
				domain.ErrDataIntegrity, i, chunks[i].DocumentID, documentID)
		}
	}
	if err := s.validateChunks(chunks, false); err != nil {
		return err
	}

	s.dropChunks(documentID)
	s.putChunks(chunks)
	doc.Chunked = true
	doc.UpdatedAt = time.Now().UTC()
	s.documents[documentID] = doc
	return nil
}

// validateChunks rejects unknown documents and repeated chunk indexes,
// within the batch and, when againstStored is set, against stored chunks.
func (s *Store) validateChunks(chunks []domain.Chunk, againstStored bool) error {
	type slot struct {
		doc   string
		index int
	}
	owner := make(map[slot]string)
	if againstStored {
		for _, c := range chunks {
			for _, id := range s.docChunks[c.DocumentID] {
				stored := s.chunks[id]
				owner[slot{stored.DocumentID, stored.Metadata.ChunkIndex}] = stored.ID
			}
		}
	}
	for _, c := range chunks {
		if _, ok := s.documents[c.DocumentID]; !ok {
			return fmt.Errorf("%w: chunk references unknown document %s",
				domain.ErrDataIntegrity, c.DocumentID)
		}
		key := slot{c.DocumentID, c.Metadata.ChunkIndex}
		if id, taken := owner[key]; taken && (id != c.ID || c.ID == "") {
			return fmt.Errorf("%w: document %s already has chunk index %d",
				domain.ErrDataIntegrity, c.DocumentID, c.Metadata.ChunkIndex)
		}
		owner[key] = c.ID
	}
	return nil
}

func (s *Store) putChunks(chunks []domain.Chunk) {
	now := time.Now().UTC()
	for i := range chunks {
		c := &chunks[i]
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		if old, exists := s.chunks[c.ID]; exists {
			c.DocumentID = old.DocumentID
		} else {
			s.docChunks[c.DocumentID] = append(s.docChunks[c.DocumentID], c.ID)
		}
		s.chunks[c.ID] = *c
	}
}

// GetChunk retrieves a chunk by ID.
func (s *Store) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	c, ok := s.chunks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

// GetChunks retrieves all chunks for a document ordered by chunk index.
func (s *Store) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	var out []domain.Chunk
	for _, id := range s.docChunks[documentID] {
		out = append(out, s.chunks[id])
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Metadata.ChunkIndex < out[j].Metadata.ChunkIndex
	})
	return out, nil
}

// ListUnprocessedChunks returns up to limit chunks without an embedding.
func (s *Store) ListUnprocessedChunks(_ context.Context, limit int) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	var out []domain.Chunk
	for _, c := range s.chunks {
		if !c.Processed {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DocumentID != out[j].DocumentID {
			return out[i].DocumentID < out[j].DocumentID
		}
		return out[i].Metadata.ChunkIndex < out[j].Metadata.ChunkIndex
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountChunks returns the total number of stored chunks.
func (s *Store) CountChunks(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return 0, err
	}
	return len(s.chunks), nil
}

// SaveEmbedding stores the record and marks its chunk processed atomically.
func (s *Store) SaveEmbedding(_ context.Context, rec *domain.EmbeddingRecord) error {
	if rec == nil || rec.ChunkID == "" {
		return fmt.Errorf("%w: embedding requires a chunk id", domain.ErrInvalidInput)
	}
	if len(rec.Vector) == 0 {
		return fmt.Errorf("%w: empty embedding vector", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}

	chunk, ok := s.chunks[rec.ChunkID]
	if !ok {
		return fmt.Errorf("%w: chunk %s", domain.ErrNotFound, rec.ChunkID)
	}
	if _, dup := s.embeddings[rec.ChunkID]; dup {
		return fmt.Errorf("%w: chunk %s already has an embedding", domain.ErrDataIntegrity, rec.ChunkID)
	}
	if dims := s.dimensions(); dims != 0 && dims != len(rec.Vector) {
		return fmt.Errorf("%w: collection has %d dimensions, got %d",
			domain.ErrDimensionMismatch, dims, len(rec.Vector))
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	stored := *rec
	stored.Vector = append([]float32(nil), rec.Vector...)
	s.embeddings[rec.ChunkID] = stored
	s.order = append(s.order, rec.ChunkID)

	chunk.Processed = true
	s.chunks[rec.ChunkID] = chunk
	return nil
}

// GetEmbeddings returns the records for the given chunk IDs.
func (s *Store) GetEmbeddings(_ context.Context, chunkIDs []string) ([]domain.EmbeddingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	var out []domain.EmbeddingRecord
	for _, id := range chunkIDs {
		if rec, ok := s.embeddings[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// AllEmbeddings returns every stored record in insertion order.
func (s *Store) AllEmbeddings(ctx context.Context) ([]domain.EmbeddingRecord, error) {
	return s.Sample(ctx, -1)
}

// Sample returns up to k records in insertion order. A negative k returns all.
func (s *Store) Sample(_ context.Context, k int) ([]domain.EmbeddingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	if k < 0 || k > len(s.order) {
		k = len(s.order)
	}
	out := make([]domain.EmbeddingRecord, 0, k)
	for _, id := range s.order[:k] {
		out = append(out, s.embeddings[id])
	}
	return out, nil
}

// CountEmbeddings returns the number of stored records.
func (s *Store) CountEmbeddings(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return 0, err
	}
	return len(s.embeddings), nil
}

// Dimensions returns the collection dimensionality, or 0 when empty.
func (s *Store) Dimensions(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return 0, err
	}
	return s.dimensions(), nil
}

func (s *Store) dimensions() int {
	if len(s.order) == 0 {
		return 0
	}
	return len(s.embeddings[s.order[0]].Vector)
}

// GetIndex returns the catalog entry, or ErrNotFound.
func (s *Store) GetIndex(_ context.Context, name string) (*domain.IndexInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	info, ok := s.indexes[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &info, nil
}

// PutIndex creates or replaces the catalog entry.
func (s *Store) PutIndex(_ context.Context, info domain.IndexInfo) error {
	if info.Name == "" {
		return fmt.Errorf("%w: index name is required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	if info.State == domain.IndexAbsent {
		delete(s.indexes, info.Name)
		return nil
	}
	s.indexes[info.Name] = info
	return nil
}

// DeleteIndex removes the entry.
func (s *Store) DeleteIndex(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	delete(s.indexes, name)
	return nil
}
