package api

import (
	"context"
	"errors"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driving"
)

type mockChunking struct {
	last driving.ChunkRequest
	err  error
}

func (m *mockChunking) Chunk(_ context.Context, req driving.ChunkRequest) ([]driving.ChunkPreview, error) {
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	return []driving.ChunkPreview{
		{ID: "chunk_0", Text: req.Text, Strategy: req.Strategy, Metadata: driving.PreviewMetadata{ChunkSize: req.ChunkSize}},
	}, nil
}

type mockIngest struct {
	docs  []driving.DocumentInput
	files []domain.RawDocument
	opts  driving.IngestOptions
	err   error
}

func (m *mockIngest) report(names ...string) *driving.IngestReport {
	r := &driving.IngestReport{Embedded: len(names), IndexState: domain.IndexReady}
	for _, n := range names {
		r.Results = append(r.Results, driving.IngestResult{DocumentID: "id-" + n, Name: n, ChunkCount: 1})
	}
	return r
}

func (m *mockIngest) IngestDocuments(_ context.Context, docs []driving.DocumentInput, opts driving.IngestOptions) (*driving.IngestReport, error) {
	m.docs, m.opts = docs, opts
	if m.err != nil {
		return nil, m.err
	}
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
	}
	return m.report(names...), nil
}

func (m *mockIngest) IngestFiles(_ context.Context, files []domain.RawDocument, opts driving.IngestOptions) (*driving.IngestReport, error) {
	m.files, m.opts = files, opts
	if m.err != nil {
		return nil, m.err
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return m.report(names...), nil
}

func (m *mockIngest) IngestDirectory(context.Context, string, driving.IngestOptions) (*driving.IngestReport, error) {
	return nil, errors.New("not used")
}

func (m *mockIngest) Run(context.Context, driving.IngestOptions) (*driving.IngestReport, error) {
	return nil, errors.New("not used")
}

func (m *mockIngest) Watch(context.Context, string, driving.IngestOptions) error { return nil }

// sliceIterator yields fixed fragments, then err.
type sliceIterator struct {
	fragments []string
	pos       int
	err       error
	closed    bool
}

func (it *sliceIterator) Next() bool {
	if it.pos >= len(it.fragments) {
		return false
	}
	it.pos++
	return true
}

func (it *sliceIterator) Fragment() string { return it.fragments[it.pos-1] }

func (it *sliceIterator) Err() error {
	if it.pos < len(it.fragments) {
		return nil
	}
	return it.err
}

func (it *sliceIterator) Close() error {
	it.closed = true
	return nil
}

type mockRAG struct {
	answer   *domain.Answer
	stream   *driving.AnswerStream
	chat     string
	chatIter *sliceIterator
	err      error

	query   string
	history []domain.Turn
	chatReq driving.ChatRequest
}

func (m *mockRAG) Answer(_ context.Context, query string, history []domain.Turn) (*domain.Answer, error) {
	m.query, m.history = query, history
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

func (m *mockRAG) Stream(_ context.Context, query string, history []domain.Turn) (*driving.AnswerStream, error) {
	m.query, m.history = query, history
	if m.err != nil {
		return nil, m.err
	}
	return m.stream, nil
}

func (m *mockRAG) Chat(_ context.Context, req driving.ChatRequest) (string, driving.FragmentIterator, error) {
	m.chatReq = req
	if m.err != nil {
		return "", nil, m.err
	}
	if req.Stream {
		return "", m.chatIter, nil
	}
	return m.chat, nil, nil
}

type mockDocuments struct {
	docs    map[string]*driving.DocumentDetails
	chunks  map[string][]domain.Chunk
	deleted []string
}

func (m *mockDocuments) List(context.Context) ([]domain.Document, error) {
	out := make([]domain.Document, 0, len(m.docs))
	for id, d := range m.docs {
		out = append(out, domain.Document{ID: id, Name: d.Name})
	}
	return out, nil
}

func (m *mockDocuments) Get(_ context.Context, id string) (*domain.Document, error) {
	d, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.Document{ID: id, Name: d.Name}, nil
}

func (m *mockDocuments) GetDetails(_ context.Context, id string) (*driving.DocumentDetails, error) {
	d, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return d, nil
}

func (m *mockDocuments) Chunks(_ context.Context, id string) ([]domain.Chunk, error) {
	if _, ok := m.docs[id]; !ok {
		return nil, domain.ErrNotFound
	}
	return m.chunks[id], nil
}

func (m *mockDocuments) Delete(_ context.Context, id string) error {
	if _, ok := m.docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.docs, id)
	m.deleted = append(m.deleted, id)
	return nil
}
