package tui

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driving"
)

type fragments struct {
	parts []string
	pos   int
}

func (f *fragments) Next() bool {
	if f.pos >= len(f.parts) {
		return false
	}
	f.pos++
	return true
}
func (f *fragments) Fragment() string { return f.parts[f.pos-1] }
func (f *fragments) Err() error       { return nil }
func (f *fragments) Close() error     { return nil }

// mockRAGService streams a fixed answer.
type mockRAGService struct {
	parts   []string
	sources []domain.Source
}

func (m *mockRAGService) Answer(context.Context, string, []domain.Turn) (*domain.Answer, error) {
	return nil, errors.New("not used")
}

func (m *mockRAGService) Stream(_ context.Context, q string, _ []domain.Turn) (*driving.AnswerStream, error) {
	return &driving.AnswerStream{
		Query:     q,
		Sources:   m.sources,
		Mode:      domain.RetrievalRanked,
		Fragments: &fragments{parts: m.parts},
	}, nil
}

func (m *mockRAGService) Chat(context.Context, driving.ChatRequest) (string, driving.FragmentIterator, error) {
	return "", nil, errors.New("not used")
}

// mockDocumentService serves a fixed document set.
type mockDocumentService struct {
	docs []domain.Document
}

func (m *mockDocumentService) List(context.Context) ([]domain.Document, error) { return m.docs, nil }

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) GetDetails(_ context.Context, id string) (*driving.DocumentDetails, error) {
	doc, err := m.Get(context.Background(), id)
	if err != nil {
		return nil, err
	}
	return &driving.DocumentDetails{ID: doc.ID, Name: doc.Name}, nil
}

func (m *mockDocumentService) Chunks(_ context.Context, id string) ([]domain.Chunk, error) {
	return []domain.Chunk{{ID: "c1", DocumentID: id, Text: "chunk text",
		Metadata: domain.ChunkMetadata{TotalChunks: 1}}}, nil
}

func (m *mockDocumentService) Delete(context.Context, string) error { return nil }

func TestNewPorts(t *testing.T) {
	rag := &mockRAGService{}
	docs := &mockDocumentService{}

	p := NewPorts(rag, docs)
	assert.Same(t, rag, p.RAG)
	assert.Same(t, docs, p.Document)
	assert.NoError(t, p.Validate())
}

func TestPorts_Validate(t *testing.T) {
	assert.ErrorIs(t, (&Ports{}).Validate(), ErrMissingRAGService)
	assert.ErrorIs(t, (&Ports{Document: &mockDocumentService{}}).Validate(), ErrMissingRAGService)
	assert.NoError(t, (&Ports{RAG: &mockRAGService{}}).Validate())
}
