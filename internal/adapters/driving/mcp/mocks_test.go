package mcp

import (
	"context"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driving"
)

// mockChunkingService is a mock implementation of driving.ChunkingService.
type mockChunkingService struct {
	chunks []driving.ChunkPreview
	last   driving.ChunkRequest
	err    error
}

func (m *mockChunkingService) Chunk(_ context.Context, req driving.ChunkRequest) ([]driving.ChunkPreview, error) {
	m.last = req
	return m.chunks, m.err
}

// mockRAGService is a mock implementation of driving.RAGService.
type mockRAGService struct {
	answer *domain.Answer
	err    error
}

func (m *mockRAGService) Answer(_ context.Context, _ string, _ []domain.Turn) (*domain.Answer, error) {
	return m.answer, m.err
}

func (m *mockRAGService) Stream(_ context.Context, _ string, _ []domain.Turn) (*driving.AnswerStream, error) {
	return nil, m.err
}

func (m *mockRAGService) Chat(_ context.Context, _ driving.ChatRequest) (string, driving.FragmentIterator, error) {
	return "", nil, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	report *driving.IngestReport
	docs   []driving.DocumentInput
	err    error
}

func (m *mockIngestService) IngestDocuments(
	_ context.Context,
	docs []driving.DocumentInput,
	_ driving.IngestOptions,
) (*driving.IngestReport, error) {
	m.docs = docs
	return m.report, m.err
}

func (m *mockIngestService) IngestFiles(
	_ context.Context,
	_ []domain.RawDocument,
	_ driving.IngestOptions,
) (*driving.IngestReport, error) {
	return m.report, m.err
}

func (m *mockIngestService) IngestDirectory(_ context.Context, _ string, _ driving.IngestOptions) (*driving.IngestReport, error) {
	return m.report, m.err
}

func (m *mockIngestService) Run(_ context.Context, _ driving.IngestOptions) (*driving.IngestReport, error) {
	return m.report, m.err
}

func (m *mockIngestService) Watch(_ context.Context, _ string, _ driving.IngestOptions) error {
	return m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	details   *driving.DocumentDetails
	err       error
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) GetDetails(_ context.Context, _ string) (*driving.DocumentDetails, error) {
	if m.details == nil {
		return nil, domain.ErrNotFound
	}
	return m.details, m.err
}

func (m *mockDocumentService) Chunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return nil, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

func requiredPorts() *Ports {
	return &Ports{Chunking: &mockChunkingService{}, RAG: &mockRAGService{}}
}
