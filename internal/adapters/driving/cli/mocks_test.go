package cli

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driving"
)

var errMock = errors.New("mock failure")

// MockChunkingService implements driving.ChunkingService for tests.
type MockChunkingService struct {
	ChunkFunc func(ctx context.Context, req driving.ChunkRequest) ([]driving.ChunkPreview, error)
	LastReq   driving.ChunkRequest
}

func (m *MockChunkingService) Chunk(ctx context.Context, req driving.ChunkRequest) ([]driving.ChunkPreview, error) {
	m.LastReq = req
	if m.ChunkFunc != nil {
		return m.ChunkFunc(ctx, req)
	}
	return []driving.ChunkPreview{
		{ID: "c0", Text: "first part", Strategy: req.Strategy, Metadata: driving.PreviewMetadata{Index: 0}},
		{ID: "c1", Text: "second part", Strategy: req.Strategy, Metadata: driving.PreviewMetadata{Index: 1}},
	}, nil
}

// MockIngestService implements driving.IngestService for tests.
type MockIngestService struct {
	Err     error
	LastDir string
	LastOpt driving.IngestOptions
	Watched bool
}

func (m *MockIngestService) report() *driving.IngestReport {
	return &driving.IngestReport{
		Results: []driving.IngestResult{
			{DocumentID: "doc-1", Name: "guide.md", ChunkCount: 3},
			{DocumentID: "doc-2", Name: "faq.pdf", Skipped: true},
		},
		Embedded:   3,
		IndexState: domain.IndexReady,
	}
}

func (m *MockIngestService) IngestDocuments(context.Context, []driving.DocumentInput, driving.IngestOptions) (*driving.IngestReport, error) {
	return m.report(), m.Err
}

func (m *MockIngestService) IngestFiles(context.Context, []domain.RawDocument, driving.IngestOptions) (*driving.IngestReport, error) {
	return m.report(), m.Err
}

func (m *MockIngestService) IngestDirectory(_ context.Context, dir string, opts driving.IngestOptions) (*driving.IngestReport, error) {
	m.LastDir = dir
	m.LastOpt = opts
	if m.Err != nil {
		return nil, m.Err
	}
	return m.report(), nil
}

func (m *MockIngestService) Run(_ context.Context, opts driving.IngestOptions) (*driving.IngestReport, error) {
	m.LastOpt = opts
	return m.report(), m.Err
}

func (m *MockIngestService) Watch(context.Context, string, driving.IngestOptions) error {
	m.Watched = true
	return nil
}

// MockFragments is a fixed FragmentIterator.
type MockFragments struct {
	Parts   []string
	Failure error
	pos     int
	Closed  bool
}

func (f *MockFragments) Next() bool {
	if f.pos >= len(f.Parts) {
		return false
	}
	f.pos++
	return true
}

func (f *MockFragments) Fragment() string { return f.Parts[f.pos-1] }
func (f *MockFragments) Err() error       { return f.Failure }
func (f *MockFragments) Close() error {
	f.Closed = true
	return nil
}

// MockRAGService implements driving.RAGService for tests.
type MockRAGService struct {
	Mode      domain.RetrievalMode
	Err       error
	StreamErr error
	Opened    *MockFragments
}

func (m *MockRAGService) sources() []domain.Source {
	return []domain.Source{
		{ChunkID: "c1", DocumentID: "doc-1", DocumentName: "guide.md", URL: "https://example.com/guide", Score: 0.91},
	}
}

func (m *MockRAGService) mode() domain.RetrievalMode {
	if m.Mode == "" {
		return domain.RetrievalRanked
	}
	return m.Mode
}

func (m *MockRAGService) Answer(_ context.Context, query string, _ []domain.Turn) (*domain.Answer, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &domain.Answer{Query: query, Response: "Chunks overlap by 50 characters.", Sources: m.sources(), Mode: m.mode()}, nil
}

func (m *MockRAGService) Stream(_ context.Context, query string, _ []domain.Turn) (*driving.AnswerStream, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.Opened = &MockFragments{Parts: []string{"Chunks ", "overlap."}, Failure: m.StreamErr}
	return &driving.AnswerStream{Query: query, Sources: m.sources(), Mode: m.mode(), Fragments: m.Opened}, nil
}

func (m *MockRAGService) Chat(context.Context, driving.ChatRequest) (string, driving.FragmentIterator, error) {
	return "ok", nil, m.Err
}

// MockDocumentService implements driving.DocumentService for tests.
type MockDocumentService struct {
	Docs    []domain.Document
	Err     error
	Deleted []string
}

func (m *MockDocumentService) List(context.Context) ([]domain.Document, error) {
	return m.Docs, m.Err
}

func (m *MockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Docs {
		if m.Docs[i].ID == id {
			return &m.Docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockDocumentService) GetDetails(ctx context.Context, id string) (*driving.DocumentDetails, error) {
	doc, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &driving.DocumentDetails{
		ID:         doc.ID,
		Name:       doc.Name,
		Type:       doc.Type,
		URL:        doc.URL,
		Chunked:    doc.Chunked,
		ChunkCount: 2,
		Embedded:   1,
		Characters: len([]rune(doc.Content)),
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}, nil
}

func (m *MockDocumentService) Chunks(ctx context.Context, id string) ([]domain.Chunk, error) {
	doc, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !doc.Chunked {
		return nil, nil
	}
	return []domain.Chunk{
		{ID: "c1", DocumentID: id, Text: "Chunks overlap.", Processed: true,
			Metadata: domain.ChunkMetadata{ChunkIndex: 0, TotalChunks: 2}},
		{ID: "c2", DocumentID: id, Text: "Sizes are in characters.",
			Metadata: domain.ChunkMetadata{ChunkIndex: 1, TotalChunks: 2}},
	}, nil
}

func (m *MockDocumentService) Delete(_ context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Deleted = append(m.Deleted, id)
	return nil
}

// MockIndexService implements driving.IndexService for tests.
type MockIndexService struct {
	Err     error
	Rebuilt bool
}

func (m *MockIndexService) Status(context.Context) (*driving.IndexStatus, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &driving.IndexStatus{
		Index:      domain.IndexInfo{Name: domain.DefaultIndexName, State: domain.IndexReady, Dimensions: 768, Vectors: 40},
		Chunks:     42,
		Embeddings: 40,
	}, nil
}

func (m *MockIndexService) Rebuild(context.Context) (domain.IndexInfo, error) {
	if m.Err != nil {
		return domain.IndexInfo{}, m.Err
	}
	m.Rebuilt = true
	return domain.IndexInfo{Name: domain.DefaultIndexName, State: domain.IndexReady, Vectors: 42}, nil
}

// MockSettingsService implements driving.SettingsService for tests.
type MockSettingsService struct {
	Settings domain.AppSettings
	Values   map[string]string
	SetErr   error
}

func (m *MockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.Settings
	return &s, nil
}

func (m *MockSettingsService) Save(s *domain.AppSettings) error {
	m.Settings = *s
	return nil
}

func (m *MockSettingsService) SetValue(key, value string) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	if m.Values == nil {
		m.Values = map[string]string{}
	}
	m.Values[key] = value
	return nil
}

func (m *MockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, _ string) error {
	m.Settings.Embedding.Provider = p
	m.Settings.Embedding.Model = model
	return nil
}

func (m *MockSettingsService) SetLLMProvider(p domain.AIProvider, model, _ string) error {
	m.Settings.LLM.Provider = p
	m.Settings.LLM.Model = model
	return nil
}

func (m *MockSettingsService) SetAPIKey(domain.AIProvider, string) error { return nil }
func (m *MockSettingsService) Validate() error                          { return nil }
func (m *MockSettingsService) GetDefaults() domain.AppSettings          { return domain.DefaultAppSettings() }
func (m *MockSettingsService) ValidateEmbeddingConfig() error           { return nil }
func (m *MockSettingsService) ValidateLLMConfig() error                 { return nil }

// MockScheduler implements driving.Scheduler for tests.
type MockScheduler struct {
	Started chan struct{}
	Stopped bool
}

func (m *MockScheduler) Start(ctx context.Context) error {
	if m.Started != nil {
		close(m.Started)
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *MockScheduler) Stop() error {
	m.Stopped = true
	return nil
}

// testServices is the service set installed by setupTestServices.
type testServices struct {
	Chunking  *MockChunkingService
	Ingest    *MockIngestService
	RAG       *MockRAGService
	Documents *MockDocumentService
	Index     *MockIndexService
	Settings  *MockSettingsService
}

func newTestServices() *testServices {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &testServices{
		Chunking: &MockChunkingService{},
		Ingest:   &MockIngestService{},
		RAG:      &MockRAGService{},
		Documents: &MockDocumentService{Docs: []domain.Document{
			{ID: "doc-1", Name: "guide.md", Content: "Chunks overlap. Sizes are in characters.", Type: "md",
				URL: "https://example.com/guide", Chunked: true, CreatedAt: created, UpdatedAt: created},
			{ID: "doc-2", Name: "faq.pdf", Content: "Pending.", Type: "pdf", CreatedAt: created, UpdatedAt: created},
		}},
		Index:    &MockIndexService{},
		Settings: &MockSettingsService{Settings: domain.DefaultAppSettings()},
	}
}

// install sets the services for the next command.
func (s *testServices) install() {
	SetServices(&Services{
		Chunking:  s.Chunking,
		Ingest:    s.Ingest,
		RAG:       s.RAG,
		Documents: s.Documents,
		Index:     s.Index,
		Settings:  s.Settings,
	})
}

// setupTestServices installs default mocks and returns a cleanup function.
func setupTestServices() func() {
	newTestServices().install()
	return func() {
		_ = releaseServices()
	}
}

// execute runs the root command with args and returns its output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
