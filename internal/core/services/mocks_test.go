package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

// mockEmbedder implements driven.EmbeddingService with deterministic vectors.
type mockEmbedder struct {
	mu      sync.Mutex
	dims    int
	calls   [][]string
	failOn  map[int]error // batch call number (1-based) -> error
	short   int           // when > 0, return at most this many vectors
	embedFn func(text string) []float32
	onBatch func(call int)
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims, failOn: make(map[int]error)}
}

func (m *mockEmbedder) vector(text string) []float32 {
	if m.embedFn != nil {
		return m.embedFn(text)
	}
	v := make([]float32, m.dims)
	for i := range v {
		v[i] = float32(len(text)%7+i) + 1
	}
	return v
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, domain.NewProviderError("mock", "embed", errors.New("no vector"))
	}
	return vectors[0], nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]string(nil), texts...))
	call := len(m.calls)
	err := m.failOn[call]
	hook := m.onBatch
	m.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if err != nil {
		return nil, err
	}
	n := len(texts)
	if m.short > 0 && m.short < n {
		n = m.short
	}
	out := make([][]float32, n)
	for i := 0; i < n; i++ {
		out[i] = m.vector(texts[i])
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return m.dims }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockLLM implements driven.LLMService and records the last request.
type mockLLM struct {
	response   string
	fragments  []string
	err        error
	streamErr  error
	messages   []domain.Turn
	opts       driven.GenerateOptions
	streamUsed bool
}

func (m *mockLLM) Complete(_ context.Context, messages []domain.Turn, opts driven.GenerateOptions) (string, error) {
	m.messages, m.opts = messages, opts
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLM) Stream(_ context.Context, messages []domain.Turn, opts driven.GenerateOptions) (driven.CompletionStream, error) {
	m.messages, m.opts, m.streamUsed = messages, opts, true
	if m.err != nil {
		return nil, m.err
	}
	return &mockStream{fragments: m.fragments, err: m.streamErr}, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// mockStream yields fixed fragments, then err.
type mockStream struct {
	fragments []string
	err       error
	pos       int
	current   string
	closed    bool
}

func (s *mockStream) Next() bool {
	if s.closed || s.pos >= len(s.fragments) {
		return false
	}
	s.current = s.fragments[s.pos]
	s.pos++
	return true
}

func (s *mockStream) Fragment() string { return s.current }

func (s *mockStream) Err() error {
	if s.pos >= len(s.fragments) {
		return s.err
	}
	return nil
}

func (s *mockStream) Close() error {
	s.closed = true
	return nil
}

// mockPrompts implements driven.PromptStore from a map.
type mockPrompts map[string]string

func (m mockPrompts) Load(name string) (string, error) {
	if p, ok := m[name]; ok {
		return p, nil
	}
	return "", domain.ErrNotFound
}

func (m mockPrompts) Reload() {}

func defaultPrompts() mockPrompts {
	return mockPrompts{
		driven.PromptRAGSystem:  "Answer from the context.\nCONTEXT:\n%s",
		driven.PromptChatSystem: "Chat using: %s",
	}
}

// mockIndex implements driven.VectorIndex with canned results.
type mockIndex struct {
	hits      []driven.VectorHit
	searchErr error
	ensureErr error
	state     domain.IndexState
	ensured   int
	asked     int
}

func (m *mockIndex) EnsureIndex(_ context.Context, name string) (domain.IndexInfo, error) {
	m.ensured++
	if m.ensureErr != nil {
		return domain.IndexInfo{Name: name, State: domain.IndexAbsent}, m.ensureErr
	}
	m.state = domain.IndexReady
	return domain.IndexInfo{Name: name, State: domain.IndexReady}, nil
}

func (m *mockIndex) Rebuild(ctx context.Context, name string) (domain.IndexInfo, error) {
	return m.EnsureIndex(ctx, name)
}

func (m *mockIndex) State(_ context.Context, name string) (domain.IndexInfo, error) {
	return domain.IndexInfo{Name: name, State: m.state}, nil
}

func (m *mockIndex) Search(_ context.Context, _ string, _ []float32, numCandidates int) ([]driven.VectorHit, error) {
	m.asked = numCandidates
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.hits, nil
}

func (m *mockIndex) Close() error { return nil }

// mockConnector implements driven.Connector over fixed documents and changes.
type mockConnector struct {
	docs        []domain.RawDocument
	changes     []domain.RawDocumentChange
	syncErr     error
	validateErr error
	closed      bool
}

func (m *mockConnector) Type() string { return "mock" }

func (m *mockConnector) Validate(_ context.Context) error { return m.validateErr }

func (m *mockConnector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		if m.syncErr != nil {
			errs <- m.syncErr
			return
		}
		for _, doc := range m.docs {
			select {
			case <-ctx.Done():
				return
			case docs <- doc:
			}
		}
	}()

	return docs, errs
}

func (m *mockConnector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	changes := make(chan domain.RawDocumentChange)
	go func() {
		defer close(changes)
		for _, c := range m.changes {
			select {
			case <-ctx.Done():
				return
			case changes <- c:
			}
		}
	}()
	return changes, nil
}

func (m *mockConnector) Close() error {
	m.closed = true
	return nil
}

// textNormalisers implements driven.NormaliserRegistry for .txt files only.
type textNormalisers struct{}

func (textNormalisers) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if !strings.HasSuffix(raw.Name, ".txt") {
		return nil, domain.ErrUnsupportedType
	}
	return &driven.NormaliseResult{Document: domain.Document{
		Name:    raw.Name,
		Content: string(raw.Content),
		Source:  raw.Source,
		Type:    "txt",
		Path:    raw.URI,
	}}, nil
}

func (textNormalisers) Register(driven.Normaliser) {}

func (textNormalisers) Supports(name string) bool { return strings.HasSuffix(name, ".txt") }
