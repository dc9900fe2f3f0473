package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driving"
	"github.com/custodia-labs/chunkwise/internal/logger"
)

// Ensure RAGService implements the interface.
var _ driving.RAGService = (*RAGService)(nil)

// contextSeparator joins retrieved chunk texts.
const contextSeparator = "\n\n"

// RAGConfig holds the retrieval and sampling parameters of a RAGService.
type RAGConfig struct {
	TopK            int
	MaxContextChars int
	Generation      domain.GenerationSettings
}

// RAGService answers questions from retrieved document chunks.
type RAGService struct {
	docStore  driven.DocumentStore
	retriever *Retriever
	embedder  driven.EmbeddingService
	llm       driven.LLMService
	prompts   driven.PromptStore
	cfg       RAGConfig
}

// NewRAGService creates a new RAG service.
// embedder and llm may be nil; the operations that need them then fail
// with ErrEmbeddingUnavailable or ErrLLMUnavailable.
func NewRAGService(
	docStore driven.DocumentStore,
	retriever *Retriever,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	prompts driven.PromptStore,
	cfg RAGConfig,
) *RAGService {
	if cfg.TopK <= 0 {
		cfg.TopK = domain.DefaultTopK
	}
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = domain.DefaultMaxContextChars
	}
	return &RAGService{
		docStore:  docStore,
		retriever: retriever,
		embedder:  embedder,
		llm:       llm,
		prompts:   prompts,
		cfg:       cfg,
	}
}

// prepared is a retrieval-augmented prompt ready for generation.
type prepared struct {
	messages []domain.Turn
	sources  []domain.Source
	mode     domain.RetrievalMode
}

// Answer retrieves context for query and generates a full response.
func (s *RAGService) Answer(ctx context.Context, query string, history []domain.Turn) (*domain.Answer, error) {
	p, err := s.prepare(ctx, query, history)
	if err != nil {
		return nil, err
	}

	response, err := s.llm.Complete(ctx, p.messages, s.ragOptions())
	if err != nil {
		return nil, fmt.Errorf("generate response: %w", err)
	}

	return &domain.Answer{
		Query:    query,
		Response: response,
		Sources:  p.sources,
		Mode:     p.mode,
	}, nil
}

// Stream retrieves context for query and streams the response.
// The caller must Close the returned fragments.
func (s *RAGService) Stream(ctx context.Context, query string, history []domain.Turn) (*driving.AnswerStream, error) {
	p, err := s.prepare(ctx, query, history)
	if err != nil {
		return nil, err
	}

	fragments, err := s.llm.Stream(ctx, p.messages, s.ragOptions())
	if err != nil {
		return nil, fmt.Errorf("generate response: %w", err)
	}

	return &driving.AnswerStream{
		Query:     query,
		Sources:   p.sources,
		Mode:      p.mode,
		Fragments: fragments,
	}, nil
}

// Chat answers against caller-supplied context without retrieval.
func (s *RAGService) Chat(ctx context.Context, req driving.ChatRequest) (string, driving.FragmentIterator, error) {
	if strings.TrimSpace(req.Query) == "" {
		return "", nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	if err := domain.ValidateHistory(req.History); err != nil {
		return "", nil, err
	}
	if s.llm == nil {
		return "", nil, domain.ErrLLMUnavailable
	}

	system, err := s.systemPrompt(driven.PromptChatSystem, req.Context)
	if err != nil {
		return "", nil, err
	}
	messages := buildMessages(system, req.History, req.Query)
	opts := driven.GenerateOptions{
		MaxTokens:   s.cfg.Generation.ChatMaxTokens,
		Temperature: s.cfg.Generation.ChatTemperature,
	}

	if req.Stream {
		fragments, err := s.llm.Stream(ctx, messages, opts)
		if err != nil {
			return "", nil, fmt.Errorf("generate response: %w", err)
		}
		return "", fragments, nil
	}

	response, err := s.llm.Complete(ctx, messages, opts)
	if err != nil {
		return "", nil, fmt.Errorf("generate response: %w", err)
	}
	return response, nil, nil
}

// prepare runs every step before generation:
// embed, retrieve, resolve provenance, assemble context, build messages.
func (s *RAGService) prepare(ctx context.Context, query string, history []domain.Turn) (*prepared, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	if err := domain.ValidateHistory(history); err != nil {
		return nil, err
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	// 1. Embed the query
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// 2. Retrieve
	retrieval, err := s.retriever.Search(ctx, vector, s.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	logger.Debug("Retrieved %d chunks (%s)", len(retrieval.Hits), retrieval.Mode)

	// 3. Provenance and 4. context, in ranked order
	sources := s.resolveSources(ctx, retrieval.Hits)
	contextText, used := assembleContext(retrieval.Hits, s.cfg.MaxContextChars)

	// 5. Messages
	system, err := s.systemPrompt(driven.PromptRAGSystem, contextText)
	if err != nil {
		return nil, err
	}

	return &prepared{
		messages: buildMessages(system, history, query),
		sources:  sources[:used],
		mode:     retrieval.Mode,
	}, nil
}

// resolveSources maps hits to provenance. Lookups that fail yield
// UnknownDocument rather than failing the query.
func (s *RAGService) resolveSources(ctx context.Context, hits []domain.RetrievedChunk) []domain.Source {
	sources := make([]domain.Source, len(hits))
	for i, hit := range hits {
		src := domain.Source{
			ChunkID:      hit.ChunkID,
			DocumentName: domain.UnknownDocument,
			Text:         hit.Text,
			Score:        hit.Score,
			Metadata:     hit.Metadata,
		}

		chunk, err := s.docStore.GetChunk(ctx, hit.ChunkID)
		if err != nil {
			logger.Debug("Resolve chunk %s: %v", hit.ChunkID, err)
			sources[i] = src
			continue
		}
		src.DocumentID = chunk.DocumentID

		doc, err := s.docStore.GetDocument(ctx, chunk.DocumentID)
		if err != nil {
			logger.Debug("Resolve document %s for chunk %s: %v", chunk.DocumentID, hit.ChunkID, err)
			sources[i] = src
			continue
		}
		src.DocumentName = doc.Name
		src.URL = doc.URL
		sources[i] = src
	}
	return sources
}

// assembleContext joins hit texts while they fit in limit characters.
// The first hit is always included. Returns the context and the number of hits used.
func assembleContext(hits []domain.RetrievedChunk, limit int) (string, int) {
	var b strings.Builder
	used, chars := 0, 0
	sepChars := utf8.RuneCountInString(contextSeparator)
	for _, hit := range hits {
		size := utf8.RuneCountInString(hit.Text)
		if used > 0 {
			size += sepChars
		}
		if used > 0 && chars+size > limit {
			break
		}
		if used > 0 {
			b.WriteString(contextSeparator)
		}
		b.WriteString(hit.Text)
		chars += size
		used++
	}
	return b.String(), used
}

// systemPrompt loads a template and places the context at its first %s.
// Templates without a placeholder get the context appended.
func (s *RAGService) systemPrompt(name, contextText string) (string, error) {
	template, err := s.prompts.Load(name)
	if err != nil {
		return "", fmt.Errorf("load prompt %s: %w", name, err)
	}
	if !strings.Contains(template, "%s") {
		return template + "\n\nCONTEXT:\n" + contextText, nil
	}
	return strings.Replace(template, "%s", contextText, 1), nil
}

func (s *RAGService) ragOptions() driven.GenerateOptions {
	return driven.GenerateOptions{
		MaxTokens:   s.cfg.Generation.MaxTokens,
		Temperature: s.cfg.Generation.Temperature,
	}
}

func buildMessages(system string, history []domain.Turn, query string) []domain.Turn {
	messages := make([]domain.Turn, 0, len(history)+2)
	messages = append(messages, domain.Turn{Role: domain.RoleSystem, Content: system})
	messages = append(messages, history...)
	return append(messages, domain.Turn{Role: domain.RoleUser, Content: query})
}
