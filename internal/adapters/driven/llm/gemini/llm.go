// Package gemini provides an LLM service adapter using the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

const providerName = "gemini"

// DefaultModel is the default Gemini chat model.
const DefaultModel = "gemini-1.5-flash-latest"

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// Model is the LLM model to use (default: gemini-1.5-flash-latest).
	Model string
}

// chatRequest is a conversation split the way the chat session expects it.
type chatRequest struct {
	system  string
	history []*genai.Content
	prompt  string
	opts    driven.GenerateOptions
}

// responseIterator is satisfied by *genai.GenerateContentResponseIterator.
type responseIterator interface {
	Next() (*genai.GenerateContentResponse, error)
}

// backend sends a chat request. The default implementation is the genai client.
type backend interface {
	send(ctx context.Context, req chatRequest) (*genai.GenerateContentResponse, error)
	sendStream(ctx context.Context, req chatRequest) responseIterator
}

// LLMService provides LLM operations using Gemini.
type LLMService struct {
	client  *genai.Client
	model   string
	backend backend
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}

	return &LLMService{
		client:  client,
		model:   cfg.Model,
		backend: &clientBackend{client: client, model: cfg.Model},
	}, nil
}

// splitTurns moves system turns into the system instruction and sends the
// final user turn as the prompt. Assistant turns become "model" history.
func splitTurns(messages []domain.Turn, opts driven.GenerateOptions) chatRequest {
	req := chatRequest{opts: opts}
	var system []string
	last := -1
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			last = i
			break
		}
	}
	for i, m := range messages {
		switch {
		case m.Role == domain.RoleSystem:
			system = append(system, m.Content)
		case i == last:
			req.prompt = m.Content
		case m.Role == domain.RoleAssistant:
			req.history = append(req.history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			req.history = append(req.history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	req.system = strings.Join(system, "\n\n")
	return req
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

// Complete returns the full response for the conversation.
func (s *LLMService) Complete(ctx context.Context, messages []domain.Turn, opts driven.GenerateOptions) (string, error) {
	resp, err := s.backend.send(ctx, splitTurns(messages, opts))
	if err != nil {
		return "", domain.NewProviderError(providerName, "complete", classify(err))
	}
	return responseText(resp), nil
}

// Stream returns an iterator over streamed response chunks.
func (s *LLMService) Stream(ctx context.Context, messages []domain.Turn, opts driven.GenerateOptions) (driven.CompletionStream, error) {
	ctx, cancel := context.WithCancel(ctx)
	return &stream{ctx: ctx, cancel: cancel, it: s.backend.sendStream(ctx, splitTurns(messages, opts))}, nil
}

type stream struct {
	ctx     context.Context
	cancel  context.CancelFunc
	it      responseIterator
	current string
	err     error
	done    bool
}

func (st *stream) Next() bool {
	for !st.done {
		resp, err := st.it.Next()
		if errors.Is(err, iterator.Done) {
			st.done = true
			return false
		}
		if err != nil {
			if ctxErr := st.ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			st.err = domain.NewProviderError(providerName, "stream", classify(err))
			st.done = true
			return false
		}
		if text := responseText(resp); text != "" {
			st.current = text
			return true
		}
	}
	return false
}

func (st *stream) Fragment() string { return st.current }

func (st *stream) Err() error { return st.err }

func (st *stream) Close() error {
	st.done = true
	st.cancel()
	return nil
}

// classify marks quota errors with ErrRateLimited.
func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	}
	if strings.Contains(err.Error(), "RESOURCE_EXHAUSTED") {
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	}
	return err
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key by reading the first listed model.
func (s *LLMService) Ping(ctx context.Context) error {
	it := s.client.ListModels(ctx)
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return domain.NewProviderError(providerName, "ping", classify(err))
	}
	return nil
}

// Close releases the underlying client.
func (s *LLMService) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// clientBackend runs requests through a genai chat session.
type clientBackend struct {
	client *genai.Client
	model  string
}

func (b *clientBackend) session(req chatRequest) *genai.ChatSession {
	m := b.client.GenerativeModel(b.model)
	if req.system != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.system)}}
	}
	if req.opts.Temperature > 0 {
		m.SetTemperature(float32(req.opts.Temperature))
	}
	if req.opts.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(req.opts.MaxTokens))
	}
	cs := m.StartChat()
	cs.History = req.history
	return cs
}

func (b *clientBackend) send(ctx context.Context, req chatRequest) (*genai.GenerateContentResponse, error) {
	return b.session(req).SendMessage(ctx, genai.Text(req.prompt))
}

func (b *clientBackend) sendStream(ctx context.Context, req chatRequest) responseIterator {
	return b.session(req).SendMessageStream(ctx, genai.Text(req.prompt))
}
