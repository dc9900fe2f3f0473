// Package openai provides an LLM service adapter using the OpenAI API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

const providerName = "openai"

// Default configuration values.
const (
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 120 * time.Second
	DefaultMaxRetries = 2
)

// LLMConfig holds configuration for the OpenAI LLM service.
type LLMConfig struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL overrides the API base URL for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the LLM model to use (default: gpt-4o-mini).
	Model string

	// Timeout bounds non-streaming requests (default: 120s).
	Timeout time.Duration

	// MaxRetries is the SDK retry count. Negative disables retries.
	MaxRetries int
}

// LLMService provides LLM operations using the OpenAI API.
type LLMService struct {
	client  openai.Client
	timeout time.Duration
	model   string
}

// NewLLMService creates a new OpenAI LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	switch {
	case cfg.MaxRetries == 0:
		cfg.MaxRetries = DefaultMaxRetries
	case cfg.MaxRetries < 0:
		cfg.MaxRetries = 0
	}

	// The client carries no timeout so streams are bounded by ctx alone;
	// Complete applies the timeout per request.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{}),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &LLMService{
		client:  openai.NewClient(opts...),
		timeout: cfg.Timeout,
		model:   cfg.Model,
	}, nil
}

func (s *LLMService) params(messages []domain.Turn, opts driven.GenerateOptions) openai.ChatCompletionNewParams {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case domain.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	p := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(s.model),
		Messages: msgs,
	}
	if opts.MaxTokens > 0 {
		p.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}
	if opts.Temperature > 0 {
		p.Temperature = openai.Float(opts.Temperature)
	}
	return p
}

// Complete returns the full response for the conversation.
func (s *LLMService) Complete(ctx context.Context, messages []domain.Turn, opts driven.GenerateOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	completion, err := s.client.Chat.Completions.New(ctx, s.params(messages, opts))
	if err != nil {
		return "", domain.NewProviderError(providerName, "complete", classify(err))
	}
	if len(completion.Choices) == 0 {
		return "", domain.NewProviderError(providerName, "complete", errors.New("no choices in response"))
	}
	return completion.Choices[0].Message.Content, nil
}

// Stream returns an iterator over content deltas.
func (s *LLMService) Stream(ctx context.Context, messages []domain.Turn, opts driven.GenerateOptions) (driven.CompletionStream, error) {
	ctx, cancel := context.WithCancel(ctx)
	st := s.client.Chat.Completions.NewStreaming(ctx, s.params(messages, opts))
	if err := st.Err(); err != nil {
		cancel()
		_ = st.Close()
		return nil, domain.NewProviderError(providerName, "stream", classify(err))
	}
	return &stream{ctx: ctx, cancel: cancel, sse: st}, nil
}

type stream struct {
	ctx     context.Context
	cancel  context.CancelFunc
	sse     *ssestream.Stream[openai.ChatCompletionChunk]
	current string
	err     error
	done    bool
}

func (st *stream) Next() bool {
	if st.done {
		return false
	}
	for st.sse.Next() {
		chunk := st.sse.Current()
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		st.current = chunk.Choices[0].Delta.Content
		return true
	}
	st.done = true
	if err := st.sse.Err(); err != nil {
		if ctxErr := st.ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		st.err = domain.NewProviderError(providerName, "stream", classify(err))
	}
	return false
}

func (st *stream) Fragment() string { return st.current }

func (st *stream) Err() error { return st.err }

func (st *stream) Close() error {
	st.done = true
	st.cancel()
	return st.sse.Close()
}

// classify wraps SDK errors so rate limits are detectable with errors.Is.
func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	}
	return err
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key by listing models, without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.Models.List(ctx); err != nil {
		return domain.NewProviderError(providerName, "ping", classify(err))
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
