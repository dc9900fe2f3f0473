// Package ollama provides an LLM service adapter using Ollama.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

const providerName = "ollama"

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig holds configuration for the Ollama LLM service.
type LLMConfig struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the LLM model to use (default: llama3.2).
	Model string

	// Timeout bounds non-streaming requests (default: 120s).
	Timeout time.Duration
}

// LLMService provides LLM operations using Ollama.
type LLMService struct {
	client       *http.Client
	streamClient *http.Client
	baseURL      string
	model        string
}

// options holds generation parameters.
type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// chatRequest is the Ollama /api/chat request format.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *options      `json:"options,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is one /api/chat response object. Streams send one per line.
type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLMService{
		client:       &http.Client{Timeout: cfg.Timeout},
		streamClient: &http.Client{},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		model:        cfg.Model,
	}
}

func (s *LLMService) buildRequest(messages []domain.Turn, opts driven.GenerateOptions, stream bool) chatRequest {
	msgs := make([]chatMessage, len(messages))
	for i, msg := range messages {
		msgs[i] = chatMessage{Role: string(msg.Role), Content: msg.Content}
	}
	req := chatRequest{Model: s.model, Messages: msgs, Stream: stream}
	if opts.MaxTokens > 0 || opts.Temperature > 0 {
		req.Options = &options{NumPredict: opts.MaxTokens, Temperature: opts.Temperature}
	}
	return req
}

func (s *LLMService) post(ctx context.Context, client *http.Client, body chatRequest) (*http.Response, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/chat", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}
	return resp, nil
}

// statusError reads a failed response. 429 wraps ErrRateLimited.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))
	var wrapped struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &wrapped) == nil && wrapped.Error != "" {
		msg = wrapped.Error
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: status %d: %s", domain.ErrRateLimited, resp.StatusCode, msg)
	}
	return fmt.Errorf("status %d: %s", resp.StatusCode, msg)
}

// Complete returns the full response for the conversation.
func (s *LLMService) Complete(ctx context.Context, messages []domain.Turn, opts driven.GenerateOptions) (string, error) {
	resp, err := s.post(ctx, s.client, s.buildRequest(messages, opts, false))
	if err != nil {
		return "", domain.NewProviderError(providerName, "complete", err)
	}
	defer resp.Body.Close()

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", domain.NewProviderError(providerName, "complete", fmt.Errorf("decode response: %w", err))
	}
	if chatResp.Error != "" {
		return "", domain.NewProviderError(providerName, "complete", fmt.Errorf("%s", chatResp.Error))
	}
	return chatResp.Message.Content, nil
}

// Stream returns an iterator over the newline-delimited JSON response.
func (s *LLMService) Stream(ctx context.Context, messages []domain.Turn, opts driven.GenerateOptions) (driven.CompletionStream, error) {
	ctx, cancel := context.WithCancel(ctx)
	resp, err := s.post(ctx, s.streamClient, s.buildRequest(messages, opts, true))
	if err != nil {
		cancel()
		return nil, domain.NewProviderError(providerName, "stream", err)
	}
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &stream{ctx: ctx, cancel: cancel, body: resp.Body, scanner: scanner}, nil
}

type stream struct {
	ctx     context.Context
	cancel  context.CancelFunc
	body    io.ReadCloser
	scanner *bufio.Scanner
	current string
	err     error
	done    bool
}

func (st *stream) Next() bool {
	if st.done {
		return false
	}
	for st.scanner.Scan() {
		line := bytes.TrimSpace(st.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var part chatResponse
		if err := json.Unmarshal(line, &part); err != nil {
			st.fail(fmt.Errorf("decode stream: %w", err))
			return false
		}
		if part.Error != "" {
			st.fail(fmt.Errorf("%s", part.Error))
			return false
		}
		if part.Message.Content != "" {
			st.current = part.Message.Content
			if part.Done {
				st.done = true
			}
			return true
		}
		if part.Done {
			st.done = true
			return false
		}
	}
	if err := st.scanner.Err(); err != nil {
		st.fail(err)
	} else if st.ctx.Err() != nil {
		st.fail(st.ctx.Err())
	}
	st.done = true
	return false
}

func (st *stream) fail(err error) {
	if ctxErr := st.ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	st.err = domain.NewProviderError(providerName, "stream", err)
	st.done = true
}

func (st *stream) Fragment() string { return st.current }

func (st *stream) Err() error { return st.err }

func (st *stream) Close() error {
	st.done = true
	st.cancel()
	return st.body.Close()
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /api/tags endpoint.
// This is a lightweight check that validates connectivity without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.NewProviderError(providerName, "ping", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.NewProviderError(providerName, "ping", statusError(resp))
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
