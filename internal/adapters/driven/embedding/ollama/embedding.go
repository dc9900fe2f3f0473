// Package ollama embeds text with a local Ollama server over its REST API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const providerName = "ollama"

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "nomic-embed-text"
	DefaultTimeout = 30 * time.Second
	// DefaultDimensions is the size of nomic-embed-text vectors.
	DefaultDimensions = 768
)

// Config for NewEmbeddingService. Zero fields take the defaults above,
// except Dimensions: zero there means "learn from the first response".
type Config struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	Dimensions int
}

// EmbeddingService calls POST /api/embed, which accepts a batch of inputs.
type EmbeddingService struct {
	client     *http.Client
	baseURL    string
	model      string
	dimensions atomic.Int64
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// NewEmbeddingService creates the adapter. It does not contact the server.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	cfg.BaseURL = strings.TrimRight(cmp(cfg.BaseURL, DefaultBaseURL), "/")
	cfg.Model = cmp(cfg.Model, DefaultModel)
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	s := &EmbeddingService{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
	s.dimensions.Store(int64(cfg.Dimensions))
	return s
}

func cmp(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Embed embeds a single text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, domain.NewProviderError(providerName, "embed", errors.New("no embedding returned"))
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in one request.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embedRequest{Model: s.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var out embedResponse
	if err := s.do(ctx, http.MethodPost, "/api/embed", body, &out); err != nil {
		return nil, domain.NewProviderError(providerName, "embed", err)
	}

	vectors := make([][]float32, len(out.Embeddings))
	for i, v := range out.Embeddings {
		vectors[i] = make([]float32, len(v))
		for j, f := range v {
			vectors[i][j] = float32(f)
		}
	}
	if len(vectors) > 0 {
		s.dimensions.CompareAndSwap(0, int64(len(vectors[0])))
	}
	return vectors, nil
}

// do sends a request and decodes a 200 response into out when out is set.
func (s *EmbeddingService) do(ctx context.Context, method, path string, body []byte, out any) error {
	var r io.Reader = http.NoBody
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusError turns a non-200 response into an error, preferring Ollama's
// {"error": "..."} body. 429 wraps domain.ErrRateLimited.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(raw))
	var wrapped struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &wrapped) == nil && wrapped.Error != "" {
		msg = wrapped.Error
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: status %d: %s", domain.ErrRateLimited, resp.StatusCode, msg)
	}
	return fmt.Errorf("status %d: %s", resp.StatusCode, msg)
}

// Dimensions is the configured size, or the size of the first vector
// received when none was configured.
func (s *EmbeddingService) Dimensions() int {
	return int(s.dimensions.Load())
}

func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping lists local models, which needs no inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if err := s.do(ctx, http.MethodGet, "/api/tags", nil, nil); err != nil {
		return domain.NewProviderError(providerName, "ping", err)
	}
	return nil
}

func (s *EmbeddingService) Close() error {
	return nil
}
