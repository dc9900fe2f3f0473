package driven

import (
	"context"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
)

// LLMService generates text from a conversation.
// This is an optional service - when nil, queries fail with ErrLLMUnavailable.
//
// Implementations may include:
//   - OpenAI (GPT-4o)
//   - Anthropic (Claude)
//   - Gemini
//   - Ollama (local models)
type LLMService interface {
	// Complete returns the full response for the conversation.
	Complete(ctx context.Context, messages []domain.Turn, opts GenerateOptions) (string, error)

	// Stream returns an iterator over response fragments.
	// Cancelling ctx or closing the stream aborts the upstream request.
	Stream(ctx context.Context, messages []domain.Turn, opts GenerateOptions) (CompletionStream, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompletionStream is a pull iterator over generated text fragments.
// It is finite and cannot be restarted.
//
//	for s.Next() {
//		fmt.Print(s.Fragment())
//	}
//	if err := s.Err(); err != nil { ... }
type CompletionStream interface {
	// Next advances to the next fragment. Returns false at the end or on error.
	Next() bool

	// Fragment returns the current fragment.
	Fragment() string

	// Err returns the error that stopped iteration, if any.
	Err() error

	// Close aborts the stream and releases the connection.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
