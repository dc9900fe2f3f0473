package domain

import (
	"context"
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file type no normaliser handles.
	ErrUnsupportedType = errors.New("unsupported type")

	// Configuration Errors.

	// ErrConfiguration indicates an invalid configuration. It fails fast and is never defaulted.
	ErrConfiguration = errors.New("configuration error")

	// ErrUnknownStrategy indicates a chunking strategy name outside the closed set.
	ErrUnknownStrategy = fmt.Errorf("%w: unknown chunking strategy", ErrConfiguration)

	// ErrInvalidChunkSize indicates a non-positive chunk size.
	ErrInvalidChunkSize = fmt.Errorf("%w: invalid chunk size", ErrConfiguration)

	// ErrInvalidOverlap indicates a negative overlap or one not smaller than the chunk size.
	ErrInvalidOverlap = fmt.Errorf("%w: invalid overlap", ErrConfiguration)

	// Provider Errors.

	// ErrProvider indicates an embedding or generation provider call failed.
	ErrProvider = errors.New("provider error")

	// ErrProviderTimeout indicates a provider call exceeded its deadline.
	ErrProviderTimeout = fmt.Errorf("%w: timeout", ErrProvider)

	// ErrRateLimited indicates the provider rejected the call with a rate limit.
	ErrRateLimited = fmt.Errorf("%w: rate limited", ErrProvider)

	// ErrEmbeddingUnavailable indicates no embedding provider is configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates no generation provider is configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// Data Integrity Errors.

	// ErrDataIntegrity indicates a write that would violate a store invariant.
	ErrDataIntegrity = errors.New("data integrity error")

	// ErrDimensionMismatch indicates a vector whose length differs from the collection.
	ErrDimensionMismatch = fmt.Errorf("%w: embedding dimension mismatch", ErrDataIntegrity)

	// ErrDuplicateName indicates an insert of a document name that already exists.
	ErrDuplicateName = fmt.Errorf("%w: duplicate document name", ErrDataIntegrity)

	// Retrieval Errors.

	// ErrIndexUnavailable indicates the named vector index is not ready.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrStoreUnavailable indicates the persistent store cannot be reached.
	// It is the only error that aborts a whole pipeline run.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ProviderError wraps a failed call to an external provider.
type ProviderError struct {
	// Provider is the provider name (openai, ollama, gemini, anthropic).
	Provider string

	// Op is the operation that failed (embed, complete, stream).
	Op string

	// Err is the underlying cause.
	Err error
}

// NewProviderError wraps err as a ProviderError. A nil err returns nil.
func NewProviderError(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Op: op, Err: err}
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is reports ErrProvider for every provider error and ErrProviderTimeout
// when the cause is a deadline.
func (e *ProviderError) Is(target error) bool {
	switch target {
	case ErrProvider:
		return true
	case ErrProviderTimeout:
		return e.Timeout()
	default:
		return false
	}
}

// Timeout returns true if the provider call ran out of time.
func (e *ProviderError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

// IsConfigurationError returns true for invalid strategies and parameters.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsProviderError returns true for failed or timed-out provider calls.
func IsProviderError(err error) bool {
	return errors.Is(err, ErrProvider)
}

// IsDataIntegrityError returns true for rejected writes.
func IsDataIntegrityError(err error) bool {
	return errors.Is(err, ErrDataIntegrity)
}
