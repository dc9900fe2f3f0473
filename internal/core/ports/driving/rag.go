package driving

import (
	"context"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
)

// RAGService answers questions from the stored documents.
type RAGService interface {
	// Answer retrieves context for query and generates a full response.
	Answer(ctx context.Context, query string, history []domain.Turn) (*domain.Answer, error)

	// Stream retrieves context for query and streams the response.
	Stream(ctx context.Context, query string, history []domain.Turn) (*AnswerStream, error)

	// Chat answers against caller-supplied context without retrieval.
	// Exactly one of the returned values is set, depending on req.Stream.
	Chat(ctx context.Context, req ChatRequest) (string, FragmentIterator, error)
}

// ChatRequest is a direct chat request with caller-held context.
type ChatRequest struct {
	Query   string
	Context string
	History []domain.Turn
	Stream  bool
}

// AnswerStream is a streamed answer. Sources are known before the first fragment.
type AnswerStream struct {
	Query     string
	Sources   []domain.Source
	Mode      domain.RetrievalMode
	Fragments FragmentIterator
}

// FragmentIterator is a lazy, finite pull iterator over response fragments.
type FragmentIterator interface {
	Next() bool
	Fragment() string
	Err() error
	Close() error
}
