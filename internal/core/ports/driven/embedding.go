package driven

import "context"

// EmbeddingService turns text into vectors. It is optional: without one,
// ingest stops after chunking.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input, in input order. A provider
	// that drops inputs yields a shorter slice; callers must check.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is 0 when the model size is not known up front.
	Dimensions() int
	ModelName() string

	// Ping performs a minimal request to confirm credentials and reachability.
	Ping(ctx context.Context) error
	Close() error
}
