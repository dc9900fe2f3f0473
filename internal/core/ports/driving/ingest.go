package driving

import (
	"context"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
)

// IngestService loads documents and prepares them for retrieval.
type IngestService interface {
	// IngestDocuments upserts the documents and runs a pipeline pass.
	IngestDocuments(ctx context.Context, docs []DocumentInput, opts IngestOptions) (*IngestReport, error)

	// IngestFiles normalises uploaded files and runs a pipeline pass.
	IngestFiles(ctx context.Context, files []domain.RawDocument, opts IngestOptions) (*IngestReport, error)

	// IngestDirectory reads every supported file in dir and runs a pipeline pass.
	IngestDirectory(ctx context.Context, dir string, opts IngestOptions) (*IngestReport, error)

	// Run chunks pending documents, embeds pending chunks and ensures the index.
	Run(ctx context.Context, opts IngestOptions) (*IngestReport, error)

	// Watch re-ingests files in dir as they change until ctx is cancelled.
	Watch(ctx context.Context, dir string, opts IngestOptions) error
}

// DocumentInput is a document supplied directly by a caller.
type DocumentInput struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Source  string `json:"source,omitempty"`
	Type    string `json:"type,omitempty"`
	URL     string `json:"url,omitempty"`
}

// IngestOptions controls a pipeline pass.
// Zero values use the configured chunking settings.
type IngestOptions struct {
	Strategy  domain.Strategy
	ChunkSize int
	Overlap   int
	Delimiter string

	// Force re-chunks and re-embeds documents that were already processed.
	Force bool
}

// IngestResult reports the outcome for one document.
type IngestResult struct {
	DocumentID string `json:"documentId"`
	Name       string `json:"name"`
	ChunkCount int    `json:"chunkCount"`

	// Skipped is true when the document was already chunked.
	Skipped bool `json:"skipped"`
}

// IngestReport summarises a pipeline pass.
type IngestReport struct {
	Results    []IngestResult    `json:"results"`
	Failed     int               `json:"failed"`
	Embedded   int               `json:"embedded"`
	EmbedFails int               `json:"embedFailures"`
	IndexState domain.IndexState `json:"indexState"`
}
