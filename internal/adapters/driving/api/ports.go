package api

import (
	"github.com/custodia-labs/chunkwise/internal/core/ports/driving"
)

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	Chunking driving.ChunkingService
	Ingest   driving.IngestService
	RAG      driving.RAGService

	// Documents is optional; without it the /api/documents routes are not mounted.
	Documents driving.DocumentService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Chunking == nil {
		return ErrMissingChunkingService
	}
	if p.Ingest == nil {
		return ErrMissingIngestService
	}
	if p.RAG == nil {
		return ErrMissingRAGService
	}
	return nil
}
