package mcp

import (
	"github.com/custodia-labs/chunkwise/internal/core/ports/driving"
)

// Ports are the services behind the MCP tools and resources.
//
// chunk_text needs Chunking and query_knowledge_base needs RAG. Ingest is
// optional and ingest_text is only registered when it is set. Without
// Document the chunkwise:// resources answer with an error.
type Ports struct {
	Chunking driving.ChunkingService
	RAG      driving.RAGService
	Ingest   driving.IngestService
	Document driving.DocumentService
}

// Validate reports the first missing required service.
func (p *Ports) Validate() error {
	switch {
	case p.Chunking == nil:
		return ErrMissingChunkingService
	case p.RAG == nil:
		return ErrMissingRAGService
	}
	return nil
}
