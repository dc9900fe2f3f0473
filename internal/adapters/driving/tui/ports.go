// Package tui is the interactive terminal client: a chat over the indexed
// documents plus a browser for documents and their chunks.
package tui

import (
	"errors"

	"github.com/custodia-labs/chunkwise/internal/core/ports/driving"
)

var (
	// ErrInvalidPorts is returned by NewApp for a nil Ports.
	ErrInvalidPorts = errors.New("tui: invalid ports configuration")
	// ErrMissingRAGService means Ports.RAG was not set.
	ErrMissingRAGService = errors.New("tui: rag service is required")
)

// Ports are the services the TUI drives. Document is optional; without it
// the Documents entry is left out of the menu.
type Ports struct {
	RAG      driving.RAGService
	Document driving.DocumentService
}

// NewPorts bundles the services for NewApp.
func NewPorts(rag driving.RAGService, documents driving.DocumentService) *Ports {
	return &Ports{RAG: rag, Document: documents}
}

// Validate reports a missing required service.
func (p *Ports) Validate() error {
	if p.RAG == nil {
		return ErrMissingRAGService
	}
	return nil
}
