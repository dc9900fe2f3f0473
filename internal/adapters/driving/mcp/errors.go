// Package mcp provides an MCP (Model Context Protocol) server adapter for chunkwise.
// It lets AI assistants chunk text, query the knowledge base and add documents to it.
package mcp

import "errors"

// Errors returned when the server is assembled without a required service.
var (
	ErrMissingChunkingService = errors.New("mcp: chunking service is required")
	ErrMissingRAGService      = errors.New("mcp: RAG service is required")
)
