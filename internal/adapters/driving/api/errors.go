// Package api exposes the chunking, ingest and question answering services
// over an HTTP/JSON interface built on chi.
package api

import (
	"errors"
	"net/http"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/logger"
)

// Errors returned when the server is assembled without a required service.
var (
	ErrMissingChunkingService = errors.New("api: chunking service is required")
	ErrMissingIngestService   = errors.New("api: ingest service is required")
	ErrMissingRAGService      = errors.New("api: RAG service is required")
)

// Public messages. Internal detail is logged, never returned.
const (
	msgInternal         = "internal server error"
	msgUpstreamTimeout  = "upstream timeout"
	msgGenerateFailed   = "failed to generate response"
	msgInvalidBody      = "invalid request body"
	msgNotFound         = "not found"
	msgProviderMissing  = "no AI provider configured"
	msgStoreUnavailable = "store unavailable"
)

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// classify maps a service error to an HTTP status and a message safe to show.
// Validation errors carry their own message so callers can see the offending field.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), domain.IsConfigurationError(err):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, domain.ErrProviderTimeout):
		return http.StatusGatewayTimeout, msgUpstreamTimeout
	case errors.Is(err, domain.ErrProvider):
		return http.StatusBadGateway, msgGenerateFailed
	case errors.Is(err, domain.ErrEmbeddingUnavailable), errors.Is(err, domain.ErrLLMUnavailable):
		return http.StatusServiceUnavailable, msgProviderMissing
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, msgStoreUnavailable
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// writeError logs err and writes its public form.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Error("%s %s: %v", r.Method, r.URL.Path, err)
	} else {
		logger.Debug("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
