// Package driven holds the interfaces core services call out through:
// persistence, vector search, text extraction, chunking stages,
// configuration and the AI providers.
//
// Adapters under internal/adapters/driven, internal/normalisers and
// internal/postprocessors implement them. This package imports only
// domain.
//
// EmbeddingService and LLMService may be nil when no provider is
// configured. Ingest then stops after chunking, and queries fail with
// domain.ErrEmbeddingUnavailable or domain.ErrLLMUnavailable.
package driven
