package driven

import "github.com/custodia-labs/chunkwise/internal/core/domain"

// AIConfigValidator validates AI provider configurations by pinging the provider.
type AIConfigValidator interface {
	// ValidateEmbedding returns nil if the configuration is valid or not configured.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM returns nil if the configuration is valid or not configured.
	ValidateLLM(config *domain.LLMSettings) error
}
