package driving

import "github.com/custodia-labs/chunkwise/internal/core/domain"

// SettingsService reads and edits chunkwise configuration.
type SettingsService interface {
	// Get returns the stored settings with CHUNKWISE_* environment
	// overrides applied on top.
	Get() (*domain.AppSettings, error)
	Save(settings *domain.AppSettings) error
	GetDefaults() domain.AppSettings

	// SetValue parses value for the dot-path key and rejects anything
	// Validate would refuse.
	SetValue(key, value string) error

	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// SetAPIKey updates every role currently served by provider.
	SetAPIKey(provider domain.AIProvider, apiKey string) error

	// Validate checks chunking and retrieval bounds.
	Validate() error

	// ValidateEmbeddingConfig and ValidateLLMConfig build the configured
	// provider and ping it.
	ValidateEmbeddingConfig() error
	ValidateLLMConfig() error
}
