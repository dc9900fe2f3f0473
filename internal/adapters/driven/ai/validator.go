package ai

import (
	"context"
	"time"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks provider settings before they are saved by
// building a throwaway client and pinging it. Unconfigured settings pass.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator creates a validator that waits pingTimeout per check.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{timeout: pingTimeout}
}

// ValidateEmbedding pings the embedding provider described by config.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	svc, err := CreateEmbeddingService(ctx, config)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return svc.Ping(ctx)
}

// ValidateLLM pings the generation provider described by config.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	svc, err := CreateLLMService(ctx, config)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return svc.Ping(ctx)
}
