// Package ai builds embedding and generation providers from settings.
// Every service it returns is wrapped with the provider rate limiter and
// the per-call deadlines in guard.go.
package ai

import (
	"context"
	"fmt"
	"time"

	geminiembed "github.com/custodia-labs/chunkwise/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/chunkwise/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/chunkwise/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/chunkwise/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/chunkwise/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/chunkwise/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/chunkwise/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
	"github.com/custodia-labs/chunkwise/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	Warnings         []string // Non-fatal issues that left a service unset.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		if err := r.EmbeddingService.Close(); err != nil {
			logger.Warn("closing embedding service: %v", err)
		}
	}
	if r.LLMService != nil {
		if err := r.LLMService.Close(); err != nil {
			logger.Warn("closing LLM service: %v", err)
		}
	}
}

// Init builds both services from settings. When ping is true each service
// is validated first. Failures are recorded as warnings and leave the
// service nil, so commands that do not need it still run.
func Init(ctx context.Context, settings *domain.AppSettings, ping bool) *InitResult {
	result := &InitResult{}

	create := CreateEmbeddingService
	createLLM := CreateLLMService
	if ping {
		create = CreateAndValidateEmbeddingService
		createLLM = CreateAndValidateLLMService
	}

	embedding, err := create(ctx, &settings.Embedding)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	} else if embedding != nil {
		limiter := NewRateLimiter(settings.Embedding.Provider, settings.Embedding.RequestsPerSecond)
		result.EmbeddingService = GuardEmbedding(embedding, settings.Embedding.Provider, limiter)
	}

	llm, err := createLLM(ctx, &settings.LLM)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	} else if llm != nil {
		limiter := NewRateLimiter(settings.LLM.Provider, 0)
		result.LLMService = GuardLLM(llm, settings.LLM.Provider, limiter)
	}

	for _, w := range result.Warnings {
		logger.Warn("%s", w)
	}
	return result
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'chunkwise settings set embedding.provider <name>' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'chunkwise settings show' to check the configuration",
			domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'chunkwise settings set llm.provider <name>' to fix",
			domain.ErrLLMUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'chunkwise settings show' to check the configuration",
			domain.ErrLLMUnavailable, err)
	}
	return svc, nil
}

// CreateEmbeddingService creates the embedding service named by settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama, openai or gemini")
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	model := settings.Model
	if model == "" {
		model = domain.DefaultEmbeddingModels()[settings.Provider]
	}
	dimensions := domain.EmbeddingDimensions()[model]

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      model,
			Dimensions: dimensions,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   model,
		})

	case domain.AIProviderGemini:
		return geminiembed.NewEmbeddingService(ctx, geminiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      model,
			Dimensions: dimensions,
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the LLM service named by settings.
// Returns nil if the provider is not configured.
func CreateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	model := settings.Model
	if model == "" {
		model = domain.DefaultLLMModels()[settings.Provider]
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   model,
		})

	case domain.AIProviderGemini:
		return geminillm.NewLLMService(ctx, geminillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}
