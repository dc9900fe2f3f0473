package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
)

func TestInitResult_CloseNilServices(t *testing.T) {
	result := &InitResult{}
	assert.NotPanics(t, result.Close)
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.EmbeddingSettings
		wantNil     bool
		errContains string
	}{
		{name: "nil settings", settings: nil, wantNil: true},
		{name: "unconfigured", settings: &domain.EmbeddingSettings{}, wantNil: true},
		{name: "openai without key", settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI}, wantNil: true},
		{name: "unknown provider", settings: &domain.EmbeddingSettings{Provider: "unknown", APIKey: "k"}, wantNil: true},
		{
			name:     "ollama",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "nomic-embed-text"},
		},
		{
			name:     "openai",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "text-embedding-3-small"},
		},
		{
			name:        "anthropic has no embeddings",
			settings:    &domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"},
			wantNil:     true,
			errContains: "anthropic does not support embeddings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(context.Background(), tt.settings)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantNil, svc == nil)
			if svc != nil {
				assert.NoError(t, svc.Close())
			}
		})
	}
}

func TestCreateEmbeddingService_DefaultModel(t *testing.T) {
	svc, err := CreateEmbeddingService(context.Background(), &domain.EmbeddingSettings{Provider: domain.AIProviderOllama})
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", svc.ModelName())
	assert.Equal(t, 768, svc.Dimensions())
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.LLMSettings
		wantNil   bool
		wantModel string
	}{
		{name: "nil settings", settings: nil, wantNil: true},
		{name: "unconfigured", settings: &domain.LLMSettings{}, wantNil: true},
		{name: "anthropic without key", settings: &domain.LLMSettings{Provider: domain.AIProviderAnthropic}, wantNil: true},
		{name: "ollama", settings: &domain.LLMSettings{Provider: domain.AIProviderOllama}, wantModel: "llama3.2"},
		{name: "openai", settings: &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "k"}, wantModel: "gpt-4o-mini"},
		{
			name:      "anthropic",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k", Model: "claude-3-haiku"},
			wantModel: "claude-3-haiku",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(context.Background(), tt.settings)
			require.NoError(t, err)
			assert.Equal(t, tt.wantNil, svc == nil)
			if svc != nil {
				assert.Equal(t, tt.wantModel, svc.ModelName())
				assert.NoError(t, svc.Close())
			}
		})
	}
}

func TestCreateAndValidate_UnreachableProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := CreateAndValidateEmbeddingService(context.Background(),
		&domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: server.URL})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Contains(t, err.Error(), "chunkwise settings")

	_, err = CreateAndValidateLLMService(context.Background(),
		&domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: server.URL})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestInit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	settings := domain.DefaultAppSettings()
	settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: server.URL}
	settings.LLM = domain.LLMSettings{Provider: domain.AIProviderAnthropic}

	result := Init(context.Background(), &settings, true)
	defer result.Close()

	require.NotNil(t, result.EmbeddingService)
	assert.IsType(t, &guardedEmbedding{}, result.EmbeddingService)
	assert.Nil(t, result.LLMService)
	assert.Empty(t, result.Warnings)
}

func TestInit_WarnsOnUnsupportedEmbeddingProvider(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"}

	result := Init(context.Background(), &settings, false)
	assert.Nil(t, result.EmbeddingService)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "anthropic")
}
