package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedBatchSize   = "embedding.batch_size"
	keyEmbedRPS         = "embedding.requests_per_second"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyChunkStrategy    = "chunking.strategy"
	keyChunkSize        = "chunking.chunk_size"
	keyChunkOverlap     = "chunking.overlap"
	keyChunkDelimiter   = "chunking.delimiter"
	keyIndexName        = "retrieval.index_name"
	keyTopK             = "retrieval.top_k"
	keyCandidates       = "retrieval.candidates"
	keyMaxContextChars  = "retrieval.max_context_chars"
	keyTemperature      = "generation.temperature"
	keyMaxTokens        = "generation.max_tokens"
	keyChatTemperature  = "generation.chat_temperature"
	keyChatMaxTokens    = "generation.chat_max_tokens"
	keyServerAddr       = "server.addr"
	keyInputDir         = "input.dir"
	keyPDFURLTemplate   = "pdf.url_template"
	keyLogVerbose       = "log.verbose"
)

const (
	defaultOllamaURL = "http://localhost:11434"

	// Field names understood by Environment.Provider.
	providerFieldKey = "api_key"
	providerFieldURL = "base_url"
)

// valueKind is the type a settings key holds.
type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
	kindProvider
	kindStrategy
)

// settingKeys lists every key SetValue accepts.
var settingKeys = map[string]valueKind{
	keyEmbedProvider:   kindProvider,
	keyEmbedModel:      kindString,
	keyEmbedBaseURL:    kindString,
	keyEmbedAPIKey:     kindString,
	keyEmbedBatchSize:  kindInt,
	keyEmbedRPS:        kindFloat,
	keyLLMProvider:     kindProvider,
	keyLLMModel:        kindString,
	keyLLMBaseURL:      kindString,
	keyLLMAPIKey:       kindString,
	keyChunkStrategy:   kindStrategy,
	keyChunkSize:       kindInt,
	keyChunkOverlap:    kindInt,
	keyChunkDelimiter:  kindString,
	keyIndexName:       kindString,
	keyTopK:            kindInt,
	keyCandidates:      kindInt,
	keyMaxContextChars: kindInt,
	keyTemperature:     kindFloat,
	keyMaxTokens:       kindInt,
	keyChatTemperature: kindFloat,
	keyChatMaxTokens:   kindInt,
	keyServerAddr:      kindString,
	keyInputDir:        kindString,
	keyPDFURLTemplate:  kindString,
	keyLogVerbose:      kindBool,
}

// SettingKeys returns every settable key in sorted order.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Environment supplies values that take precedence over the config file.
type Environment struct {
	// Overrides maps dot-separated keys to values.
	Overrides map[string]string

	// Provider returns a provider's value for field ("api_key" or "base_url"), or "".
	Provider func(provider, field string) string
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	env         Environment
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator, env Environment) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		env:         env,
	}
}

// Get retrieves current application settings.
// Precedence is CHUNKWISE_* overrides, then the config file, then provider
// environment variables for keys and hosts, then defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:             s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:           s.getString(keyEmbedBaseURL, ""),
			APIKey:            s.getString(keyEmbedAPIKey, ""),
			BatchSize:         s.getInt(keyEmbedBatchSize, d.Embedding.BatchSize),
			RequestsPerSecond: s.getFloat(keyEmbedRPS, d.Embedding.RequestsPerSecond),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:    s.getString(keyLLMModel, d.LLM.Model),
			BaseURL:  s.getString(keyLLMBaseURL, ""),
			APIKey:   s.getString(keyLLMAPIKey, ""),
		},
		Chunking: domain.ChunkingSettings{
			Strategy:  s.getStrategy(d.Chunking.Strategy),
			ChunkSize: s.getInt(keyChunkSize, d.Chunking.ChunkSize),
			Overlap:   s.getInt(keyChunkOverlap, d.Chunking.Overlap),
			Delimiter: s.getString(keyChunkDelimiter, d.Chunking.Delimiter),
		},
		Retrieval: domain.RetrievalSettings{
			IndexName:       s.getString(keyIndexName, d.Retrieval.IndexName),
			TopK:            s.getInt(keyTopK, d.Retrieval.TopK),
			Candidates:      s.getInt(keyCandidates, d.Retrieval.Candidates),
			MaxContextChars: s.getInt(keyMaxContextChars, d.Retrieval.MaxContextChars),
		},
		Generation: domain.GenerationSettings{
			Temperature:     s.getFloat(keyTemperature, d.Generation.Temperature),
			MaxTokens:       s.getInt(keyMaxTokens, d.Generation.MaxTokens),
			ChatTemperature: s.getFloat(keyChatTemperature, d.Generation.ChatTemperature),
			ChatMaxTokens:   s.getInt(keyChatMaxTokens, d.Generation.ChatMaxTokens),
		},
		ServerAddr:     s.getString(keyServerAddr, d.ServerAddr),
		InputDir:       s.getString(keyInputDir, d.InputDir),
		PDFURLTemplate: s.getString(keyPDFURLTemplate, d.PDFURLTemplate),
		Verbose:        s.getBool(keyLogVerbose, d.Verbose),
	}

	// Provider environment fills what the file leaves empty.
	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.providerEnv(settings.Embedding.Provider, providerFieldKey)
	}
	if settings.Embedding.BaseURL == "" {
		settings.Embedding.BaseURL = s.providerEnv(settings.Embedding.Provider, providerFieldURL)
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = s.providerEnv(settings.LLM.Provider, providerFieldKey)
	}
	if settings.LLM.BaseURL == "" {
		settings.LLM.BaseURL = s.providerEnv(settings.LLM.Provider, providerFieldURL)
	}

	return settings, nil
}

// Save persists application settings. API keys that are empty or come from
// the provider environment are not written.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedBatchSize, settings.Embedding.BatchSize},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyChunkStrategy, settings.Chunking.Strategy.String()},
		{keyChunkSize, settings.Chunking.ChunkSize},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyChunkDelimiter, settings.Chunking.Delimiter},
		{keyIndexName, settings.Retrieval.IndexName},
		{keyTopK, settings.Retrieval.TopK},
		{keyCandidates, settings.Retrieval.Candidates},
		{keyMaxContextChars, settings.Retrieval.MaxContextChars},
		{keyTemperature, settings.Generation.Temperature},
		{keyMaxTokens, settings.Generation.MaxTokens},
		{keyChatTemperature, settings.Generation.ChatTemperature},
		{keyChatMaxTokens, settings.Generation.ChatMaxTokens},
		{keyServerAddr, settings.ServerAddr},
		{keyInputDir, settings.InputDir},
		{keyPDFURLTemplate, settings.PDFURLTemplate},
		{keyLogVerbose, settings.Verbose},
	}
	if s.persistKey(settings.Embedding.Provider, settings.Embedding.APIKey) {
		values = append(values, struct {
			key   string
			value any
		}{keyEmbedAPIKey, settings.Embedding.APIKey})
	}
	if s.persistKey(settings.LLM.Provider, settings.LLM.APIKey) {
		values = append(values, struct {
			key   string
			value any
		}{keyLLMAPIKey, settings.LLM.APIKey})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	if err := s.configStore.Save(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// SetValue validates and stores a single key.
func (s *SettingsService) SetValue(key, value string) error {
	kind, ok := settingKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var typed any
	switch kind {
	case kindString:
		typed = value
	case kindInt:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		typed = n
	case kindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		typed = f
	case kindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		typed = b
	case kindProvider:
		p := domain.AIProvider(strings.ToLower(strings.TrimSpace(value)))
		if !p.IsValid() {
			return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, value)
		}
		if key == keyEmbedProvider && !p.SupportsEmbeddings() {
			return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, p)
		}
		typed = p.String()
	case kindStrategy:
		st, err := domain.ParseStrategy(value)
		if err != nil {
			return err
		}
		typed = st.String()
	}

	previous, had := s.configStore.Get(key)
	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	if err := s.Validate(); err != nil {
		// A rejected value must not linger in memory.
		if had {
			_ = s.configStore.Set(key, previous)
		} else {
			_ = s.configStore.Load()
		}
		return err
	}
	return s.configStore.Save()
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}
	if !provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, provider)
	}
	if apiKey == "" {
		apiKey = s.providerEnv(provider, providerFieldKey)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	if model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}
	if apiKey == "" {
		apiKey = s.providerEnv(provider, providerFieldKey)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = model
	if model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetAPIKey stores apiKey on every role that uses provider.
func (s *SettingsService) SetAPIKey(provider domain.AIProvider, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid provider: %s", domain.ErrInvalidInput, provider)
	}
	if !provider.RequiresAPIKey() {
		return fmt.Errorf("%w: %s does not use an API key", domain.ErrInvalidInput, provider)
	}
	if strings.TrimSpace(apiKey) == "" {
		return fmt.Errorf("%w: API key is empty", domain.ErrInvalidInput)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	matched := false
	if settings.Embedding.Provider == provider {
		if err := s.configStore.Set(keyEmbedAPIKey, apiKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
		matched = true
	}
	if settings.LLM.Provider == provider {
		if err := s.configStore.Set(keyLLMAPIKey, apiKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
		matched = true
	}
	if !matched {
		return fmt.Errorf("%w: %s is not the configured embedding or LLM provider", domain.ErrInvalidInput, provider)
	}
	return s.configStore.Save()
}

// Validate checks the chunking and retrieval settings.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Chunking.Strategy.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownStrategy, settings.Chunking.Strategy)
	}
	if err := settings.Chunking.Params().Validate(settings.Chunking.Strategy); err != nil {
		return err
	}
	if settings.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: retrieval.top_k must be positive", domain.ErrConfiguration)
	}
	if settings.Retrieval.Candidates < settings.Retrieval.TopK {
		return fmt.Errorf("%w: retrieval.candidates must be at least retrieval.top_k", domain.ErrConfiguration)
	}
	if settings.Retrieval.MaxContextChars <= 0 {
		return fmt.Errorf("%w: retrieval.max_context_chars must be positive", domain.ErrConfiguration)
	}
	if settings.Embedding.Provider != "" && !settings.Embedding.Provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrConfiguration, settings.Embedding.Provider)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

// lookup returns the raw value for key, preferring an environment override.
func (s *SettingsService) lookup(key string) (string, bool) {
	if v, ok := s.env.Overrides[key]; ok {
		return v, true
	}
	v, ok := s.configStore.Get(key)
	if !ok || v == nil {
		return "", false
	}
	return fmt.Sprint(v), true
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if v, ok := s.env.Overrides[key]; ok {
		return v
	}
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if v, ok := s.env.Overrides[key]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		return defaultVal
	}
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if v, ok := s.env.Overrides[key]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		return defaultVal
	}
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	v, ok := s.lookup(key)
	if !ok {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.getString(key, ""))
	if !provider.IsValid() {
		return defaultVal
	}
	if key == keyEmbedProvider && !provider.SupportsEmbeddings() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getStrategy(defaultVal domain.Strategy) domain.Strategy {
	val := s.getString(keyChunkStrategy, "")
	if val == "" {
		return defaultVal
	}
	strategy, err := domain.ParseStrategy(val)
	if err != nil {
		// Kept as-is so Validate reports the bad name.
		return domain.Strategy(val)
	}
	return strategy
}

func (s *SettingsService) providerEnv(provider domain.AIProvider, field string) string {
	if s.env.Provider == nil || provider == "" {
		return ""
	}
	return s.env.Provider(provider.String(), field)
}

func (s *SettingsService) persistKey(provider domain.AIProvider, apiKey string) bool {
	return apiKey != "" && apiKey != s.providerEnv(provider, providerFieldKey)
}

// baseURLFor keeps a local provider's endpoint and clears cloud endpoints.
func baseURLFor(provider domain.AIProvider, current string) string {
	if !provider.IsLocal() {
		return ""
	}
	if current == "" {
		return defaultOllamaURL
	}
	return current
}
