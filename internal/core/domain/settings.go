package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API (generation only).
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// SupportsEmbeddings returns true if the provider offers an embedding API.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint override.
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	// BatchSize is the number of chunks sent per embedding request.
	BatchSize int

	// RequestsPerSecond throttles embedding requests. Zero disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds generation provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint override.
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings holds the ingest chunking defaults.
type ChunkingSettings struct {
	Strategy  Strategy
	ChunkSize int
	Overlap   int
	Delimiter string
}

// Params returns the settings as chunk parameters.
func (c ChunkingSettings) Params() ChunkParams {
	return ChunkParams{ChunkSize: c.ChunkSize, Overlap: c.Overlap, Delimiter: c.Delimiter}
}

// RetrievalSettings holds vector retrieval configuration.
type RetrievalSettings struct {
	// IndexName is the name of the vector index.
	IndexName string

	// TopK is the number of chunks used as context.
	TopK int

	// Candidates is the candidate pool requested from the index before re-ranking.
	Candidates int

	// MaxContextChars bounds the assembled context.
	MaxContextChars int
}

// GenerationSettings holds sampling parameters for the two answer paths.
type GenerationSettings struct {
	// Temperature and MaxTokens apply to retrieval-augmented answers.
	Temperature float64
	MaxTokens   int

	// ChatTemperature and ChatMaxTokens apply to caller-supplied context chat.
	ChatTemperature float64
	ChatMaxTokens   int
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding  EmbeddingSettings
	LLM        LLMSettings
	Chunking   ChunkingSettings
	Retrieval  RetrievalSettings
	Generation GenerationSettings

	// ServerAddr is the HTTP listen address.
	ServerAddr string

	// InputDir is the default directory scanned by ingest.
	InputDir string

	// PDFURLTemplate derives document URLs from PDF names; {slug} is replaced.
	PDFURLTemplate string

	// Verbose enables debug logging.
	Verbose bool
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers are left unconfigured until the user sets them.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			BatchSize: DefaultEmbeddingBatchSize,
		},
		Chunking: ChunkingSettings{
			Strategy:  StrategyParagraph,
			ChunkSize: DefaultChunkSize,
			Overlap:   DefaultChunkOverlap,
			Delimiter: DefaultDelimiter,
		},
		Retrieval: RetrievalSettings{
			IndexName:       DefaultIndexName,
			TopK:            DefaultTopK,
			Candidates:      DefaultCandidatePool,
			MaxContextChars: DefaultMaxContextChars,
		},
		Generation: GenerationSettings{
			Temperature:     0.3,
			MaxTokens:       1000,
			ChatTemperature: 0.5,
			ChatMaxTokens:   500,
		},
		ServerAddr: ":8080",
		InputDir:   "./docs",
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
	}
}

// AllLLMProviders returns providers that support generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-ada-002",
		AIProviderGemini: "text-embedding-004",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-1.5-flash-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"text-embedding-004": 768,
	}
}
