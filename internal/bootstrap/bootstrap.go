// Package bootstrap assembles the driven adapters and core services for
// one chunkwise invocation.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/chunkwise/internal/adapters/driven/ai"
	"github.com/custodia-labs/chunkwise/internal/adapters/driven/config/file"
	"github.com/custodia-labs/chunkwise/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/chunkwise/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/chunkwise/internal/adapters/driven/vectorindex/vptree"
	"github.com/custodia-labs/chunkwise/internal/adapters/driving/cli"
	"github.com/custodia-labs/chunkwise/internal/connectors/filesystem"
	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driving"
	"github.com/custodia-labs/chunkwise/internal/core/services"
	"github.com/custodia-labs/chunkwise/internal/logger"
	"github.com/custodia-labs/chunkwise/internal/normalisers"
	"github.com/custodia-labs/chunkwise/internal/postprocessors"
)

// Directory layout under the data directory.
const (
	DefaultDirName = ".chunkwise"
	promptsDir     = "prompts"
	storeDir       = "data"
)

// DataDir resolves the data directory, defaulting to ~/.chunkwise.
func DataDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, DefaultDirName), nil
}

// Build is a cli.Bootstrap. It loads settings, opens the store and
// constructs every service. Missing AI providers are logged and leave the
// operations that need them failing with a provider-unavailable error.
func Build(ctx context.Context, opts cli.BootstrapOptions) (*cli.Services, error) {
	dataDir, err := DataDir(opts.DataDir)
	if err != nil {
		return nil, err
	}

	for _, dir := range []string{".", dataDir} {
		if err := file.LoadDotEnv(dir); err != nil {
			logger.Warn("loading dotenv from %s: %v", dir, err)
		}
	}

	configStore, err := openConfig(dataDir, opts.Ephemeral)
	if err != nil {
		return nil, err
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator(), services.Environment{
		Overrides: file.EnvOverrides(),
		Provider:  file.ProviderEnv,
	})
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	logger.SetVerbose(opts.Verbose || settings.Verbose)
	logger.Debug("data directory: %s", dataDir)

	prompts, err := file.NewPromptStore(filepath.Join(dataDir, promptsDir))
	if err != nil {
		return nil, fmt.Errorf("%w: prompts: %v", domain.ErrConfiguration, err)
	}

	docs, embeddings, catalog, closeStore, err := openStore(dataDir, opts.Ephemeral)
	if err != nil {
		return nil, err
	}

	providers := ai.Init(ctx, settings, false)

	svc := assemble(docs, embeddings, catalog, providers, prompts, settings)
	svc.Settings = settingsService
	svc.Close = func() error {
		providers.Close()
		return closeStore()
	}
	return svc, nil
}

// openConfig reads config.toml from dataDir. An ephemeral run starts from
// defaults plus environment overrides and never writes the file.
func openConfig(dataDir string, ephemeral bool) (driven.ConfigStore, error) {
	if ephemeral {
		return memory.NewConfigStore(), nil
	}
	store, err := file.NewConfigStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("%w: opening config: %v", domain.ErrConfiguration, err)
	}
	return store, nil
}

func openStore(dataDir string, ephemeral bool) (
	driven.DocumentStore, driven.EmbeddingStore, driven.IndexCatalog, func() error, error,
) {
	if ephemeral {
		logger.Debug("ephemeral run: documents are kept in memory")
		m := memory.NewStore()
		return m, m, m, func() error { return nil }, nil
	}
	store, err := sqlite.NewStore(filepath.Join(dataDir, storeDir))
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return store.DocumentStore(), store.EmbeddingStore(), store.IndexCatalog(), store.Close, nil
}

// assemble wires the core services over the given adapters.
func assemble(
	docs driven.DocumentStore,
	embeddings driven.EmbeddingStore,
	catalog driven.IndexCatalog,
	providers *ai.InitResult,
	prompts driven.PromptStore,
	settings *domain.AppSettings,
) *cli.Services {
	index := vptree.New(embeddings, catalog)
	indexName := settings.Retrieval.IndexName

	registry := normalisers.NewDefaultRegistry(settings.PDFURLTemplate)
	processors := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(processors)

	var generator *services.EmbeddingGenerator
	if providers.EmbeddingService != nil {
		generator = services.NewEmbeddingGenerator(docs, embeddings, providers.EmbeddingService, settings.Embedding.BatchSize)
	}

	ingest := services.NewIngestService(services.IngestConfig{
		DocStore:       docs,
		EmbeddingStore: embeddings,
		Normalisers:    registry,
		Pipelines: func(strategy domain.Strategy, params domain.ChunkParams) (driven.PostProcessorPipeline, error) {
			p, err := postprocessors.NewIngestPipeline(processors, strategy, params)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
		Connectors: func(dir string) (driven.Connector, error) {
			if dir == "" {
				return nil, errors.New("no input directory")
			}
			return filesystem.New(dir, filesystem.WithFilter(registry.Supports)), nil
		},
		Generator: generator,
		Index:     index,
		IndexName: indexName,
		Chunking:  settings.Chunking,
	})

	retriever := services.NewRetriever(index, embeddings, indexName, settings.Retrieval.Candidates)
	rag := services.NewRAGService(docs, retriever, providers.EmbeddingService, providers.LLMService, prompts, services.RAGConfig{
		TopK:            settings.Retrieval.TopK,
		MaxContextChars: settings.Retrieval.MaxContextChars,
		Generation:      settings.Generation,
	})

	return &cli.Services{
		Chunking:  services.NewChunkingService(),
		Ingest:    ingest,
		RAG:       rag,
		Documents: services.NewDocumentService(docs, embeddings, index, indexName),
		Index:     services.NewIndexService(docs, embeddings, index, indexName),
		Scheduler: services.NewScheduler(ingest, driving.IngestOptions{}, services.DefaultPassInterval),
	}
}
