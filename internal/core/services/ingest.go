package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driving"
	"github.com/custodia-labs/chunkwise/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// PipelineFactory builds a chunking pipeline for one pass.
// It returns a configuration error for an invalid strategy or parameters.
type PipelineFactory func(strategy domain.Strategy, params domain.ChunkParams) (driven.PostProcessorPipeline, error)

// ConnectorFactory opens a connector over an input directory.
type ConnectorFactory func(dir string) (driven.Connector, error)

// IngestConfig holds the collaborators and defaults of an IngestService.
type IngestConfig struct {
	DocStore       driven.DocumentStore
	EmbeddingStore driven.EmbeddingStore
	Normalisers    driven.NormaliserRegistry
	Pipelines      PipelineFactory
	Connectors     ConnectorFactory

	// Generator and Index are optional. Without them a pass stops after chunking.
	Generator *EmbeddingGenerator
	Index     driven.VectorIndex
	IndexName string

	Chunking domain.ChunkingSettings
}

// IngestService loads documents, chunks them, embeds the chunks and
// keeps the vector index current.
type IngestService struct {
	cfg IngestConfig

	// mu serialises pipeline passes and document upserts.
	mu sync.Mutex
}

// NewIngestService creates a new ingest service.
func NewIngestService(cfg IngestConfig) *IngestService {
	if cfg.IndexName == "" {
		cfg.IndexName = domain.DefaultIndexName
	}
	if cfg.Chunking.Strategy == "" {
		cfg.Chunking = domain.DefaultAppSettings().Chunking
	}
	return &IngestService{cfg: cfg}
}

// IngestDocuments upserts the documents and runs a pipeline pass.
// The report lists only the supplied documents.
func (s *IngestService) IngestDocuments(
	ctx context.Context,
	docs []driving.DocumentInput,
	opts driving.IngestOptions,
) (*driving.IngestReport, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no documents supplied", domain.ErrInvalidInput)
	}
	// Fail fast on bad parameters before anything is stored.
	if _, err := s.pipeline(opts); err != nil {
		return nil, err
	}

	failed := 0
	names := make(map[string]bool, len(docs))
	for _, in := range docs {
		if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Content) == "" {
			logger.Warn("Skipping document %q: name and content are required", in.Name)
			failed++
			continue
		}
		doc := &domain.Document{
			Name:    in.Name,
			Content: in.Content,
			Source:  in.Source,
			Type:    in.Type,
			URL:     in.URL,
		}
		if err := s.upsert(ctx, doc); err != nil {
			if errors.Is(err, domain.ErrStoreUnavailable) {
				return nil, err
			}
			logger.Warn("Store document %q: %v", in.Name, err)
			failed++
			continue
		}
		names[doc.Name] = true
	}

	report, err := s.run(ctx, opts, names)
	if report != nil {
		report.Failed += failed
	}
	return report, err
}

// IngestFiles normalises uploaded files, upserts them and runs a pipeline pass.
// Files no normaliser supports are counted as failed.
func (s *IngestService) IngestFiles(
	ctx context.Context,
	files []domain.RawDocument,
	opts driving.IngestOptions,
) (*driving.IngestReport, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files supplied", domain.ErrInvalidInput)
	}
	if _, err := s.pipeline(opts); err != nil {
		return nil, err
	}

	failed := 0
	names := make(map[string]bool, len(files))
	for i := range files {
		doc, err := s.normalise(ctx, &files[i])
		if err == nil {
			err = s.upsert(ctx, doc)
		}
		if err != nil {
			if errors.Is(err, domain.ErrStoreUnavailable) {
				return nil, err
			}
			logger.Warn("Ingest upload %s: %v", files[i].Name, err)
			failed++
			continue
		}
		names[doc.Name] = true
	}

	report, err := s.run(ctx, opts, names)
	if report != nil {
		report.Failed += failed
	}
	return report, err
}

// IngestDirectory reads every supported file under dir and runs a pipeline pass.
// The report lists only the files found under dir.
func (s *IngestService) IngestDirectory(ctx context.Context, dir string, opts driving.IngestOptions) (*driving.IngestReport, error) {
	if _, err := s.pipeline(opts); err != nil {
		return nil, err
	}

	connector, err := s.connector(ctx, dir)
	if err != nil {
		return nil, err
	}
	defer connector.Close()

	logger.Info("Ingesting %s", dir)

	docsCh, errsCh := connector.FullSync(ctx)
	names := make(map[string]bool)
	failed := 0

	for docsCh != nil || errsCh != nil {
		select {
		case raw, ok := <-docsCh:
			if !ok {
				docsCh = nil
				continue
			}
			doc, err := s.normalise(ctx, &raw)
			if err == nil {
				err = s.upsert(ctx, doc)
			}
			if err != nil {
				if errors.Is(err, domain.ErrStoreUnavailable) {
					return nil, err
				}
				logger.Warn("Ingest %s: %v", raw.URI, err)
				failed++
				continue
			}
			logger.Debug("Loaded %s (%d chars)", doc.Name, len(doc.Content))
			names[doc.Name] = true

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			return nil, fmt.Errorf("scan %s: %w", dir, err)

		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	logger.Info("Loaded %d documents from %s", len(names), dir)

	report, err := s.run(ctx, opts, names)
	if report != nil {
		report.Failed += failed
	}
	return report, err
}

// Run chunks pending documents, embeds pending chunks and ensures the index.
func (s *IngestService) Run(ctx context.Context, opts driving.IngestOptions) (*driving.IngestReport, error) {
	return s.run(ctx, opts, nil)
}

// Watch re-ingests files under dir as they change until ctx is cancelled.
// A removed file deletes its document.
func (s *IngestService) Watch(ctx context.Context, dir string, opts driving.IngestOptions) error {
	if _, err := s.pipeline(opts); err != nil {
		return err
	}

	connector, err := s.connector(ctx, dir)
	if err != nil {
		return err
	}
	defer connector.Close()

	changes, err := connector.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("Watching %s for changes", dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			if err := s.applyChange(ctx, change, opts); err != nil {
				if errors.Is(err, domain.ErrStoreUnavailable) {
					return err
				}
				logger.Warn("%s %s: %v", change.Type, change.Document.Name, err)
			}
		}
	}
}

func (s *IngestService) applyChange(ctx context.Context, change domain.RawDocumentChange, opts driving.IngestOptions) error {
	if change.Type == domain.ChangeDeleted {
		s.mu.Lock()
		defer s.mu.Unlock()
		doc, err := s.cfg.DocStore.GetDocumentByName(ctx, change.Document.Name)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.cfg.DocStore.DeleteDocument(ctx, doc.ID); err != nil {
			return err
		}
		logger.Info("Removed %s", doc.Name)
		s.ensureIndex(ctx)
		return nil
	}

	doc, err := s.normalise(ctx, &change.Document)
	if err != nil {
		return err
	}
	if err := s.upsert(ctx, doc); err != nil {
		return err
	}
	report, err := s.run(ctx, opts, map[string]bool{doc.Name: true})
	if err != nil {
		return err
	}
	for _, r := range report.Results {
		if !r.Skipped {
			logger.Info("Re-ingested %s (%d chunks)", r.Name, r.ChunkCount)
		}
	}
	return nil
}

// run is one pipeline pass. When only is non-nil the report lists just those names,
// but every pending document is still processed.
//
//nolint:gocognit // Orchestration function with necessary sequential steps
func (s *IngestService) run(ctx context.Context, opts driving.IngestOptions, only map[string]bool) (*driving.IngestReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 1. Build the pipeline
	pipeline, err := s.pipeline(opts)
	if err != nil {
		return nil, err
	}

	docs, err := s.cfg.DocStore.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	report := &driving.IngestReport{IndexState: domain.IndexAbsent}

	// 2. Chunk
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		doc := &docs[i]
		forced := opts.Force && (only == nil || only[doc.Name])

		result, err := s.chunkDocument(ctx, pipeline, doc, forced)
		if err != nil {
			if errors.Is(err, domain.ErrStoreUnavailable) {
				return report, err
			}
			logger.Warn("Chunk %s: %v", doc.Name, err)
			report.Failed++
			continue
		}
		if only == nil || only[doc.Name] {
			report.Results = append(report.Results, result)
		}
	}

	// 3. Embed
	if s.cfg.Generator == nil {
		logger.Warn("No embedding provider configured, chunks stored without embeddings")
	} else {
		embedReport, err := s.cfg.Generator.EmbedPending(ctx)
		report.Embedded = embedReport.Embedded
		report.EmbedFails = embedReport.Failed
		if err != nil {
			return report, fmt.Errorf("embed chunks: %w", err)
		}
	}

	// 4. Index
	report.IndexState = s.ensureIndex(ctx)
	return report, nil
}

func (s *IngestService) chunkDocument(
	ctx context.Context,
	pipeline driven.PostProcessorPipeline,
	doc *domain.Document,
	force bool,
) (driving.IngestResult, error) {
	result := driving.IngestResult{DocumentID: doc.ID, Name: doc.Name}

	if doc.Chunked && !force {
		existing, err := s.cfg.DocStore.GetChunks(ctx, doc.ID)
		if err != nil {
			return result, fmt.Errorf("get chunks: %w", err)
		}
		result.ChunkCount = len(existing)
		result.Skipped = true
		return result, nil
	}

	chunks, err := pipeline.Process(ctx, doc)
	if err != nil {
		return result, fmt.Errorf("process: %w", err)
	}
	// Replaces chunks left by an interrupted pass as well as forced re-runs.
	if err := s.cfg.DocStore.ReplaceChunks(ctx, doc.ID, chunks); err != nil {
		return result, fmt.Errorf("save chunks: %w", err)
	}

	logger.Debug("Chunked %s into %d chunks", doc.Name, len(chunks))
	result.ChunkCount = len(chunks)
	return result, nil
}

// ensureIndex builds the index once embeddings exist and returns its state.
// Index failures are logged; retrieval degrades until the next pass.
func (s *IngestService) ensureIndex(ctx context.Context) domain.IndexState {
	if s.cfg.Index == nil || s.cfg.EmbeddingStore == nil {
		return domain.IndexAbsent
	}
	count, err := s.cfg.EmbeddingStore.CountEmbeddings(ctx)
	if err != nil {
		logger.Warn("Count embeddings: %v", err)
		return domain.IndexAbsent
	}
	if count == 0 {
		return domain.IndexAbsent
	}

	info, err := s.cfg.Index.EnsureIndex(ctx, s.cfg.IndexName)
	if err != nil {
		logger.Warn("Build vector index %q: %v", s.cfg.IndexName, err)
		return info.State
	}
	logger.Debug("Vector index %q %s with %d vectors", info.Name, info.State, info.Vectors)
	return info.State
}

// upsert stores doc by name. Changed content resets the document so the
// next pass re-chunks it.
func (s *IngestService) upsert(ctx context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, err := s.cfg.DocStore.GetDocumentByName(ctx, doc.Name)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("lookup: %w", err)
	}

	if _, err := s.cfg.DocStore.UpsertDocument(ctx, doc); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}

	if previous != nil && previous.Chunked && previous.Content != doc.Content {
		logger.Debug("Content of %s changed, resetting chunks", doc.Name)
		if err := s.cfg.DocStore.ResetDocument(ctx, doc.ID); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	return nil
}

func (s *IngestService) normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if s.cfg.Normalisers == nil {
		return nil, fmt.Errorf("%w: no normalisers configured", domain.ErrConfiguration)
	}
	result, err := s.cfg.Normalisers.Normalise(ctx, raw)
	if err != nil {
		return nil, err
	}
	doc := result.Document
	if doc.Name == "" {
		doc.Name = raw.Name
	}
	if strings.TrimSpace(doc.Content) == "" {
		return nil, fmt.Errorf("%w: %s has no text content", domain.ErrInvalidInput, raw.Name)
	}
	return &doc, nil
}

func (s *IngestService) connector(ctx context.Context, dir string) (driven.Connector, error) {
	if s.cfg.Connectors == nil {
		return nil, fmt.Errorf("%w: connector factory not configured", domain.ErrConfiguration)
	}
	if dir == "" {
		return nil, fmt.Errorf("%w: directory is required", domain.ErrInvalidInput)
	}
	connector, err := s.cfg.Connectors(dir)
	if err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}
	if err := connector.Validate(ctx); err != nil {
		_ = connector.Close()
		return nil, err
	}
	return connector, nil
}

// pipeline resolves opts against the configured chunking settings.
func (s *IngestService) pipeline(opts driving.IngestOptions) (driven.PostProcessorPipeline, error) {
	if s.cfg.Pipelines == nil {
		return nil, fmt.Errorf("%w: pipeline factory not configured", domain.ErrConfiguration)
	}
	strategy := s.cfg.Chunking.Strategy
	if opts.Strategy != "" {
		parsed, err := domain.ParseStrategy(string(opts.Strategy))
		if err != nil {
			return nil, err
		}
		strategy = parsed
	}

	params := domain.ChunkParams{ChunkSize: opts.ChunkSize, Overlap: opts.Overlap, Delimiter: opts.Delimiter}
	if params.Delimiter == "" {
		params.Delimiter = s.cfg.Chunking.Delimiter
	}
	params = params.WithDefaults(s.cfg.Chunking.ChunkSize, s.cfg.Chunking.Overlap)

	return s.cfg.Pipelines(strategy, params)
}
