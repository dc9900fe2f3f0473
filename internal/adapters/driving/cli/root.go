// Package cli implements the chunkwise command line.
//
// Commands read their collaborators from package-level driving ports. A
// Bootstrap installed by main builds them from settings before a command
// runs; tests assign mocks to the same variables.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chunkwise/internal/core/ports/driving"
	"github.com/custodia-labs/chunkwise/internal/logger"
)

// version is set at build time with -ldflags.
var version = "dev"

// skipBootstrap marks commands that run without services.
const skipBootstrap = "skip-bootstrap"

// Global flag values.
var (
	dataDir   string
	verbose   bool
	ephemeral bool
)

// Services holds the driving ports the commands use.
type Services struct {
	Chunking  driving.ChunkingService
	Ingest    driving.IngestService
	RAG       driving.RAGService
	Documents driving.DocumentService
	Index     driving.IndexService
	Settings  driving.SettingsService
	Scheduler driving.Scheduler

	// Close releases the store and provider clients. May be nil.
	Close func() error
}

// BootstrapOptions carries the global flags into a Bootstrap.
type BootstrapOptions struct {
	DataDir string
	Verbose bool
	// Ephemeral keeps documents, embeddings and settings edits in memory
	// for this run only.
	Ephemeral bool
}

// Bootstrap builds the services for one command invocation.
type Bootstrap func(ctx context.Context, opts BootstrapOptions) (*Services, error)

var (
	bootstrap  Bootstrap
	configured bool
	release    func() error

	chunkingService driving.ChunkingService
	ingestService   driving.IngestService
	ragService      driving.RAGService
	documentService driving.DocumentService
	indexService    driving.IndexService
	settingsService driving.SettingsService
	scheduler       driving.Scheduler
)

var rootCmd = &cobra.Command{
	Use:   "chunkwise",
	Short: "Chunk documents and answer questions over them",
	Long: `chunkwise ingests documents, splits them into chunks, embeds the chunks
and answers questions with retrieval-augmented generation.

Run 'chunkwise serve' for the HTTP API, 'chunkwise chat' for the terminal
client or 'chunkwise mcp serve' for AI assistant integration.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setupServices,
	PersistentPostRunE: teardownServices,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.chunkwise)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep documents and settings in memory; nothing is saved")
}

// SetBootstrap installs the function that builds services before a command runs.
func SetBootstrap(fn Bootstrap) {
	bootstrap = fn
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetServices installs already-built services.
func SetServices(s *Services) {
	chunkingService = s.Chunking
	ingestService = s.Ingest
	ragService = s.RAG
	documentService = s.Documents
	indexService = s.Index
	settingsService = s.Settings
	scheduler = s.Scheduler
	release = s.Close
	configured = true
}

// Execute runs the root command and releases services afterwards.
func Execute(ctx context.Context) error {
	defer func() {
		if err := releaseServices(); err != nil {
			logger.Warn("releasing resources: %v", err)
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func setupServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if configured || bootstrap == nil || cmd.Annotations[skipBootstrap] == "true" {
		return nil
	}

	s, err := bootstrap(cmd.Context(), BootstrapOptions{DataDir: dataDir, Verbose: verbose, Ephemeral: ephemeral})
	if err != nil {
		return err
	}
	SetServices(s)
	return nil
}

func teardownServices(_ *cobra.Command, _ []string) error {
	return releaseServices()
}

func releaseServices() error {
	if !configured {
		return nil
	}
	var err error
	if release != nil {
		err = release()
	}
	SetServices(&Services{})
	configured = false
	return err
}
