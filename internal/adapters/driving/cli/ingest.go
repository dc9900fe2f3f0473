package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driving"
)

var (
	ingestStrategy  string
	ingestChunkSize int
	ingestOverlap   int
	ingestForce     bool
	ingestWatch     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Load, chunk and embed the documents in a directory",
	Long: `Reads every supported file (pdf, txt, md) under the directory, stores it,
chunks new or changed documents, embeds pending chunks and refreshes the
vector index. Without an argument the configured input directory is used.

Use --watch to keep running and ingest files as they change.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestStrategy, "strategy", "s", "", "chunking strategy (default from settings)")
	ingestCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", 0, "target chunk size in characters")
	ingestCmd.Flags().IntVar(&ingestOverlap, "overlap", 0, "characters shared by consecutive chunks")
	ingestCmd.Flags().BoolVarP(&ingestForce, "force", "f", false, "re-chunk documents that were already processed")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep watching the directory for changes")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	opts := driving.IngestOptions{
		ChunkSize: ingestChunkSize,
		Overlap:   ingestOverlap,
		Force:     ingestForce,
	}
	if ingestStrategy != "" {
		strategy, err := domain.ParseStrategy(ingestStrategy)
		if err != nil {
			return err
		}
		opts.Strategy = strategy
	}

	dir := inputDir(args)
	cmd.Printf("Ingesting %s\n", dir)

	report, err := ingestService.IngestDirectory(cmd.Context(), dir, opts)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	printIngestReport(cmd, report)

	if !ingestWatch {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cmd.Println("Watching for changes (Ctrl+C to stop)...")
	if err := ingestService.Watch(ctx, dir, opts); err != nil && ctx.Err() == nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}

// inputDir resolves the directory argument, falling back to settings.
func inputDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil && settings.InputDir != "" {
			return settings.InputDir
		}
	}
	return domain.DefaultAppSettings().InputDir
}

func printIngestReport(cmd *cobra.Command, report *driving.IngestReport) {
	chunked, skipped := 0, 0
	for _, r := range report.Results {
		if r.Skipped {
			skipped++
			continue
		}
		chunked++
		cmd.Printf("  %s: %d chunks\n", r.Name, r.ChunkCount)
	}

	cmd.Println()
	cmd.Printf("Documents: %d chunked, %d unchanged, %d failed\n", chunked, skipped, report.Failed)
	cmd.Printf("Embedded:  %d chunks", report.Embedded)
	if report.EmbedFails > 0 {
		cmd.Printf(" (%d failed, retried on the next pass)", report.EmbedFails)
	}
	cmd.Println()
	if report.IndexState != "" {
		cmd.Printf("Index:     %s\n", report.IndexState)
	}
}
