package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chunkwise/internal/adapters/driving/api"
	"github.com/custodia-labs/chunkwise/internal/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the JSON/event-stream HTTP API under /api.

Routes:
  GET    /api/health
  POST   /api/chunks
  POST   /api/ingest
  POST   /api/ingest/upload
  POST   /api/query
  POST   /api/chat
  GET    /api/documents[/{id}[/chunks]]
  DELETE /api/documents/{id}

A background scheduler retries chunks whose embedding failed and keeps
the vector index current while the server runs.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (default from settings, :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	server, err := api.NewServer(&api.Ports{
		Chunking:  chunkingService,
		Ingest:    ingestService,
		RAG:       ragService,
		Documents: documentService,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if scheduler != nil {
		go func() {
			if err := scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("scheduler stopped: %v", err)
			}
		}()
		defer func() {
			if err := scheduler.Stop(); err != nil {
				logger.Warn("scheduler stop: %v", err)
			}
		}()
	}

	addr := listenAddr()
	fmt.Fprintf(cmd.OutOrStdout(), "chunkwise API listening on %s\n", addr)
	return server.Run(ctx, addr)
}

// listenAddr resolves --addr, then settings, then the default.
func listenAddr() string {
	if serveAddr != "" {
		return serveAddr
	}
	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil && settings.ServerAddr != "" {
			return settings.ServerAddr
		}
	}
	return ":8080"
}
