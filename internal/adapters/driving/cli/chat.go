package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chunkwise/internal/adapters/driving/tui"
	"github.com/custodia-labs/chunkwise/internal/logger"
)

// runTUI starts the program. Replaced in tests.
var runTUI = func(ctx context.Context, app *tui.App) error {
	return app.Run(ctx)
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with your documents in the terminal",
	Long: `Opens the interactive terminal client. Answers stream in as they are
generated and earlier turns are sent along with each question.

Controls:
  Enter    - Ask
  Tab      - Focus sources
  Ctrl+X   - Stop the current answer
  Ctrl+L   - New chat
  Esc      - Back
  ?        - Help
  Ctrl+C   - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if ragService == nil {
		return errors.New("RAG service not configured")
	}

	app, err := tui.NewApp(tui.NewPorts(ragService, documentService))
	if err != nil {
		return fmt.Errorf("failed to create chat client: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

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

	if err := runTUI(ctx, app); err != nil {
		return fmt.Errorf("chat client error: %w", err)
	}
	return nil
}
