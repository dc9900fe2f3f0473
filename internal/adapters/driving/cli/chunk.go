package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driving"
)

var (
	chunkStrategy  string
	chunkSize      int
	chunkOverlap   int
	chunkDelimiter string
	chunkJSON      bool
)

var chunkCmd = &cobra.Command{
	Use:   "chunk [file|-]",
	Short: "Split text into chunks without storing it",
	Long: `Splits a file, or standard input when the argument is '-' or missing,
with the chosen strategy and prints the chunks.

Strategies: none, fixed_size, delimiter, sentence, paragraph, recursive, semantic.
A zero chunk size or overlap uses 200 and 50.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChunk,
}

func init() {
	chunkCmd.Flags().StringVarP(&chunkStrategy, "strategy", "s", string(domain.StrategyFixedSize), "chunking strategy")
	chunkCmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "target chunk size in characters")
	chunkCmd.Flags().IntVar(&chunkOverlap, "overlap", 0, "characters shared by consecutive chunks")
	chunkCmd.Flags().StringVar(&chunkDelimiter, "delimiter", "", "separator for the delimiter strategy")
	chunkCmd.Flags().BoolVar(&chunkJSON, "json", false, "output chunks as JSON")
	rootCmd.AddCommand(chunkCmd)
}

func runChunk(cmd *cobra.Command, args []string) error {
	if chunkingService == nil {
		return errors.New("chunking service not configured")
	}

	strategy, err := domain.ParseStrategy(chunkStrategy)
	if err != nil {
		return err
	}

	text, err := readChunkInput(cmd, args)
	if err != nil {
		return err
	}

	chunks, err := chunkingService.Chunk(cmd.Context(), driving.ChunkRequest{
		Text:      text,
		Strategy:  strategy,
		ChunkSize: chunkSize,
		Overlap:   chunkOverlap,
		Delimiter: chunkDelimiter,
	})
	if err != nil {
		return fmt.Errorf("chunking failed: %w", err)
	}

	if chunkJSON {
		data, err := json.MarshalIndent(chunks, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal chunks: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	for i := range chunks {
		cmd.Printf("--- chunk %d (%d chars) ---\n", chunks[i].Metadata.Index, len([]rune(chunks[i].Text)))
		cmd.Println(chunks[i].Text)
	}
	cmd.Printf("\n%d chunks (%s)\n", len(chunks), strategy)
	return nil
}

func readChunkInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), nil
}
