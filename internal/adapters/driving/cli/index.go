package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var indexJSON bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect and rebuild the vector index",
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the vector index state",
	RunE:  runIndexStatus,
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the vector index from stored embeddings",
	RunE:  runIndexRebuild,
}

func init() {
	indexStatusCmd.Flags().BoolVar(&indexJSON, "json", false, "output status as JSON")
	indexCmd.AddCommand(indexStatusCmd)
	indexCmd.AddCommand(indexRebuildCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexStatus(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	status, err := indexService.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get index status: %w", err)
	}

	if indexJSON {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Index:      %s\n", status.Index.Name)
	cmd.Printf("State:      %s\n", status.Index.State)
	if status.Index.Dimensions > 0 {
		cmd.Printf("Dimensions: %d\n", status.Index.Dimensions)
	}
	cmd.Printf("Vectors:    %d\n", status.Index.Vectors)
	cmd.Printf("Chunks:     %d (%d awaiting embedding)\n", status.Chunks, status.Pending())
	return nil
}

func runIndexRebuild(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	info, err := indexService.Rebuild(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to rebuild index: %w", err)
	}
	cmd.Printf("Index %s is %s with %d vectors\n", info.Name, info.State, info.Vectors)
	return nil
}
