package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
)

var (
	queryStream bool
	queryJSON   bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Answer a question from the ingested documents",
	Long: `Embeds the question, retrieves the most similar chunks and asks the
generation provider to answer from them. The sources used are listed
after the answer.

When the vector index is unavailable the answer is generated from an
unranked sample of chunks and marked as degraded.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryStream, "stream", false, "print the answer as it is generated")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(queryCmd)
}

// queryOutput is the JSON form of an answer.
type queryOutput struct {
	Query    string          `json:"query"`
	Response string          `json:"response"`
	Sources  []domain.Source `json:"sources"`
	Mode     string          `json:"mode"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	if ragService == nil {
		return errors.New("RAG service not configured")
	}
	question := args[0]

	if queryStream && !queryJSON {
		return streamQuery(cmd, question)
	}

	answer, err := ragService.Answer(cmd.Context(), question, nil)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		sources := answer.Sources
		if sources == nil {
			sources = []domain.Source{}
		}
		data, err := json.MarshalIndent(queryOutput{
			Query:    answer.Query,
			Response: answer.Response,
			Sources:  sources,
			Mode:     answer.Mode.String(),
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Response)
	printSources(cmd, answer.Sources, answer.Mode)
	return nil
}

func streamQuery(cmd *cobra.Command, question string) error {
	stream, err := ragService.Stream(cmd.Context(), question, nil)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer stream.Fragments.Close()

	for stream.Fragments.Next() {
		cmd.Print(stream.Fragments.Fragment())
	}
	cmd.Println()
	if err := stream.Fragments.Err(); err != nil {
		return fmt.Errorf("stream interrupted: %w", err)
	}

	printSources(cmd, stream.Sources, stream.Mode)
	return nil
}

func printSources(cmd *cobra.Command, sources []domain.Source, mode domain.RetrievalMode) {
	if mode.IsDegraded() {
		cmd.Println("\nNote: the vector index was unavailable; context was sampled without ranking.")
	}
	if len(sources) == 0 {
		return
	}

	cmd.Println("\nSources:")
	for i := range sources {
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, sources[i].DocumentName, sources[i].Score)
		if sources[i].URL != "" {
			cmd.Printf("      %s\n", sources[i].URL)
		}
	}
}
