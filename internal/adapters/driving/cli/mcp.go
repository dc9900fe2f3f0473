package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chunkwise/internal/adapters/driving/mcp"
)

var mcpPort int

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose chunkwise to AI assistants over MCP",
	Long: `Serve the chunk_text, query_knowledge_base and ingest_text tools and the
chunkwise://documents resources.

Without --port the server speaks JSON-RPC on stdin/stdout, which is what
desktop assistants expect:

  {"mcpServers": {"chunkwise": {"command": "chunkwise", "args": ["mcp", "serve"]}}}

With --port it serves the streamable HTTP transport at /mcp instead.`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "serve HTTP on this port instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	server, err := mcp.NewServer(&mcp.Ports{
		Chunking: chunkingService,
		RAG:      ragService,
		Ingest:   ingestService,
		Document: documentService,
	})
	if err != nil {
		return err
	}

	if mcpPort <= 0 {
		return server.Run(cmd.Context())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", mcpPort)
	fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s%s\n", addr, mcp.Endpoint)
	return server.RunHTTP(ctx, addr)
}
