package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driving"
)

// ChunkInput is the input schema for the chunk_text tool.
type ChunkInput struct {
	Text      string `json:"text" jsonschema:"the text to split"`
	Strategy  string `json:"strategy,omitempty" jsonschema:"none, fixed_size, delimiter, sentence, paragraph, recursive or semantic (default fixed_size)"`
	ChunkSize int    `json:"chunk_size,omitempty" jsonschema:"target chunk size in characters (default 200)"`
	Overlap   int    `json:"overlap,omitempty" jsonschema:"characters shared by consecutive chunks (default 50)"`
}

// ChunkOutput is the output schema for the chunk_text tool.
type ChunkOutput struct {
	Chunks []ChunkResult `json:"chunks"`
	Count  int           `json:"count"`
}

// ChunkResult is one chunk of the input text.
type ChunkResult struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// QueryInput is the input schema for the query_knowledge_base tool.
type QueryInput struct {
	Query string `json:"query" jsonschema:"the question to answer from the stored documents"`
}

// QueryOutput is the output schema for the query_knowledge_base tool.
type QueryOutput struct {
	Response string         `json:"response"`
	Mode     string         `json:"mode"`
	Sources  []SourceOutput `json:"sources"`
}

// SourceOutput is the provenance of one chunk used for an answer.
type SourceOutput struct {
	DocumentName string  `json:"document_name"`
	URL          string  `json:"url,omitempty"`
	Score        float64 `json:"score"`
	Text         string  `json:"text"`
}

// IngestInput is the input schema for the ingest_text tool.
type IngestInput struct {
	Name    string `json:"name" jsonschema:"unique document name; an existing document with this name is replaced"`
	Content string `json:"content" jsonschema:"the document text"`
	URL     string `json:"url,omitempty" jsonschema:"optional link to the original document"`
}

// IngestOutput is the output schema for the ingest_text tool.
type IngestOutput struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
	Embedded   int    `json:"embedded"`
	IndexState string `json:"index_state"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "chunk_text",
		Description: "Split text into chunks with a chunking strategy, without storing anything",
	}, s.handleChunk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query_knowledge_base",
		Description: "Answer a question from the stored documents and list the sources used",
	}, s.handleQuery)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest_text",
			Description: "Add a text document to the knowledge base, then chunk and embed it",
		}, s.handleIngest)
	}
}

func (s *Server) handleChunk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ChunkInput,
) (*mcp.CallToolResult, ChunkOutput, error) {
	name := input.Strategy
	if name == "" {
		name = string(domain.StrategyFixedSize)
	}
	strategy, err := domain.ParseStrategy(name)
	if err != nil {
		return nil, ChunkOutput{}, err
	}

	chunks, err := s.ports.Chunking.Chunk(ctx, driving.ChunkRequest{
		Text:      input.Text,
		Strategy:  strategy,
		ChunkSize: input.ChunkSize,
		Overlap:   input.Overlap,
	})
	if err != nil {
		return nil, ChunkOutput{}, err
	}

	output := ChunkOutput{
		Chunks: make([]ChunkResult, len(chunks)),
		Count:  len(chunks),
	}
	for i := range chunks {
		output.Chunks[i] = ChunkResult{Index: chunks[i].Metadata.Index, Text: chunks[i].Text}
	}
	return nil, output, nil
}

func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	answer, err := s.ports.RAG.Answer(ctx, input.Query, nil)
	if err != nil {
		return nil, QueryOutput{}, err
	}

	output := QueryOutput{
		Response: answer.Response,
		Mode:     answer.Mode.String(),
		Sources:  make([]SourceOutput, len(answer.Sources)),
	}
	for i, src := range answer.Sources {
		output.Sources[i] = SourceOutput{
			DocumentName: src.DocumentName,
			URL:          src.URL,
			Score:        src.Score,
			Text:         src.Text,
		}
	}
	return nil, output, nil
}

func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	report, err := s.ports.Ingest.IngestDocuments(ctx, []driving.DocumentInput{{
		Name:    input.Name,
		Content: input.Content,
		URL:     input.URL,
		Source:  "mcp",
		Type:    "txt",
	}}, driving.IngestOptions{})
	if err != nil {
		return nil, IngestOutput{}, err
	}
	if len(report.Results) == 0 {
		return nil, IngestOutput{}, fmt.Errorf("document %q was not ingested", input.Name)
	}

	result := report.Results[0]
	return nil, IngestOutput{
		DocumentID: result.DocumentID,
		ChunkCount: result.ChunkCount,
		Embedded:   report.Embedded,
		IndexState: string(report.IndexState),
	}, nil
}
