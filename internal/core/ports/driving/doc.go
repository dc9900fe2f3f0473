// Package driving lists the operations chunkwise offers to its front ends:
// the CLI, the TUI, the HTTP API and the MCP server. internal/core/services
// implements every interface here.
package driving
