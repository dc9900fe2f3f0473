// Command chunkwise chunks documents, embeds them and answers questions
// over them from the command line, an HTTP API, MCP or a terminal chat.
package main

import (
	"context"
	"os"

	"github.com/custodia-labs/chunkwise/internal/adapters/driving/cli"
	"github.com/custodia-labs/chunkwise/internal/bootstrap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap.Build)

	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
