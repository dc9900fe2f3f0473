package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
)

func TestIndexCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0, 2)
	for _, cmd := range indexCmd.Commands() {
		names = append(names, cmd.Name())
	}
	assert.ElementsMatch(t, []string{"status", "rebuild"}, names)
}

func TestIndexStatusCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("index", "status")

	require.NoError(t, err)
	assert.Contains(t, out, "Index:      chatbot_vector_index")
	assert.Contains(t, out, "State:      ready")
	assert.Contains(t, out, "Dimensions: 768")
	assert.Contains(t, out, "Chunks:     42 (2 awaiting embedding)")
}

func TestIndexStatusCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { indexJSON = false }()

	out, err := execute("index", "status", "--json")

	require.NoError(t, err)
	assert.Contains(t, out, `"chunks": 42`)
	assert.Contains(t, out, `"embeddings": 40`)
}

func TestIndexRebuildCmd(t *testing.T) {
	svc := newTestServices()
	svc.install()
	defer func() { _ = releaseServices() }()

	out, err := execute("index", "rebuild")

	require.NoError(t, err)
	assert.True(t, svc.Index.Rebuilt)
	assert.Contains(t, out, "Index chatbot_vector_index is ready with 42 vectors")
}

func TestIndexCmds_ServiceError(t *testing.T) {
	for _, sub := range []string{"status", "rebuild"} {
		t.Run(sub, func(t *testing.T) {
			svc := newTestServices()
			svc.Index.Err = domain.ErrIndexUnavailable
			svc.install()
			defer func() { _ = releaseServices() }()

			_, err := execute("index", sub)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
		})
	}
}

func TestIndexCmds_ServiceNotConfigured(t *testing.T) {
	SetServices(&Services{})
	defer func() { _ = releaseServices() }()

	_, err := execute("index", "status")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "index service not configured")
}
