package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	svc, err := NewLLMService(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	return svc
}

var conversation = []domain.Turn{
	{Role: domain.RoleSystem, Content: "be brief"},
	{Role: domain.RoleUser, Content: "hi"},
	{Role: domain.RoleAssistant, Content: "hello"},
	{Role: domain.RoleUser, Content: "what is RAG?"},
}

func TestNewLLMService_RequiresKey(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.Error(t, err)
}

func TestComplete(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "be brief", req.System)
		require.Len(t, req.Messages, 3)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, 200, req.MaxTokens)
		require.NotNil(t, req.Temperature)
		assert.InDelta(t, 0.3, *req.Temperature, 1e-9)
		assert.False(t, req.Stream)

		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Retrieval "},{"type":"text","text":"augmented."}],"stop_reason":"end_turn"}`))
	})

	out, err := svc.Complete(context.Background(), conversation, driven.GenerateOptions{MaxTokens: 200, Temperature: 0.3})
	require.NoError(t, err)
	assert.Equal(t, "Retrieval augmented.", out)
}

func TestComplete_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		target error
	}{
		{"overloaded", http.StatusInternalServerError, domain.ErrProvider},
		{"rate limited", http.StatusTooManyRequests, domain.ErrRateLimited},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"type":"error","error":{"type":"x","message":"slow down"}}`))
			})
			_, err := svc.Complete(context.Background(), conversation, driven.GenerateOptions{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.Contains(t, err.Error(), "slow down")
		})
	}
}

func TestStream(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		events := []string{
			`{"type":"message_start"}`,
			`{"type":"content_block_delta","delta":{"type":"text_delta","text":"Hel"}}`,
			`{"type":"ping"}`,
			`{"type":"content_block_delta","delta":{"type":"text_delta","text":"lo"}}`,
			`{"type":"message_stop"}`,
		}
		for _, e := range events {
			fmt.Fprintf(w, "event: x\ndata: %s\n\n", e)
		}
	})

	st, err := svc.Stream(context.Background(), conversation, driven.GenerateOptions{})
	require.NoError(t, err)
	defer st.Close()

	var got []string
	for st.Next() {
		got = append(got, st.Fragment())
	}
	require.NoError(t, st.Err())
	assert.Equal(t, []string{"Hel", "lo"}, got)
	assert.False(t, st.Next())
}

func TestStream_ErrorEvent(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"text\":\"a\"}}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"error\",\"error\":{\"message\":\"overloaded\"}}\n\n")
	})

	st, err := svc.Stream(context.Background(), conversation, driven.GenerateOptions{})
	require.NoError(t, err)
	defer st.Close()

	assert.True(t, st.Next())
	assert.False(t, st.Next())
	assert.ErrorIs(t, st.Err(), domain.ErrProvider)
	assert.Contains(t, st.Err().Error(), "overloaded")
}

func TestPing(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	assert.NoError(t, svc.Ping(context.Background()))
	assert.Equal(t, DefaultModel, svc.ModelName())
}
