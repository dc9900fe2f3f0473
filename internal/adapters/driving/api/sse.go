package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/custodia-labs/chunkwise/internal/core/ports/driving"
	"github.com/custodia-labs/chunkwise/internal/logger"
)

// doneMarker terminates a successful event stream.
const doneMarker = "[DONE]"

// sseWriter writes server-sent events, flushing after each one.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// newSSEWriter sets the event-stream headers. It fails when the
// ResponseWriter cannot flush.
func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("streaming unsupported by response writer")
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &sseWriter{w: w, flusher: flusher}, nil
}

// Event writes a named event with a JSON payload.
func (s *sseWriter) Event(name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.write(fmt.Sprintf("event: %s\ndata: %s\n\n", name, data))
}

// Data writes an unnamed event with a JSON payload.
func (s *sseWriter) Data(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.write(fmt.Sprintf("data: %s\n\n", data))
}

// Done writes the terminal marker.
func (s *sseWriter) Done() error {
	return s.write("data: " + doneMarker + "\n\n")
}

func (s *sseWriter) write(frame string) error {
	if _, err := fmt.Fprint(s.w, frame); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// contentEvent carries one generated fragment.
type contentEvent struct {
	Content string `json:"content"`
}

// streamFragments forwards every fragment as it arrives and closes the iterator.
// A provider failure emits an error event and no terminal marker. A client
// disconnect stops the stream silently.
func streamFragments(ctx context.Context, sse *sseWriter, fragments driving.FragmentIterator) {
	defer fragments.Close()

	for fragments.Next() {
		if ctx.Err() != nil {
			return
		}
		if err := sse.Data(contentEvent{Content: fragments.Fragment()}); err != nil {
			logger.Debug("Write stream fragment: %v", err)
			return
		}
	}

	if err := fragments.Err(); err != nil {
		if ctx.Err() != nil {
			logger.Debug("Stream abandoned by client: %v", err)
			return
		}
		_, msg := classify(err)
		logger.Error("Stream failed: %v", err)
		_ = sse.Event("error", errorResponse{Error: msg})
		return
	}
	if ctx.Err() != nil {
		return
	}
	_ = sse.Done()
}
