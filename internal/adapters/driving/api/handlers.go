package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driving"
	"github.com/custodia-labs/chunkwise/internal/logger"
)

// Request size limits.
const (
	maxJSONBody   = 8 << 20
	maxUploadBody = 64 << 20
	maxUploadMem  = 32 << 20
)

// Handler serves the API routes.
type Handler struct {
	chunking  driving.ChunkingService
	ingest    driving.IngestService
	rag       driving.RAGService
	documents driving.DocumentService
}

// NewHandler creates a handler over the given ports.
func NewHandler(ports *Ports) *Handler {
	return &Handler{
		chunking:  ports.Chunking,
		ingest:    ports.Ingest,
		rag:       ports.RAG,
		documents: ports.Documents,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("Encode response: %v", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, msgInvalidBody)
	}
	return nil
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chunkRequest struct {
	Text      string `json:"text"`
	Method    string `json:"method"`
	Strategy  string `json:"strategy"`
	ChunkSize int    `json:"chunkSize"`
	Overlap   int    `json:"overlap"`
	Delimiter string `json:"delimiter"`
}

type chunkResponse struct {
	Chunks []driving.ChunkPreview `json:"chunks"`
}

// Chunk splits the posted text without storing it.
func (h *Handler) Chunk(w http.ResponseWriter, r *http.Request) {
	var req chunkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Text == "" {
		writeError(w, r, fmt.Errorf("%w: text is required", domain.ErrInvalidInput))
		return
	}

	name := req.Strategy
	if name == "" {
		name = req.Method
	}
	if name == "" {
		name = string(domain.StrategyFixedSize)
		logger.Debug("Chunk request names no strategy, using %s", name)
	}
	strategy, err := domain.ParseStrategy(name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	chunks, err := h.chunking.Chunk(r.Context(), driving.ChunkRequest{
		Text:      req.Text,
		Strategy:  strategy,
		ChunkSize: req.ChunkSize,
		Overlap:   req.Overlap,
		Delimiter: req.Delimiter,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if chunks == nil {
		chunks = []driving.ChunkPreview{}
	}
	writeJSON(w, http.StatusOK, chunkResponse{Chunks: chunks})
}

type ingestRequest struct {
	Documents []driving.DocumentInput `json:"documents"`
	Strategy  string                  `json:"strategy"`
	ChunkSize int                     `json:"chunkSize"`
	Overlap   int                     `json:"overlap"`
	Delimiter string                  `json:"delimiter"`
	Force     bool                    `json:"force"`
}

// Ingest stores the posted documents and runs a pipeline pass.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, r, fmt.Errorf("%w: documents is required", domain.ErrInvalidInput))
		return
	}

	report, err := h.ingest.IngestDocuments(r.Context(), req.Documents, driving.IngestOptions{
		Strategy:  domain.Strategy(req.Strategy),
		ChunkSize: req.ChunkSize,
		Overlap:   req.Overlap,
		Delimiter: req.Delimiter,
		Force:     req.Force,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, normaliseReport(report))
}

// Upload ingests multipart files (pdf, txt, md) from the "files" field.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadMem); err != nil {
		writeError(w, r, fmt.Errorf("%w: expected multipart form with files", domain.ErrInvalidInput))
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck // temp file cleanup

	headers := r.MultipartForm.File["files"]
	headers = append(headers, r.MultipartForm.File["files[]"]...)
	if len(headers) == 0 {
		writeError(w, r, fmt.Errorf("%w: files is required", domain.ErrInvalidInput))
		return
	}

	opts, err := uploadOptions(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	files := make([]domain.RawDocument, 0, len(headers))
	for _, fh := range headers {
		raw, err := readUpload(fh)
		if err != nil {
			writeError(w, r, err)
			return
		}
		files = append(files, raw)
	}

	report, err := h.ingest.IngestFiles(r.Context(), files, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, normaliseReport(report))
}

func uploadOptions(r *http.Request) (driving.IngestOptions, error) {
	opts := driving.IngestOptions{
		Strategy:  domain.Strategy(r.FormValue("strategy")),
		Delimiter: r.FormValue("delimiter"),
	}
	for field, dst := range map[string]*int{"chunkSize": &opts.ChunkSize, "overlap": &opts.Overlap} {
		v := r.FormValue(field)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, field)
		}
		*dst = n
	}
	if v := r.FormValue("force"); v != "" {
		force, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("%w: force must be a boolean", domain.ErrInvalidInput)
		}
		opts.Force = force
	}
	return opts, nil
}

func readUpload(fh *multipart.FileHeader) (domain.RawDocument, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.RawDocument{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return domain.RawDocument{}, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	name := filepath.Base(fh.Filename)
	return domain.RawDocument{
		URI:      fh.Filename,
		Name:     name,
		MIMEType: fh.Header.Get("Content-Type"),
		Content:  content,
		Source:   "upload",
	}, nil
}

func normaliseReport(report *driving.IngestReport) *driving.IngestReport {
	if report.Results == nil {
		report.Results = []driving.IngestResult{}
	}
	return report
}

type queryRequest struct {
	Query               string        `json:"query"`
	ConversationHistory []domain.Turn `json:"conversationHistory"`
	Stream              bool          `json:"stream"`
}

type queryResponse struct {
	Query    string               `json:"query"`
	Response string               `json:"response"`
	Sources  []domain.Source      `json:"sources"`
	Mode     domain.RetrievalMode `json:"mode"`
}

type sourcesEvent struct {
	Sources []domain.Source      `json:"sources"`
	Mode    domain.RetrievalMode `json:"mode"`
}

// Query answers a question from the stored documents.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, r, fmt.Errorf("%w: query is required", domain.ErrInvalidInput))
		return
	}

	if !req.Stream {
		answer, err := h.rag.Answer(r.Context(), req.Query, req.ConversationHistory)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, queryResponse{
			Query:    answer.Query,
			Response: answer.Response,
			Sources:  nonNilSources(answer.Sources),
			Mode:     answer.Mode,
		})
		return
	}

	stream, err := h.rag.Stream(r.Context(), req.Query, req.ConversationHistory)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sse, err := newSSEWriter(w)
	if err != nil {
		stream.Fragments.Close()
		writeError(w, r, err)
		return
	}
	if err := sse.Event("sources", sourcesEvent{Sources: nonNilSources(stream.Sources), Mode: stream.Mode}); err != nil {
		stream.Fragments.Close()
		return
	}
	streamFragments(r.Context(), sse, stream.Fragments)
}

type chatRequest struct {
	Query               string        `json:"query"`
	Context             string        `json:"context"`
	ConversationHistory []domain.Turn `json:"conversationHistory"`
	Stream              bool          `json:"stream"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// Chat answers against caller-supplied context without retrieval.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, r, fmt.Errorf("%w: query is required", domain.ErrInvalidInput))
		return
	}

	response, fragments, err := h.rag.Chat(r.Context(), driving.ChatRequest{
		Query:   req.Query,
		Context: req.Context,
		History: req.ConversationHistory,
		Stream:  req.Stream,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if fragments == nil {
		writeJSON(w, http.StatusOK, chatResponse{Response: response})
		return
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		fragments.Close()
		writeError(w, r, err)
		return
	}
	streamFragments(r.Context(), sse, fragments)
}

// ListDocuments returns every stored document without its content.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.documents.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]*driving.DocumentDetails, 0, len(docs))
	for i := range docs {
		details, err := h.documents.GetDetails(r.Context(), docs[i].ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			writeError(w, r, err)
			return
		}
		out = append(out, details)
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": out})
}

// GetDocument returns one document's details.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	details, err := h.documents.GetDetails(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

type chunkView struct {
	ID         string               `json:"id"`
	DocumentID string               `json:"documentId"`
	Text       string               `json:"text"`
	Metadata   domain.ChunkMetadata `json:"metadata"`
	Processed  bool                 `json:"processed"`
}

// DocumentChunks returns a document's chunks in order.
func (h *Handler) DocumentChunks(w http.ResponseWriter, r *http.Request) {
	chunks, err := h.documents.Chunks(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]chunkView, len(chunks))
	for i := range chunks {
		out[i] = chunkView{
			ID:         chunks[i].ID,
			DocumentID: chunks[i].DocumentID,
			Text:       chunks[i].Text,
			Metadata:   chunks[i].Metadata,
			Processed:  chunks[i].Processed,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"chunks": out})
}

// DeleteDocument removes a document with its chunks and embeddings.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.documents.Delete(r.Context(), chi.URLParam(r, "documentID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func nonNilSources(sources []domain.Source) []domain.Source {
	if sources == nil {
		return []domain.Source{}
	}
	return sources
}
