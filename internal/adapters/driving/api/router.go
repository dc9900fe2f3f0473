package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/custodia-labs/chunkwise/internal/logger"
)

// NewRouter mounts the handlers under /api.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  log.New(logger.Writer(), "", log.LstdFlags),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Post("/chunks", h.Chunk)
		r.Post("/ingest", h.Ingest)
		r.Post("/ingest/upload", h.Upload)
		r.Post("/query", h.Query)
		r.Post("/chat", h.Chat)

		if h.documents != nil {
			r.Get("/documents", h.ListDocuments)
			r.Get("/documents/{documentID}", h.GetDocument)
			r.Get("/documents/{documentID}/chunks", h.DocumentChunks)
			r.Delete("/documents/{documentID}", h.DeleteDocument)
		}
	})

	return r
}
