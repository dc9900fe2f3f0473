// Package plaintext normalises plain text files.
package plaintext

import (
	"context"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/plain", "text/csv", "application/json"}
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".txt", ".text", ".csv", ".json", ".log"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise converts raw bytes to a document. Invalid UTF-8 is replaced.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := string(raw.Content)
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "�")
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")

	name := raw.Name
	if name == "" {
		name = filepath.Base(raw.URI)
	}
	source := raw.Source
	if source == "" {
		source = "file"
	}

	now := time.Now()
	return &driven.NormaliseResult{
		Document: domain.Document{
			ID:        uuid.New().String(),
			Name:      name,
			Content:   content,
			Source:    source,
			Type:      typeOf(name, "txt"),
			Path:      raw.URI,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}, nil
}

// typeOf returns the lowercased extension without the dot, or fallback.
func typeOf(name, fallback string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return fallback
	}
	return ext
}
