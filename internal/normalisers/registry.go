package normalisers

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches raw documents to normalisers by MIME type or extension.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates a registry holding the given normalisers.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	r := &Registry{}
	for _, n := range normalisers {
		r.Register(n)
	}
	return r
}

// Register adds a normaliser, keeping the list ordered by priority.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalisers = append(r.normalisers, n)
	sort.SliceStable(r.normalisers, func(i, j int) bool {
		return r.normalisers[i].Priority() > r.normalisers[j].Priority()
	})
}

// Normalise transforms a raw document using the best matching normaliser.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	n := r.match(raw.MIMEType, nameOf(raw))
	if n == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, nameOf(raw))
	}
	return n.Normalise(ctx, raw)
}

// Supports reports whether a file name or MIME type can be normalised.
func (r *Registry) Supports(nameOrMIME string) bool {
	if strings.Contains(nameOrMIME, "/") && filepath.Ext(nameOrMIME) == "" {
		return r.match(nameOrMIME, "") != nil
	}
	return r.match("", nameOrMIME) != nil
}

// Extensions returns every registered file extension.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, n := range r.normalisers {
		out = append(out, n.SupportedExtensions()...)
	}
	return out
}

func (r *Registry) match(mimeType, name string) driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ext := strings.ToLower(filepath.Ext(name))
	mimeType = baseMIME(mimeType)

	for _, n := range r.normalisers {
		if mimeType != "" && contains(n.SupportedMIMETypes(), mimeType) {
			return n
		}
		if ext != "" && contains(n.SupportedExtensions(), ext) {
			return n
		}
	}
	return nil
}

// nameOf returns the file name used for extension matching.
func nameOf(raw *domain.RawDocument) string {
	if raw.Name != "" {
		return raw.Name
	}
	return filepath.Base(raw.URI)
}

// baseMIME strips parameters such as "; charset=utf-8".
func baseMIME(m string) string {
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = m[:i]
	}
	return strings.ToLower(strings.TrimSpace(m))
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
