// Package pdf normalises PDF files using github.com/ledongthuc/pdf.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// TitleSeparator splits exported page names shaped "<Title> _ <Site>.pdf".
const TitleSeparator = " _ "

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// TextExtractor pulls plain text out of PDF bytes.
type TextExtractor interface {
	Extract(data []byte) (string, error)
}

// ledongthucExtractor reads text with github.com/ledongthuc/pdf.
type ledongthucExtractor struct{}

// Extract returns the plain text of every page.
// The parser panics on some malformed files, so panics become errors.
func (ledongthucExtractor) Extract(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	rdr, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf buffer: %w", err)
	}
	return buf.String(), nil
}

// Normaliser handles PDF documents.
type Normaliser struct {
	extractor   TextExtractor
	urlTemplate string
}

// Option configures the PDF normaliser.
type Option func(*Normaliser)

// WithURLTemplate derives document URLs from file names.
// "{slug}" in tpl is replaced by the slugified title of names shaped
// "<Title> _ <Site>.pdf". An empty template disables derivation.
func WithURLTemplate(tpl string) Option {
	return func(n *Normaliser) {
		n.urlTemplate = tpl
	}
}

// WithExtractor replaces the text extractor.
func WithExtractor(e TextExtractor) Option {
	return func(n *Normaliser) {
		n.extractor = e
	}
}

// New creates a new PDF normaliser.
func New(opts ...Option) *Normaliser {
	n := &Normaliser{extractor: ledongthucExtractor{}}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the text of a PDF document.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := raw.Name
	if name == "" {
		name = filepath.Base(raw.URI)
	}

	text, err := n.extractor.Extract(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, name, err)
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
			Content:   strings.TrimSpace(text),
			Source:    source,
			Type:      "pdf",
			URL:       DeriveURL(name, n.urlTemplate),
			Path:      raw.URI,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}, nil
}

// DeriveURL builds a URL from a "<Title> _ <Site>.pdf" file name.
// It returns "" when tpl is empty or the name has no title separator.
func DeriveURL(name, tpl string) string {
	if tpl == "" {
		return ""
	}
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	i := strings.LastIndex(base, TitleSeparator)
	if i <= 0 {
		return ""
	}
	return strings.ReplaceAll(tpl, "{slug}", Slug(base[:i]))
}

// Slug lowercases s and replaces every run of non-alphanumerics with "-".
func Slug(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
