package normalisers

import (
	"github.com/custodia-labs/chunkwise/internal/normalisers/html"
	"github.com/custodia-labs/chunkwise/internal/normalisers/markdown"
	"github.com/custodia-labs/chunkwise/internal/normalisers/pdf"
	"github.com/custodia-labs/chunkwise/internal/normalisers/plaintext"
)

// NewDefaultRegistry registers the plain text, Markdown, HTML and PDF
// normalisers.
// pdfURLTemplate may be empty; see pdf.WithURLTemplate.
func NewDefaultRegistry(pdfURLTemplate string) *Registry {
	return NewRegistry(
		plaintext.New(),
		markdown.New(),
		html.New(),
		pdf.New(pdf.WithURLTemplate(pdfURLTemplate)),
	)
}
