package html

import (
	"context"
	"html"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML pages.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise strips markup from the page and keeps its readable text.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	page := string(raw.Content)
	content := visibleText(page)
	if title := pageTitle(page); title != "" && !strings.HasPrefix(content, title) {
		content = title + "\n\n" + content
	}

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
			Type:      "html",
			URL:       canonicalURL(page),
			Path:      raw.URI,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}, nil
}

var (
	titleTag     = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	canonicalTag = regexp.MustCompile(`(?is)<link[^>]+rel=["']canonical["'][^>]*>`)
	ogURLTag     = regexp.MustCompile(`(?is)<meta[^>]+property=["']og:url["'][^>]*>`)
	hrefAttr     = regexp.MustCompile(`(?is)(?:href|content)=["']([^"']+)["']`)

	// Elements whose content is never shown.
	hiddenBlocks = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`),
		regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
		regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`),
		regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`),
		regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`),
		regexp.MustCompile(`(?s)<!--.*?-->`),
	}

	// Tags that start or end a block; each becomes a line break.
	blockTag = regexp.MustCompile(`(?i)</?(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article|header|footer|nav)\b[^>]*>`)
	anyTag   = regexp.MustCompile(`<[^>]+>`)
	spaces   = regexp.MustCompile(`[ \t\x{00a0}]+`)
)

func pageTitle(page string) string {
	m := titleTag.FindStringSubmatch(page)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(spaces.ReplaceAllString(html.UnescapeString(m[1]), " "))
}

// canonicalURL returns the canonical link, then og:url, or "".
func canonicalURL(page string) string {
	for _, tag := range []*regexp.Regexp{canonicalTag, ogURLTag} {
		el := tag.FindString(page)
		if el == "" {
			continue
		}
		if m := hrefAttr.FindStringSubmatch(el); len(m) == 2 {
			return html.UnescapeString(m[1])
		}
	}
	return ""
}

// visibleText drops hidden elements and tags and keeps one paragraph per
// non-empty line.
func visibleText(page string) string {
	for _, re := range hiddenBlocks {
		page = re.ReplaceAllString(page, "")
	}
	page = blockTag.ReplaceAllString(page, "\n")
	page = anyTag.ReplaceAllString(page, "")
	page = html.UnescapeString(page)

	var paragraphs []string
	for _, line := range strings.Split(page, "\n") {
		line = strings.TrimSpace(spaces.ReplaceAllString(line, " "))
		if line != "" {
			paragraphs = append(paragraphs, line)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}
