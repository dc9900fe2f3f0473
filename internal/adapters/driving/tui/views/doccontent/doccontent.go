// Package doccontent provides the document chunks view component for the TUI.
package doccontent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/chunkwise/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/chunkwise/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driving"
)

// ErrNoDocumentService indicates that no document service was provided.
var ErrNoDocumentService = errors.New("document service not available")

// View shows a document as its ordered chunks.
type View struct {
	styles          *styles.Styles
	documentService driving.DocumentService
	ctx             context.Context

	document     *domain.Document
	chunks       []domain.Chunk
	lines        []string
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
}

// NewView creates a new document chunks view.
func NewView(s *styles.Styles, documentService driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:          s,
		documentService: documentService,
		ctx:             context.Background(),
		width:           80,
		height:          24,
	}
}

// WithContext sets the context service calls run under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetDocument sets the document and returns a command loading its chunks.
func (v *View) SetDocument(doc *domain.Document) tea.Cmd {
	v.document = doc
	v.chunks = nil
	v.lines = nil
	v.scrollOffset = 0
	v.err = nil
	v.loading = true
	return v.loadChunks()
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

func (v *View) loadChunks() tea.Cmd {
	svc, ctx, doc := v.documentService, v.ctx, v.document
	return func() tea.Msg {
		if doc == nil || svc == nil {
			return messages.DocumentChunksLoaded{Err: ErrNoDocumentService}
		}
		chunks, err := svc.Chunks(ctx, doc.ID)
		return messages.DocumentChunksLoaded{DocumentID: doc.ID, Chunks: chunks, Err: err}
	}
}

// Update handles messages for the chunks view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DocumentChunksLoaded:
		if v.document != nil && msg.DocumentID != "" && msg.DocumentID != v.document.ID {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.chunks = msg.Chunks
		v.err = nil
		v.layout()
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "pgup", "ctrl+u":
		v.scrollOffset = max(v.scrollOffset-v.visibleLines(), 0)
	case "pgdown", "ctrl+d":
		v.scrollOffset = min(v.scrollOffset+v.visibleLines(), v.maxScrollOffset())
	case "home", "g":
		v.scrollOffset = 0
	case "end", "G":
		v.scrollOffset = v.maxScrollOffset()
	case "n":
		v.jumpChunk(1)
	case "p":
		v.jumpChunk(-1)
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewDocuments}
		}
	}

	return v, nil
}

// jumpChunk scrolls to the next or previous chunk header.
func (v *View) jumpChunk(dir int) {
	for i := v.scrollOffset + dir; i >= 0 && i < len(v.lines); i += dir {
		if strings.HasPrefix(v.lines[i], "─── chunk ") {
			v.scrollOffset = min(i, v.maxScrollOffset())
			return
		}
	}
}

// layout renders the chunks into wrapped lines for the current width.
func (v *View) layout() {
	v.lines = nil
	width := max(v.width-4, 20)
	for _, c := range v.chunks {
		total := c.Metadata.TotalChunks
		if total == 0 {
			total = len(v.chunks)
		}
		v.lines = append(v.lines, fmt.Sprintf("─── chunk %d/%d (%d chars) ───",
			c.Metadata.ChunkIndex+1, total, len([]rune(c.Text))))
		for _, raw := range strings.Split(c.Text, "\n") {
			v.lines = append(v.lines, wrap(raw, width)...)
		}
		v.lines = append(v.lines, "")
	}
	v.scrollOffset = min(v.scrollOffset, v.maxScrollOffset())
}

func wrap(line string, width int) []string {
	runes := []rune(line)
	if len(runes) <= width {
		return []string{line}
	}
	var out []string
	for len(runes) > width {
		out = append(out, string(runes[:width]))
		runes = runes[width:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

func (v *View) visibleLines() int {
	return max(v.height-6, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the chunks view.
func (v *View) View() string {
	var b strings.Builder

	title := "Document Chunks"
	if v.document != nil {
		title = v.document.Name
		if title == "" {
			title = v.document.ID
		}
	}
	b.WriteString(v.styles.Title.Render(title))
	if len(v.chunks) > 0 {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  %d chunks", len(v.chunks))))
	}
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(max(v.width-4, 1), 60)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading chunks..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.lines) == 0:
		b.WriteString(v.styles.Muted.Render("(Not chunked yet)"))
	default:
		visible := v.visibleLines()
		end := min(v.scrollOffset+visible, len(v.lines))
		for _, line := range v.lines[v.scrollOffset:end] {
			if strings.HasPrefix(line, "─── chunk ") {
				b.WriteString(v.styles.Subtitle.Render(line))
			} else {
				b.WriteString(v.styles.Normal.Render(line))
			}
			b.WriteString("\n")
		}
		if len(v.lines) > visible {
			pct := 0
			if m := v.maxScrollOffset(); m > 0 {
				pct = v.scrollOffset * 100 / m
			}
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d%%] Line %d-%d of %d",
				pct, v.scrollOffset+1, end, len(v.lines))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [n/p] next/prev chunk  [g/G] top/bottom  [esc] back"))
	return b.String()
}

// SetDimensions sets the view dimensions and re-wraps the chunks.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.layout()
}

// Document returns the current document.
func (v *View) Document() *domain.Document {
	return v.document
}

// Chunks returns the loaded chunks.
func (v *View) Chunks() []domain.Chunk {
	return v.chunks
}

// ScrollOffset returns the first visible line.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
