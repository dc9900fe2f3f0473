// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/chunkwise/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/chunkwise/internal/core/domain"
)

// SourceList displays the chunks an answer was conditioned on.
type SourceList struct {
	sources  []domain.Source
	mode     domain.RetrievalMode
	selected int
	expanded bool
	styles   *styles.Styles
	width    int
	height   int
}

// NewSourceList creates a new source list component.
func NewSourceList(s *styles.Styles) *SourceList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &SourceList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the source list.
func (r *SourceList) Init() tea.Cmd {
	return nil
}

// Update handles navigation. Enter toggles the full chunk text of the selection.
func (r *SourceList) Update(msg tea.Msg) (*SourceList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		case "enter":
			r.expanded = !r.expanded
		}
	}
	return r, nil
}

// View renders the source list.
func (r *SourceList) View() string {
	if len(r.sources) == 0 {
		return r.styles.Muted.Render("No sources")
	}

	header := fmt.Sprintf("Sources (%d)", len(r.sources))
	if r.mode.IsDegraded() {
		header += " unranked"
	}
	lines := []string{r.styles.Subtitle.Render(header), ""}

	visible := (r.height - 4) / 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if r.selected >= visible {
		start = r.selected - visible + 1
	}
	end := start + visible
	if end > len(r.sources) {
		end = len(r.sources)
	}

	for i := start; i < end; i++ {
		lines = append(lines, r.renderSource(i, &r.sources[i]))
	}
	return strings.Join(lines, "\n")
}

func (r *SourceList) renderSource(index int, src *domain.Source) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	name := src.DocumentName
	if name == "" {
		name = domain.UnknownDocument
	}
	if total := src.Metadata.TotalChunks; total > 0 {
		name = fmt.Sprintf("%s #%d/%d", name, src.Metadata.ChunkIndex+1, total)
	}
	maxName := r.width - 14
	if maxName < 10 {
		maxName = 10
	}
	name = truncate(name, maxName)

	label := fmt.Sprintf("%s[%d] %-*s", indicator, index+1, maxName, name)
	score := fmt.Sprintf("%.2f", src.Score)
	var head string
	if index == r.selected {
		head = r.styles.Selected.Render(label + "  " + score)
	} else {
		head = r.styles.Normal.Render(label+"  ") + r.styles.Score.Render(score)
	}

	text := strings.Join(strings.Fields(src.Text), " ")
	if !(r.expanded && index == r.selected) {
		maxPreview := r.width - 6
		if maxPreview < 20 {
			maxPreview = 20
		}
		text = truncate(text, maxPreview)
	}
	body := r.styles.Muted.Render("    " + text)
	if r.expanded && index == r.selected && src.URL != "" {
		body += "\n" + r.styles.Muted.Render("    "+src.URL)
	}
	return head + "\n" + body
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// SetSources replaces the listed sources and resets the selection.
func (r *SourceList) SetSources(sources []domain.Source, mode domain.RetrievalMode) {
	r.sources = sources
	r.mode = mode
	r.selected = 0
	r.expanded = false
}

// Sources returns the current sources.
func (r *SourceList) Sources() []domain.Source {
	return r.sources
}

// Selected returns the index of the selected source.
func (r *SourceList) Selected() int {
	return r.selected
}

// SetSelected sets the selected index.
func (r *SourceList) SetSelected(index int) {
	if index >= 0 && index < len(r.sources) {
		r.selected = index
	}
}

// SelectedSource returns the currently selected source, or nil if none.
func (r *SourceList) SelectedSource() *domain.Source {
	if r.selected < 0 || r.selected >= len(r.sources) {
		return nil
	}
	return &r.sources[r.selected]
}

// Expanded reports whether the selection shows its full text.
func (r *SourceList) Expanded() bool {
	return r.expanded
}

// MoveUp moves selection up.
func (r *SourceList) MoveUp() {
	if r.selected > 0 {
		r.selected--
		r.expanded = false
	}
}

// MoveDown moves selection down.
func (r *SourceList) MoveDown() {
	if r.selected < len(r.sources)-1 {
		r.selected++
		r.expanded = false
	}
}

// SetDimensions sets the component dimensions.
func (r *SourceList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of sources.
func (r *SourceList) Count() int {
	return len(r.sources)
}

// IsEmpty returns whether the list is empty.
func (r *SourceList) IsEmpty() bool {
	return len(r.sources) == 0
}
