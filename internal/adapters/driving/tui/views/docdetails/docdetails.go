// Package docdetails provides the document details view component for the TUI.
package docdetails

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/chunkwise/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/chunkwise/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driving"
)

const timeLayout = "2006-01-02 15:04:05"

// View is the document details view.
type View struct {
	styles *styles.Styles

	details      *driving.DocumentDetails
	scrollOffset int
	width        int
	height       int
	err          error
}

// NewView creates a new document details view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{styles: s, width: 80, height: 24}
}

// SetDetails sets the document details to display.
func (v *View) SetDetails(details *driving.DocumentDetails) {
	v.details = details
	v.scrollOffset = 0
	v.err = nil
}

// SetError sets an error to display.
func (v *View) SetError(err error) {
	v.err = err
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the document details view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if v.scrollOffset > 0 {
				v.scrollOffset--
			}
		case "down", "j":
			if v.scrollOffset < v.maxScrollOffset() {
				v.scrollOffset++
			}
		case "esc":
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewDocuments}
			}
		}

	case messages.DocumentDetailsLoaded:
		if msg.Err != nil {
			v.details = nil
			v.SetError(msg.Err)
			break
		}
		v.SetDetails(msg.Details)

	case messages.ErrorOccurred:
		v.err = msg.Err
	}

	return v, nil
}

func (v *View) visibleLines() int {
	return max(v.height-6, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.fields())-v.visibleLines(), 0)
}

type field struct {
	label string
	value string
}

func (v *View) fields() []field {
	d := v.details
	if d == nil {
		return nil
	}

	chunked := "no"
	if d.Chunked {
		chunked = "yes"
	}
	out := []field{
		{"ID", d.ID},
		{"Name", d.Name},
	}
	if d.Source != "" {
		out = append(out, field{"Source", d.Source})
	}
	if d.Type != "" {
		out = append(out, field{"Type", d.Type})
	}
	if d.URL != "" {
		out = append(out, field{"URL", d.URL})
	}
	out = append(out,
		field{"Characters", fmt.Sprintf("%d", d.Characters)},
		field{"Chunked", chunked},
		field{"Chunks", fmt.Sprintf("%d", d.ChunkCount)},
		field{"Embedded", fmt.Sprintf("%d/%d", d.Embedded, d.ChunkCount)},
	)
	if !d.CreatedAt.IsZero() {
		out = append(out, field{"Created", d.CreatedAt.Format(timeLayout)})
	}
	if !d.UpdatedAt.IsZero() {
		out = append(out, field{"Updated", d.UpdatedAt.Format(timeLayout)})
	}
	return out
}

// View renders the document details view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Document Details"))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(max(v.width-4, 1), 60)))
	b.WriteString("\n\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case v.details == nil:
		b.WriteString(v.styles.Muted.Render("No document details available"))
	default:
		fields := v.fields()
		end := min(v.scrollOffset+v.visibleLines(), len(fields))
		for _, f := range fields[v.scrollOffset:end] {
			b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("%-12s", f.label+":")))
			b.WriteString(" ")
			b.WriteString(v.valueStyle(f).Render(f.value))
			b.WriteString("\n")
		}
		if len(fields) > v.visibleLines() {
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [Line %d-%d of %d]", v.scrollOffset+1, end, len(fields))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] scroll  [esc] back"))
	return b.String()
}

// valueStyle flags partially embedded documents.
func (v *View) valueStyle(f field) lipgloss.Style {
	if f.label == "Embedded" && v.details.Embedded < v.details.ChunkCount {
		return v.styles.Warning
	}
	return v.styles.Normal
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Details returns the current document details.
func (v *View) Details() *driving.DocumentDetails {
	return v.details
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
