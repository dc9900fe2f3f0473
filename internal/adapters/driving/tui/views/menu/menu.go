// Package menu is the TUI start screen.
package menu

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/chunkwise/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/chunkwise/internal/adapters/driving/tui/styles"
)

// Item is one menu entry. Shortcut jumps straight to it.
type Item struct {
	Label    string
	Hint     string
	Shortcut string
	View     messages.ViewType
	Quit     bool
}

// View lists the top-level screens.
type View struct {
	styles   *styles.Styles
	items    []Item
	selected int
	width    int
	height   int
	ready    bool
}

// NewView creates the menu. Documents is listed only when withDocuments is set.
func NewView(s *styles.Styles, withDocuments bool) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	items := []Item{{Label: "Chat", Hint: "ask questions about your documents", Shortcut: "c", View: messages.ViewChat}}
	if withDocuments {
		items = append(items, Item{Label: "Documents", Hint: "browse ingested documents and chunks", Shortcut: "d", View: messages.ViewDocuments})
	}
	items = append(items,
		Item{Label: "Help", Hint: "keybindings", Shortcut: "?", View: messages.ViewHelp},
		Item{Label: "Quit", Shortcut: "q", Quit: true},
	)

	return &View{styles: s, items: items, width: 80, height: 24}
}

// Init implements the view contract.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update moves the cursor (wrapping at both ends) and opens entries.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch k := msg.String(); k {
		case "up", "k":
			v.selected = (v.selected + len(v.items) - 1) % len(v.items)
		case "down", "j":
			v.selected = (v.selected + 1) % len(v.items)
		case "enter":
			return v, v.open(v.items[v.selected])
		default:
			for i, item := range v.items {
				if item.Shortcut == k {
					v.selected = i
					return v, v.open(item)
				}
			}
		}
	}
	return v, nil
}

func (v *View) open(item Item) tea.Cmd {
	if item.Quit {
		return func() tea.Msg { return messages.Quit{} }
	}
	return func() tea.Msg { return messages.ViewChanged{View: item.View} }
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("chunkwise"))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Muted.Render("Retrieval-augmented chat over your documents"))
	b.WriteString("\n\n")

	for i, item := range v.items {
		label := fmt.Sprintf("[%s] %s", item.Shortcut, item.Label)
		if i != v.selected {
			b.WriteString("  " + v.styles.Normal.Render(label) + "\n")
			continue
		}
		b.WriteString("> " + v.styles.Subtitle.Render(label))
		if item.Hint != "" {
			b.WriteString("  " + v.styles.Muted.Render(item.Hint))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] navigate  [enter] open  [q] quit"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the cursor position.
func (v *View) Selected() int {
	return v.selected
}

// Items returns the menu entries.
func (v *View) Items() []Item {
	return v.items
}
