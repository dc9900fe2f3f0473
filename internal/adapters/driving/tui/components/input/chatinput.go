// Package input provides text input components for the TUI.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/chunkwise/internal/adapters/driving/tui/styles"
)

// ChatInput wraps a bubbles textinput for chat questions and recalls
// earlier questions with the arrow keys.
type ChatInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int

	asked  []string
	recall int
}

// NewChatInput creates a focused chat input.
func NewChatInput(s *styles.Styles) *ChatInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask a question about your documents..."
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 60

	return &ChatInput{
		textinput: ti,
		styles:    s,
		width:     60,
	}
}

// Init initialises the input.
func (c *ChatInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (c *ChatInput) Update(msg tea.Msg) (*ChatInput, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && c.textinput.Focused() {
		switch key.Type {
		case tea.KeyUp:
			c.step(-1)
			return c, nil
		case tea.KeyDown:
			c.step(1)
			return c, nil
		}
	}
	var cmd tea.Cmd
	c.textinput, cmd = c.textinput.Update(msg)
	return c, cmd
}

func (c *ChatInput) step(delta int) {
	if len(c.asked) == 0 {
		return
	}
	c.recall += delta
	if c.recall < 0 {
		c.recall = 0
	}
	if c.recall >= len(c.asked) {
		c.recall = len(c.asked)
		c.textinput.Reset()
		return
	}
	c.textinput.SetValue(c.asked[c.recall])
	c.textinput.CursorEnd()
}

// Submit returns the trimmed question and clears the input.
// Blank input returns "" and is not recorded.
func (c *ChatInput) Submit() string {
	q := strings.TrimSpace(c.textinput.Value())
	c.textinput.Reset()
	if q == "" {
		return ""
	}
	c.asked = append(c.asked, q)
	c.recall = len(c.asked)
	return q
}

// View renders the input.
func (c *ChatInput) View() string {
	label := c.styles.UserTurn.Render("> ")
	field := c.styles.InputField.Render(c.textinput.View())
	//nolint:misspell // lipgloss.Center is the library constant
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

// Value returns the current input value.
func (c *ChatInput) Value() string {
	return c.textinput.Value()
}

// SetValue sets the input value.
func (c *ChatInput) SetValue(value string) {
	c.textinput.SetValue(value)
}

// Focus sets focus on the input.
func (c *ChatInput) Focus() tea.Cmd {
	return c.textinput.Focus()
}

// Blur removes focus from the input.
func (c *ChatInput) Blur() {
	c.textinput.Blur()
}

// Focused returns whether the input is focused.
func (c *ChatInput) Focused() bool {
	return c.textinput.Focused()
}

// SetWidth sets the width of the input.
func (c *ChatInput) SetWidth(width int) {
	c.width = width
	inputWidth := width - 8
	if inputWidth < 20 {
		inputWidth = 20
	}
	c.textinput.Width = inputWidth
}

// Width returns the current width.
func (c *ChatInput) Width() int {
	return c.width
}

// Reset clears the input and the recall history.
func (c *ChatInput) Reset() {
	c.textinput.Reset()
	c.asked = nil
	c.recall = 0
}
