// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/chunkwise/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/chunkwise/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/chunkwise/internal/core/domain"
)

// State represents the current chat state for display.
type State string

const (
	StateReady      State = "ready"
	StateRetrieving State = "retrieving"
	StateStreaming  State = "streaming"
	StateAnswered   State = "answered"
	StateError      State = "error"
	StateHelp       State = "help"
)

// Bar displays chat status and keybinding hints.
type Bar struct {
	styles      *styles.Styles
	keymap      *keymap.KeyMap
	help        help.Model
	state       State
	message     string
	sourceCount int
	mode        domain.RetrievalMode
	width       int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	h := help.New()
	h.ShortSeparator = " | "
	return &Bar{
		styles: s,
		keymap: km,
		help:   h,
		state:  StateReady,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update is a no-op; the bar is driven through its setters.
func (s *Bar) Update(tea.Msg) (*Bar, tea.Cmd) {
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	switch s.state {
	case StateRetrieving:
		return s.styles.Muted.Render("Retrieving context...")
	case StateStreaming:
		return s.styles.Normal.Render(fmt.Sprintf("Answering from %s", s.sourceSummary()))
	case StateAnswered:
		label := s.styles.Normal.Render(fmt.Sprintf("Answered from %s", s.sourceSummary()))
		if s.mode.IsDegraded() {
			label += " " + s.styles.Warning.Render("(unranked)")
		}
		return label
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		}
		return s.styles.Error.Render("Error")
	case StateHelp:
		return s.styles.Normal.Render("Help")
	}
	return s.styles.Muted.Render("Ready")
}

func (s *Bar) sourceSummary() string {
	if s.sourceCount == 1 {
		return "1 source"
	}
	return fmt.Sprintf("%d sources", s.sourceCount)
}

func (s *Bar) renderRight() string {
	var bindings []key.Binding
	switch s.state {
	case StateReady, StateStreaming, StateAnswered:
		bindings = s.keymap.ChatHelp()
	default:
		bindings = s.keymap.ShortHelp()
	}

	return s.help.ShortHelpView(bindings)
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a custom message shown in the error state.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetSources records how many sources the current answer used and how they were ranked.
func (s *Bar) SetSources(count int, mode domain.RetrievalMode) {
	s.sourceCount = count
	s.mode = mode
}

// SourceCount returns the current source count.
func (s *Bar) SourceCount() int {
	return s.sourceCount
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to its default state.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.sourceCount = 0
	s.mode = ""
}
