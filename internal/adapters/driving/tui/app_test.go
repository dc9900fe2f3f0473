package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chunkwise/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/chunkwise/internal/core/domain"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	app, err := NewApp(&Ports{
		RAG: &mockRAGService{
			parts:   []string{"Hello", " world"},
			sources: []domain.Source{{DocumentName: "guide.md", Score: 0.9}},
		},
		Document: &mockDocumentService{docs: []domain.Document{{ID: "d1", Name: "guide.md", Chunked: true}}},
	})
	require.NoError(t, err)
	app.WithContext(context.Background())
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return app
}

// drive feeds cmd results back into the app until no command remains.
// Entering the chat view stops the chain since the input starts a
// cursor blink ticker.
func drive(app *App, cmd tea.Cmd) {
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			return
		}
		if _, ok := msg.(tea.BatchMsg); ok {
			return
		}
		_, cmd = app.Update(msg)
		if vc, ok := msg.(messages.ViewChanged); ok && vc.View == messages.ViewChat {
			return
		}
	}
}

func press(app *App, k tea.KeyMsg) tea.Cmd {
	_, cmd := app.Update(k)
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewApp_Validation(t *testing.T) {
	_, err := NewApp(nil)
	assert.ErrorIs(t, err, ErrInvalidPorts)

	_, err = NewApp(&Ports{})
	assert.ErrorIs(t, err, ErrMissingRAGService)
}

func TestApp_InitialState(t *testing.T) {
	app, err := NewApp(&Ports{RAG: &mockRAGService{}})
	require.NoError(t, err)

	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.NotNil(t, app.Init())

	app.SetDimensions(80, 24)
	assert.True(t, app.Ready())
	assert.Contains(t, app.View(), "Chat")
	assert.NotContains(t, app.View(), "Documents", "no document service configured")
}

func TestApp_ChatRoundTrip(t *testing.T) {
	app := newTestApp(t)

	drive(app, press(app, tea.KeyMsg{Type: tea.KeyEnter}))
	require.Equal(t, messages.ViewChat, app.CurrentView())

	for _, r := range "hi there" {
		press(app, runes(string(r)))
	}
	drive(app, press(app, tea.KeyMsg{Type: tea.KeyEnter}))

	assert.Equal(t, "Hello world", app.chatView.LastAnswer())
	view := app.View()
	assert.Contains(t, view, "Hello world")
	assert.Contains(t, view, "guide.md")
}

func TestApp_StreamReachesChatAfterLeaving(t *testing.T) {
	app := newTestApp(t)
	drive(app, press(app, tea.KeyMsg{Type: tea.KeyEnter}))
	press(app, runes("q"))
	start := press(app, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, start)

	drive(app, press(app, tea.KeyMsg{Type: tea.KeyEsc}))
	require.Equal(t, messages.ViewMenu, app.CurrentView())

	drive(app, start)
	assert.Equal(t, "Hello world", app.chatView.LastAnswer())
}

func TestApp_DocumentsFlow(t *testing.T) {
	app := newTestApp(t)

	press(app, tea.KeyMsg{Type: tea.KeyDown})
	drive(app, press(app, tea.KeyMsg{Type: tea.KeyEnter}))
	require.Equal(t, messages.ViewDocuments, app.CurrentView())
	assert.Contains(t, app.View(), "guide.md")

	// enter opens actions, enter again shows chunks.
	press(app, tea.KeyMsg{Type: tea.KeyEnter})
	drive(app, press(app, tea.KeyMsg{Type: tea.KeyEnter}))
	require.Equal(t, messages.ViewDocContent, app.CurrentView())
	assert.Contains(t, app.View(), "chunk text")

	drive(app, press(app, tea.KeyMsg{Type: tea.KeyEsc}))
	require.Equal(t, messages.ViewDocuments, app.CurrentView())

	// Details is the second action.
	press(app, tea.KeyMsg{Type: tea.KeyEnter})
	press(app, runes("j"))
	drive(app, press(app, tea.KeyMsg{Type: tea.KeyEnter}))
	require.Equal(t, messages.ViewDocDetails, app.CurrentView())
	assert.Contains(t, app.View(), "Document Details")
}

func TestApp_DetailsErrorIsRecorded(t *testing.T) {
	app := newTestApp(t)
	app.Update(messages.DocumentDetailsLoaded{Err: domain.ErrNotFound})

	assert.ErrorIs(t, app.Err(), domain.ErrNotFound)
	assert.Equal(t, messages.ViewDocDetails, app.CurrentView())
}

func TestApp_Help(t *testing.T) {
	app := newTestApp(t)
	app.Update(messages.ViewChanged{View: messages.ViewHelp})

	view := app.View()
	assert.Contains(t, view, "Help")
	assert.Contains(t, view, "stop answer")
	assert.Contains(t, view, "recall earlier questions")

	press(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_Quit(t *testing.T) {
	app := newTestApp(t)

	cmd := press(app, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = app.Update(messages.Quit{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_ErrorRecorded(t *testing.T) {
	app := newTestApp(t)
	app.Update(messages.ViewChanged{View: messages.ViewChat})
	app.Update(messages.ErrorOccurred{Err: domain.ErrLLMUnavailable})
	assert.ErrorIs(t, app.Err(), domain.ErrLLMUnavailable)
}
