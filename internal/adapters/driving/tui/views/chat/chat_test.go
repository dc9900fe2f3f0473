package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chunkwise/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/chunkwise/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driving"
)

type fakeFragments struct {
	fragments []string
	pos       int
	err       error
	closed    bool
}

func (f *fakeFragments) Next() bool {
	if f.closed || f.pos >= len(f.fragments) {
		return false
	}
	f.pos++
	return true
}

func (f *fakeFragments) Fragment() string { return f.fragments[f.pos-1] }
func (f *fakeFragments) Err() error       { return f.err }
func (f *fakeFragments) Close() error {
	f.closed = true
	return nil
}

type mockRAG struct {
	sources   []domain.Source
	mode      domain.RetrievalMode
	fragments []string
	streamErr error
	err       error

	calls   int
	history [][]domain.Turn
	opened  []*fakeFragments
}

func (m *mockRAG) Answer(context.Context, string, []domain.Turn) (*domain.Answer, error) {
	return nil, errors.New("not used")
}

func (m *mockRAG) Stream(_ context.Context, query string, history []domain.Turn) (*driving.AnswerStream, error) {
	m.calls++
	m.history = append(m.history, history)
	if m.err != nil {
		return nil, m.err
	}
	it := &fakeFragments{fragments: m.fragments, err: m.streamErr}
	m.opened = append(m.opened, it)
	mode := m.mode
	if mode == "" {
		mode = domain.RetrievalRanked
	}
	return &driving.AnswerStream{Query: query, Sources: m.sources, Mode: mode, Fragments: it}, nil
}

func (m *mockRAG) Chat(context.Context, driving.ChatRequest) (string, driving.FragmentIterator, error) {
	return "", nil, errors.New("not used")
}

func newTestView(rag driving.RAGService) *View {
	v := NewView(nil, nil, rag)
	v.SetDimensions(120, 40)
	return v
}

func typeQuestion(v *View, q string) {
	for _, r := range q {
		v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// run executes cmd and feeds each resulting message back until the chain ends.
func run(v *View, cmd tea.Cmd) {
	for cmd != nil {
		msg := cmd()
		v, cmd = v.Update(msg)
	}
}

func ask(v *View, q string) tea.Cmd {
	typeQuestion(v, q)
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func TestView_StreamsAnswer(t *testing.T) {
	rag := &mockRAG{
		sources:   []domain.Source{{DocumentName: "guide.md", Text: "Chunks overlap.", Score: 0.8}},
		fragments: []string{"Chunks ", "overlap ", "by design."},
	}
	v := newTestView(rag)

	cmd := ask(v, "what overlaps?")
	require.NotNil(t, cmd)
	assert.True(t, v.Busy())
	assert.Equal(t, status.StateRetrieving, v.Status())
	assert.Contains(t, v.Transcript(), "thinking...")

	run(v, cmd)

	assert.False(t, v.Busy())
	assert.Equal(t, status.StateAnswered, v.Status())
	assert.Equal(t, "Chunks overlap by design.", v.LastAnswer())
	assert.Len(t, v.Sources(), 1)
	assert.True(t, rag.opened[0].closed)

	history := v.History()
	require.Len(t, history, 2)
	assert.Equal(t, domain.Turn{Role: domain.RoleUser, Content: "what overlaps?"}, history[0])
	assert.Equal(t, domain.RoleAssistant, history[1].Role)
}

func TestView_SecondQuestionCarriesHistory(t *testing.T) {
	rag := &mockRAG{fragments: []string{"yes"}}
	v := newTestView(rag)

	run(v, ask(v, "first"))
	run(v, ask(v, "second"))

	require.Equal(t, 2, rag.calls)
	assert.Empty(t, rag.history[0])
	assert.Equal(t, []domain.Turn{
		{Role: domain.RoleUser, Content: "first"},
		{Role: domain.RoleAssistant, Content: "yes"},
	}, rag.history[1])
}

func TestView_HistoryIsBounded(t *testing.T) {
	v := newTestView(&mockRAG{fragments: []string{"a"}})
	for i := 0; i < maxHistoryTurns+3; i++ {
		run(v, ask(v, "q"))
	}
	assert.Len(t, v.History(), maxHistoryTurns*2)
}

func TestView_OpenStreamError(t *testing.T) {
	v := newTestView(&mockRAG{err: domain.ErrLLMUnavailable})

	run(v, ask(v, "anyone there?"))

	assert.False(t, v.Busy())
	assert.Equal(t, status.StateError, v.Status())
	assert.Contains(t, v.Transcript(), "Error:")
	assert.Empty(t, v.History())
}

func TestView_InterruptedStream(t *testing.T) {
	v := newTestView(&mockRAG{fragments: []string{"partial"}, streamErr: errors.New("connection reset")})

	run(v, ask(v, "q"))

	assert.Equal(t, status.StateError, v.Status())
	assert.Equal(t, "partial", v.LastAnswer())
	assert.Contains(t, v.Transcript(), "connection reset")
	assert.Empty(t, v.History())
}

func TestView_CanceledStreamIsNotAnError(t *testing.T) {
	v := newTestView(&mockRAG{fragments: []string{"a"}, streamErr: context.Canceled})
	run(v, ask(v, "q"))
	assert.Equal(t, status.StateAnswered, v.Status())
}

func TestView_StopKeepsPartialAnswer(t *testing.T) {
	rag := &mockRAG{fragments: []string{"one ", "two ", "three"}}
	v := newTestView(rag)

	cmd := ask(v, "count")
	_, cmd = v.Update(cmd()) // AnswerStarted
	_, cmd = v.Update(cmd()) // "one "
	require.NotNil(t, cmd)

	_, stopCmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlX})
	assert.Nil(t, stopCmd)
	assert.False(t, v.Busy())

	// The in-flight pull lands after the stop and is dropped.
	_, cmd = v.Update(cmd())
	assert.Nil(t, cmd)

	assert.Equal(t, "one ", v.LastAnswer())
	assert.Contains(t, v.Transcript(), "[stopped]")
	assert.Len(t, v.History(), 2)
}

func TestView_StaleStartAfterStopIsClosed(t *testing.T) {
	rag := &mockRAG{fragments: []string{"x"}}
	v := newTestView(rag)

	stale := ask(v, "first")
	v.Stop()
	fresh := ask(v, "second")

	_, cmd := v.Update(stale())
	assert.Nil(t, cmd)
	assert.True(t, v.Busy())
	require.Len(t, rag.opened, 1)
	assert.True(t, rag.opened[0].closed)

	run(v, fresh)
	assert.Equal(t, "x", v.LastAnswer())
}

func TestView_IgnoresInputWhileBusy(t *testing.T) {
	rag := &mockRAG{fragments: []string{"x"}}
	v := newTestView(rag)

	require.NotNil(t, ask(v, "first"))
	assert.Nil(t, ask(v, "second"))
	assert.Equal(t, 0, rag.calls)
}

func TestView_BlankQuestionIgnored(t *testing.T) {
	v := newTestView(&mockRAG{})
	assert.Nil(t, ask(v, "   "))
	assert.False(t, v.Busy())
}

func TestView_NoRAGService(t *testing.T) {
	v := newTestView(nil)
	cmd := ask(v, "q")
	require.NotNil(t, cmd)

	msg, ok := cmd().(messages.ErrorOccurred)
	require.True(t, ok)
	assert.ErrorIs(t, msg.Err, ErrNoRAGService)

	v.Update(msg)
	assert.Equal(t, status.StateError, v.Status())
}

func TestView_DegradedAnswerIsMarked(t *testing.T) {
	v := newTestView(&mockRAG{
		mode:      domain.RetrievalDegraded,
		sources:   []domain.Source{{DocumentName: "a"}},
		fragments: []string{"ok"},
	})
	run(v, ask(v, "q"))
	assert.Contains(t, v.Transcript(), "(sources unranked)")
}

func TestView_SourcesFocus(t *testing.T) {
	v := newTestView(&mockRAG{
		sources:   []domain.Source{{DocumentName: "a"}, {DocumentName: "b"}},
		fragments: []string{"ok"},
	})

	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, v.InputFocused(), "no sources to focus yet")

	run(v, ask(v, "q"))
	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.False(t, v.InputFocused())

	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, v.sources.Selected())

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.True(t, v.InputFocused())
}

func TestView_EscReturnsToMenu(t *testing.T) {
	v := newTestView(&mockRAG{})
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_Reset(t *testing.T) {
	v := newTestView(&mockRAG{sources: []domain.Source{{DocumentName: "a"}}, fragments: []string{"ok"}})
	run(v, ask(v, "q"))

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlL})

	assert.Empty(t, v.History())
	assert.Empty(t, v.Sources())
	assert.Equal(t, status.StateReady, v.Status())
	assert.Contains(t, v.Transcript(), "Ask anything")
}

func TestView_Render(t *testing.T) {
	v := NewView(nil, nil, &mockRAG{})
	assert.Equal(t, "Initialising...", v.View())

	v.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.True(t, v.Ready())
	view := v.View()
	assert.Contains(t, view, "chunkwise chat")
	assert.Contains(t, view, ">")
}

func TestView_LongAnswerWraps(t *testing.T) {
	long := strings.Repeat("token ", 50)
	v := newTestView(&mockRAG{fragments: []string{long}})
	v.SetDimensions(40, 30)
	run(v, ask(v, "q"))

	for _, line := range strings.Split(v.Transcript(), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), 40)
	}
}
