// Package chat provides the streaming chat view for the TUI.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/chunkwise/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/chunkwise/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/chunkwise/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/chunkwise/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/chunkwise/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/chunkwise/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driving"
)

// ErrNoRAGService indicates that no RAG service was provided.
var ErrNoRAGService = errors.New("rag service is required")

// maxHistoryTurns bounds the question/answer pairs sent back as history.
const maxHistoryTurns = 10

const sourcesHeight = 8

// exchange is one question and its (possibly partial) answer.
type exchange struct {
	question    string
	answer      strings.Builder
	mode        domain.RetrievalMode
	err         error
	interrupted bool
	done        bool
}

// View is the chat view: a transcript, the sources of the latest
// answer, an input line and a status bar.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.ChatInput
	sources    *list.SourceList
	statusbar  *status.Bar
	transcript viewport.Model

	rag driving.RAGService
	ctx context.Context

	exchanges []*exchange
	stream    driving.FragmentIterator
	cancel    context.CancelFunc
	pending   bool

	width        int
	height       int
	ready        bool
	focusSources bool
}

// NewView creates a new chat view.
func NewView(s *styles.Styles, km *keymap.KeyMap, rag driving.RAGService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewChatInput(s),
		sources:    list.NewSourceList(s),
		statusbar:  status.NewBar(s, km),
		transcript: viewport.New(80, 12),
		rag:        rag,
		ctx:        context.Background(),
		width:      80,
		height:     24,
	}
}

// WithContext sets the context answers are generated under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerStarted:
		return v, v.handleAnswerStarted(msg)

	case messages.FragmentReceived:
		if msg.Fragments == nil {
			return v, nil
		}
		if msg.Fragments != v.stream {
			_ = msg.Fragments.Close()
			return v, nil
		}
		if ex := v.current(); ex != nil {
			ex.answer.WriteString(msg.Fragment)
			v.refresh()
		}
		return v, nextFragment(v.stream)

	case messages.AnswerFinished:
		if msg.Fragments == nil || msg.Fragments != v.stream {
			return v, nil
		}
		v.finish(msg.Err)
		return v, nil

	case messages.ErrorOccurred:
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Stop):
		v.Stop()
		return v, nil
	case key.Matches(msg, v.keymap.Clear):
		v.Reset()
		return v, nil
	case key.Matches(msg, v.keymap.Scroll):
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd
	case key.Matches(msg, v.keymap.Sources):
		if v.focusSources || !v.sources.IsEmpty() {
			v.setFocusSources(!v.focusSources)
		}
		return v, nil
	case key.Matches(msg, v.keymap.Back):
		if v.focusSources {
			v.setFocusSources(false)
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusSources {
		v.sources, _ = v.sources.Update(msg)
		return v, nil
	}

	if key.Matches(msg, v.keymap.Send) {
		if v.Busy() {
			return v, nil
		}
		q := v.input.Submit()
		if q == "" {
			return v, nil
		}
		return v, v.ask(q)
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) setFocusSources(on bool) {
	v.focusSources = on
	if on {
		v.input.Blur()
		return
	}
	v.input.Focus()
}

// ask records the question and returns a command that opens the answer stream.
func (v *View) ask(query string) tea.Cmd {
	if v.rag == nil {
		return func() tea.Msg { return messages.ErrorOccurred{Err: ErrNoRAGService} }
	}

	history := v.History()
	v.exchanges = append(v.exchanges, &exchange{question: query})
	v.sources.SetSources(nil, "")
	v.statusbar.SetState(status.StateRetrieving)
	v.pending = true
	v.refresh()

	ctx, cancel := context.WithCancel(v.ctx)
	v.cancel = cancel
	rag := v.rag
	turn := len(v.exchanges) - 1
	return func() tea.Msg {
		stream, err := rag.Stream(ctx, query, history)
		if err != nil {
			return messages.AnswerStarted{Turn: turn, Query: query, Err: err}
		}
		return messages.AnswerStarted{
			Turn:      turn,
			Query:     stream.Query,
			Sources:   stream.Sources,
			Mode:      stream.Mode,
			Fragments: stream.Fragments,
		}
	}
}

func (v *View) handleAnswerStarted(msg messages.AnswerStarted) tea.Cmd {
	ex := v.current()
	if !v.pending || ex == nil || ex.done || msg.Turn != len(v.exchanges)-1 {
		if msg.Fragments != nil {
			_ = msg.Fragments.Close()
		}
		return nil
	}
	v.pending = false

	if msg.Err != nil {
		ex.err = msg.Err
		ex.done = true
		v.release()
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		v.refresh()
		return nil
	}

	ex.mode = msg.Mode
	v.stream = msg.Fragments
	v.sources.SetSources(msg.Sources, msg.Mode)
	v.statusbar.SetSources(len(msg.Sources), msg.Mode)
	v.statusbar.SetState(status.StateStreaming)
	v.refresh()
	return nextFragment(v.stream)
}

// nextFragment pulls one fragment. The iterator is closed once exhausted.
func nextFragment(it driving.FragmentIterator) tea.Cmd {
	return func() tea.Msg {
		if it.Next() {
			return messages.FragmentReceived{Fragment: it.Fragment(), Fragments: it}
		}
		err := it.Err()
		_ = it.Close()
		return messages.AnswerFinished{Fragments: it, Err: err}
	}
}

func (v *View) finish(err error) {
	ex := v.current()
	v.stream = nil
	v.release()
	if ex == nil {
		return
	}
	ex.done = true
	if err != nil && !errors.Is(err, context.Canceled) {
		ex.err = err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(err.Error())
	} else {
		v.statusbar.SetState(status.StateAnswered)
	}
	v.refresh()
}

func (v *View) release() {
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

// Stop interrupts the answer in flight, keeping what has streamed so far.
// The pending pull observes the cancellation and closes the stream.
func (v *View) Stop() {
	if !v.Busy() {
		return
	}
	if ex := v.current(); ex != nil {
		ex.interrupted = true
		ex.done = true
	}
	v.stream = nil
	v.pending = false
	v.release()
	v.statusbar.SetState(status.StateAnswered)
	v.refresh()
}

// Reset stops any answer in flight and starts a new conversation.
func (v *View) Reset() {
	v.Stop()
	v.exchanges = nil
	v.input.Reset()
	v.sources.SetSources(nil, "")
	v.statusbar.Clear()
	v.setFocusSources(false)
	v.refresh()
}

// Busy reports whether an answer is being retrieved or streamed.
func (v *View) Busy() bool {
	return v.pending || v.stream != nil
}

func (v *View) current() *exchange {
	if len(v.exchanges) == 0 {
		return nil
	}
	return v.exchanges[len(v.exchanges)-1]
}

// History returns the completed exchanges as conversation turns, oldest
// first, bounded to the most recent maxHistoryTurns.
func (v *View) History() []domain.Turn {
	var turns []domain.Turn
	for _, ex := range v.exchanges {
		if !ex.done || ex.err != nil || ex.answer.Len() == 0 {
			continue
		}
		turns = append(turns,
			domain.Turn{Role: domain.RoleUser, Content: ex.question},
			domain.Turn{Role: domain.RoleAssistant, Content: ex.answer.String()},
		)
	}
	if limit := maxHistoryTurns * 2; len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns
}

// refresh re-renders the transcript and keeps the newest text in view.
func (v *View) refresh() {
	v.transcript.SetContent(v.renderTranscript())
	v.transcript.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.exchanges) == 0 {
		return v.styles.Muted.Render("Ask anything about your ingested documents.")
	}

	wrap := lipgloss.NewStyle().Width(max(v.width-4, 20))
	blocks := make([]string, 0, len(v.exchanges))
	for i, ex := range v.exchanges {
		var b strings.Builder
		b.WriteString(v.styles.UserTurn.Render("You"))
		b.WriteString("\n")
		b.WriteString(wrap.Render(v.styles.Normal.Render(ex.question)))
		b.WriteString("\n")
		b.WriteString(v.styles.AssistantTurn.Render("Assistant"))
		if ex.mode.IsDegraded() {
			b.WriteString(" " + v.styles.Warning.Render("(sources unranked)"))
		}
		b.WriteString("\n")

		answer := ex.answer.String()
		switch {
		case answer != "":
			if !ex.done && i == len(v.exchanges)-1 {
				answer += "▌"
			}
			b.WriteString(wrap.Render(v.styles.Normal.Render(answer)))
		case !ex.done:
			b.WriteString(v.styles.Muted.Render("thinking..."))
		}
		if ex.interrupted {
			b.WriteString("\n" + v.styles.Muted.Render("[stopped]"))
		}
		if ex.err != nil {
			b.WriteString("\n" + v.styles.Error.Render("Error: "+ex.err.Error()))
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{
		v.styles.Title.Render("chunkwise chat"),
		"",
		v.transcript.View(),
		"",
	}
	if !v.sources.IsEmpty() {
		sections = append(sections, v.sources.View(), "")
	}
	sections = append(sections, v.input.View(), v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions and lays out its components.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.sources.SetDimensions(width, sourcesHeight)
	v.statusbar.SetWidth(width)

	v.transcript.Width = width
	v.transcript.Height = max(height-sourcesHeight-10, 3)
	v.refresh()
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Sources returns the sources of the latest answer.
func (v *View) Sources() []domain.Source {
	return v.sources.Sources()
}

// Transcript returns the rendered conversation.
func (v *View) Transcript() string {
	return v.renderTranscript()
}

// LastAnswer returns the text of the most recent answer.
func (v *View) LastAnswer() string {
	if ex := v.current(); ex != nil {
		return ex.answer.String()
	}
	return ""
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return !v.focusSources
}

// Status returns the status bar state.
func (v *View) Status() status.State {
	return v.statusbar.State()
}
