package documents

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chunkwise/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driving"
)

type mockDocumentService struct {
	docs    []domain.Document
	details *driving.DocumentDetails
	listErr error
	delErr  error
	deleted []string
}

func (m *mockDocumentService) List(context.Context) ([]domain.Document, error) {
	return m.docs, m.listErr
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) GetDetails(_ context.Context, id string) (*driving.DocumentDetails, error) {
	if m.details == nil {
		return nil, domain.ErrNotFound
	}
	return m.details, nil
}

func (m *mockDocumentService) Chunks(context.Context, string) ([]domain.Chunk, error) {
	return nil, nil
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	if m.delErr != nil {
		return m.delErr
	}
	m.deleted = append(m.deleted, id)
	kept := m.docs[:0]
	for _, d := range m.docs {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	m.docs = kept
	return nil
}

func testDocs() []domain.Document {
	return []domain.Document{
		{ID: "d1", Name: "guide.md", Type: "text/markdown", Chunked: true},
		{ID: "d2", Name: "faq.pdf", Type: "application/pdf"},
		{ID: "d3", Name: "notes.txt", Chunked: true},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loaded(t *testing.T, svc *mockDocumentService) *View {
	t.Helper()
	v := NewView(nil, svc)
	v.SetDimensions(100, 30)
	cmd := v.Load()
	require.NotNil(t, cmd)
	v.Update(cmd())
	return v
}

func TestView_Load(t *testing.T) {
	v := loaded(t, &mockDocumentService{docs: testDocs()})

	assert.Len(t, v.Documents(), 3)
	assert.NoError(t, v.Err())
	view := v.View()
	assert.Contains(t, view, "Documents (3)")
	assert.Contains(t, view, "guide.md")
	assert.Contains(t, view, "application/pdf · pending")
}

func TestView_LoadErrors(t *testing.T) {
	v := loaded(t, &mockDocumentService{listErr: domain.ErrStoreUnavailable})
	assert.ErrorIs(t, v.Err(), domain.ErrStoreUnavailable)
	assert.Contains(t, v.View(), "Error:")

	noSvc := NewView(nil, nil)
	msg := noSvc.Load()()
	assert.ErrorIs(t, msg.(messages.DocumentsLoaded).Err, ErrNoDocumentService)
}

func TestView_Empty(t *testing.T) {
	v := loaded(t, &mockDocumentService{})
	assert.Contains(t, v.View(), "No documents ingested yet")

	v.Update(key("enter"))
	assert.False(t, v.IsShowingMenu())
}

func TestView_Navigation(t *testing.T) {
	v := loaded(t, &mockDocumentService{docs: testDocs()})

	v.Update(key("down"))
	v.Update(key("j"))
	v.Update(key("j"))
	assert.Equal(t, 2, v.SelectedIndex())
	v.Update(key("k"))
	assert.Equal(t, "faq.pdf", v.SelectedDocument().Name)
}

func TestView_ShowChunksAction(t *testing.T) {
	v := loaded(t, &mockDocumentService{docs: testDocs()})

	v.Update(key("enter"))
	require.True(t, v.IsShowingMenu())
	assert.Contains(t, v.View(), "Actions for: guide.md")

	_, cmd := v.Update(key("enter"))
	require.NotNil(t, cmd)
	assert.False(t, v.IsShowingMenu())
	sel, ok := cmd().(messages.DocumentSelected)
	require.True(t, ok)
	assert.Equal(t, "d1", sel.Document.ID)
}

func TestView_ShowDetailsAction(t *testing.T) {
	details := &driving.DocumentDetails{ID: "d1", Name: "guide.md", ChunkCount: 4}
	v := loaded(t, &mockDocumentService{docs: testDocs(), details: details})

	v.Update(key("enter"))
	v.Update(key("j"))
	_, cmd := v.Update(key("enter"))
	require.NotNil(t, cmd)

	msg, ok := cmd().(messages.DocumentDetailsLoaded)
	require.True(t, ok)
	assert.Equal(t, "d1", msg.DocumentID)
	assert.Same(t, details, msg.Details)
}

func TestView_DeleteRequiresConfirmation(t *testing.T) {
	svc := &mockDocumentService{docs: testDocs()}
	v := loaded(t, svc)

	v.Update(key("enter"))
	v.Update(key("j"))
	v.Update(key("j"))
	_, cmd := v.Update(key("enter"))
	assert.Nil(t, cmd)
	require.True(t, v.IsConfirmingDelete())
	assert.Contains(t, v.View(), "Delete guide.md")

	_, cmd = v.Update(key("n"))
	assert.Nil(t, cmd)
	assert.False(t, v.IsConfirmingDelete())
	assert.Empty(t, svc.deleted)
}

func TestView_DeleteReloads(t *testing.T) {
	svc := &mockDocumentService{docs: testDocs()}
	v := loaded(t, svc)
	v.Update(key("j"))

	v.Update(key("enter"))
	v.Update(key("j"))
	v.Update(key("j"))
	v.Update(key("enter"))
	_, cmd := v.Update(key("y"))
	require.NotNil(t, cmd)

	_, reload := v.Update(cmd())
	require.NotNil(t, reload)
	assert.Equal(t, []string{"d2"}, svc.deleted)

	v.Update(reload())
	assert.Len(t, v.Documents(), 2)
	assert.Contains(t, v.View(), "Document deleted.")
}

func TestView_DeleteFailure(t *testing.T) {
	v := loaded(t, &mockDocumentService{docs: testDocs(), delErr: errors.New("locked")})

	v.Update(key("enter"))
	v.Update(key("j"))
	v.Update(key("j"))
	v.Update(key("enter"))
	_, cmd := v.Update(key("y"))
	_, reload := v.Update(cmd())

	assert.Nil(t, reload)
	assert.EqualError(t, v.Err(), "locked")
}

func TestView_SelectionClampedAfterShrink(t *testing.T) {
	v := loaded(t, &mockDocumentService{docs: testDocs()})
	v.Update(key("j"))
	v.Update(key("j"))

	v.Update(messages.DocumentsLoaded{Documents: testDocs()[:1]})
	assert.Equal(t, 0, v.SelectedIndex())
}

func TestView_MenuCancelAndEsc(t *testing.T) {
	v := loaded(t, &mockDocumentService{docs: testDocs()})

	v.Update(key("enter"))
	v.Update(key("esc"))
	assert.False(t, v.IsShowingMenu())

	v.Update(key("enter"))
	for i := 0; i < 5; i++ {
		v.Update(key("j"))
	}
	_, cmd := v.Update(key("enter"))
	assert.Nil(t, cmd)
	assert.False(t, v.IsShowingMenu())
}

func TestView_EscReturnsToMenu(t *testing.T) {
	v := loaded(t, &mockDocumentService{docs: testDocs()})
	_, cmd := v.Update(key("esc"))
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_ScrollIndicator(t *testing.T) {
	docs := make([]domain.Document, 20)
	for i := range docs {
		docs[i] = domain.Document{ID: string(rune('a' + i)), Name: "doc"}
	}
	v := NewView(nil, &mockDocumentService{docs: docs})
	v.SetDimensions(80, 12)
	v.Update(v.Load()())

	assert.Contains(t, v.View(), "[1-4 of 20]")
	for i := 0; i < 10; i++ {
		v.Update(key("j"))
	}
	assert.Contains(t, v.View(), "[8-11 of 20]")
}
