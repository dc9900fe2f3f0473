// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driving"
)

// AnswerStarted carries the opened answer stream. Sources are known
// before the first fragment arrives.
type AnswerStarted struct {
	// Turn is the index of the exchange the stream answers.
	Turn      int
	Query     string
	Sources   []domain.Source
	Mode      domain.RetrievalMode
	Fragments driving.FragmentIterator
	Err       error
}

// FragmentReceived carries one streamed response fragment. Fragments
// identifies the stream it was pulled from.
type FragmentReceived struct {
	Fragment  string
	Fragments driving.FragmentIterator
}

// AnswerFinished signals the stream ended and was closed. Err is set
// when it was interrupted.
type AnswerFinished struct {
	Fragments driving.FragmentIterator
	Err       error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewChat is the streaming chat view.
	ViewChat
	// ViewDocuments lists stored documents.
	ViewDocuments
	// ViewDocContent shows a document's chunks.
	ViewDocContent
	// ViewDocDetails shows document metadata.
	ViewDocDetails
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewChat:
		return "chat"
	case ViewDocuments:
		return "documents"
	case ViewDocContent:
		return "doc_content"
	case ViewDocDetails:
		return "doc_details"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// DocumentsLoaded carries the stored documents.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// DocumentSelected signals a document was selected.
type DocumentSelected struct {
	Document domain.Document
}

// DocumentChunksLoaded carries a document's chunks in order.
type DocumentChunksLoaded struct {
	DocumentID string
	Chunks     []domain.Chunk
	Err        error
}

// DocumentDetailsLoaded carries the summary of a document.
type DocumentDetailsLoaded struct {
	DocumentID string
	Details    *driving.DocumentDetails
	Err        error
}

// DocumentDeleted signals a document was removed with its chunks and embeddings.
type DocumentDeleted struct {
	DocumentID string
	Err        error
}
