package domain

// RawDocument is a file's bytes before normalisation.
type RawDocument struct {
	// URI is the original location, usually a file path.
	URI string

	// Name is the document name the store will key on, usually the base name.
	Name string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Source describes the origin (file, upload, api).
	Source string
}

// ChangeType represents the type of file change observed by a watcher.
type ChangeType int

const (
	// ChangeCreated indicates a new file.
	ChangeCreated ChangeType = iota

	// ChangeUpdated indicates a modified file.
	ChangeUpdated

	// ChangeDeleted indicates a removed file.
	ChangeDeleted
)

// String returns the string representation.
func (c ChangeType) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return unknownDescription
	}
}

// RawDocumentChange is a change event from a watcher.
type RawDocumentChange struct {
	Type     ChangeType
	Document RawDocument
}
