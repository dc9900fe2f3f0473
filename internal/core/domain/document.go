package domain

import "time"

// Document is a named source text held by the store.
// Name is unique within the store and is the upsert key.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Name is the unique document name, usually the file name.
	Name string

	// Content is the full text content after normalisation.
	Content string

	// Source describes where the document came from (file, upload, api).
	Source string

	// Type is the content type, usually the file extension without the dot.
	Type string

	// URL is an optional link back to the original document.
	URL string

	// Path is the file system path the document was read from, if any.
	Path string

	// Chunked is true once every chunk of the document has been stored.
	Chunked bool

	// CreatedAt is when the document was first stored.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time
}

// Chunk is a bounded contiguous span of a document's text.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links back to the owning Document.
	DocumentID string

	// Text is the chunk content.
	Text string

	// Metadata records how the chunk was produced.
	Metadata ChunkMetadata

	// Processed is true once an embedding exists for the chunk.
	Processed bool

	// CreatedAt is when the chunk was stored.
	CreatedAt time.Time
}

// ChunkMetadata records how a chunk was produced and where it came from.
type ChunkMetadata struct {
	FileName    string   `json:"fileName"`
	Strategy    Strategy `json:"strategy"`
	ChunkIndex  int      `json:"chunkIndex"`
	TotalChunks int      `json:"totalChunks"`
	ChunkSize   int      `json:"chunkSize"`
	Overlap     int      `json:"overlap"`
	Source      string   `json:"source"`
	Type        string   `json:"type"`
}

// EmbeddingRecord is the stored vector for one chunk.
// Text and Metadata are denormalised copies of the chunk's fields.
type EmbeddingRecord struct {
	ID        string
	ChunkID   string
	Vector    []float32
	Text      string
	Metadata  ChunkMetadata
	CreatedAt time.Time
}

// Dimensions returns the vector length.
func (r EmbeddingRecord) Dimensions() int {
	return len(r.Vector)
}
