package domain

// RetrievalMode reports how a result set was produced.
type RetrievalMode string

// Available retrieval modes.
const (
	// RetrievalRanked means results came from the vector index, ordered by similarity.
	RetrievalRanked RetrievalMode = "ranked"

	// RetrievalDegraded means the index was unavailable and results are an
	// arbitrary bounded sample of stored embeddings.
	RetrievalDegraded RetrievalMode = "degraded"
)

// IsDegraded returns true for unranked fallback results.
func (m RetrievalMode) IsDegraded() bool {
	return m == RetrievalDegraded
}

// String returns the string representation.
func (m RetrievalMode) String() string {
	return string(m)
}

// RetrievedChunk is one retrieval hit.
type RetrievedChunk struct {
	ChunkID  string
	Text     string
	Metadata ChunkMetadata

	// Score is the cosine similarity. It is zero in degraded mode.
	Score float64
}

// Retrieval is a result set together with the mode that produced it.
type Retrieval struct {
	Mode RetrievalMode
	Hits []RetrievedChunk
}

// IndexState is the lifecycle state of a named vector index.
type IndexState string

// Index lifecycle: absent -> creating -> ready, and creating -> absent on failure.
const (
	IndexAbsent   IndexState = "absent"
	IndexCreating IndexState = "creating"
	IndexReady    IndexState = "ready"
)

// IndexInfo describes a named vector index.
type IndexInfo struct {
	Name       string
	State      IndexState
	Dimensions int
	Vectors    int
}

// Default retrieval parameters.
const (
	// DefaultIndexName is the name of the vector index over the embedding collection.
	DefaultIndexName = "chatbot_vector_index"

	// DefaultTopK is the number of chunks fed to the generation provider.
	DefaultTopK = 5

	// DefaultCandidatePool is how many neighbours the index is asked for before re-ranking.
	DefaultCandidatePool = 100

	// DefaultEmbeddingBatchSize bounds each embedding request.
	DefaultEmbeddingBatchSize = 10

	// DefaultMaxContextChars bounds the assembled context window.
	DefaultMaxContextChars = 12000
)
