package domain

import (
	"fmt"
	"strings"
)

// Strategy identifies a chunking strategy. The set is closed.
type Strategy string

// Available chunking strategies.
const (
	// StrategyNone keeps the whole text as a single chunk.
	StrategyNone Strategy = "none"

	// StrategyFixedSize slides a fixed window with overlap.
	StrategyFixedSize Strategy = "fixed_size"

	// StrategyDelimiter splits on a delimiter and re-splits oversized pieces.
	StrategyDelimiter Strategy = "delimiter"

	// StrategySentence greedily packs sentences up to the size threshold.
	StrategySentence Strategy = "sentence"

	// StrategyParagraph greedily packs paragraphs up to the size threshold.
	StrategyParagraph Strategy = "paragraph"

	// StrategyRecursive splits by paragraph, then sentence, then window.
	StrategyRecursive Strategy = "recursive"

	// StrategySemantic approximates semantic boundaries with paragraph packing.
	StrategySemantic Strategy = "semantic"
)

// Default chunking parameters.
const (
	// DefaultChunkSize is the ingest default in characters.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the ingest default overlap in characters.
	DefaultChunkOverlap = 200

	// DefaultInteractiveChunkSize is the default for interactive chunking requests.
	DefaultInteractiveChunkSize = 200

	// DefaultInteractiveOverlap is the default overlap for interactive chunking requests.
	DefaultInteractiveOverlap = 50

	// DefaultDelimiter is the blank-line paragraph break.
	DefaultDelimiter = "\n\n"
)

// Strategies returns every strategy in display order.
func Strategies() []Strategy {
	return []Strategy{
		StrategyNone,
		StrategyFixedSize,
		StrategyDelimiter,
		StrategySentence,
		StrategyParagraph,
		StrategyRecursive,
		StrategySemantic,
	}
}

// ParseStrategy maps a strategy name to its value.
// "fixed" is accepted as an alias of fixed_size.
func ParseStrategy(name string) (Strategy, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "fixed" {
		return StrategyFixedSize, nil
	}
	s := Strategy(n)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return s, nil
}

// IsValid returns true if the strategy is recognised.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyNone, StrategyFixedSize, StrategyDelimiter, StrategySentence,
		StrategyParagraph, StrategyRecursive, StrategySemantic:
		return true
	default:
		return false
	}
}

// UsesOverlap returns true if the strategy windows text with overlap.
func (s Strategy) UsesOverlap() bool {
	return s == StrategyFixedSize || s == StrategyDelimiter || s == StrategyRecursive
}

// String returns the string representation.
func (s Strategy) String() string {
	return string(s)
}

// Description returns a human-readable description of the strategy.
func (s Strategy) Description() string {
	switch s {
	case StrategyNone:
		return "None (whole document)"
	case StrategyFixedSize:
		return "Fixed size (sliding window)"
	case StrategyDelimiter:
		return "Delimiter (paragraph breaks)"
	case StrategySentence:
		return "Sentence (greedy packing)"
	case StrategyParagraph:
		return "Paragraph (greedy packing)"
	case StrategyRecursive:
		return "Recursive (paragraph, sentence, window)"
	case StrategySemantic:
		return "Semantic (approximate, paragraph based)"
	default:
		return unknownDescription
	}
}

// ChunkParams holds the tunable parameters of a strategy.
type ChunkParams struct {
	// ChunkSize is the window size, maximum size or packing threshold in characters.
	ChunkSize int

	// Overlap is the number of characters shared by consecutive windows.
	Overlap int

	// Delimiter is the split separator for the delimiter strategy.
	Delimiter string
}

// Validate checks the parameters against the strategy's requirements.
func (p ChunkParams) Validate(s Strategy) error {
	if !s.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, string(s))
	}
	if s == StrategyNone {
		return nil
	}
	if p.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidChunkSize, p.ChunkSize)
	}
	if !s.UsesOverlap() {
		return nil
	}
	if p.Overlap < 0 {
		return fmt.Errorf("%w: overlap must not be negative, got %d", ErrInvalidOverlap, p.Overlap)
	}
	if p.Overlap >= p.ChunkSize {
		return fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			ErrInvalidOverlap, p.Overlap, p.ChunkSize)
	}
	return nil
}

// WithDefaults fills zero fields from the given defaults.
func (p ChunkParams) WithDefaults(size, overlap int) ChunkParams {
	if p.ChunkSize == 0 {
		p.ChunkSize = size
		if p.Overlap == 0 {
			p.Overlap = overlap
		}
	}
	if p.Delimiter == "" {
		p.Delimiter = DefaultDelimiter
	}
	return p
}
