package chunker

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
)

var (
	sentencePattern  = regexp.MustCompile(`[^.!?]+[.!?]+`)
	paragraphPattern = regexp.MustCompile(`\n\s*\n`)
	sentenceBreak    = regexp.MustCompile(`[.!?]\s+`)
)

// splitFunc is the shape shared by every strategy.
type splitFunc func(text string, p domain.ChunkParams) []string

// splitters is total over domain.Strategies().
var splitters = map[domain.Strategy]splitFunc{
	domain.StrategyNone:      splitNone,
	domain.StrategyFixedSize: splitFixedSize,
	domain.StrategyDelimiter: splitDelimiter,
	domain.StrategySentence:  splitSentence,
	domain.StrategyParagraph: splitParagraph,
	domain.StrategyRecursive: splitRecursive,
	domain.StrategySemantic:  splitSemantic,
}

// Split divides text into ordered chunks using the given strategy.
// Lengths are counted in runes. No returned chunk is empty or whitespace-only,
// and the same input always yields the same output.
func Split(text string, strategy domain.Strategy, params domain.ChunkParams) ([]string, error) {
	if err := params.Validate(strategy); err != nil {
		return nil, err
	}
	fn, ok := splitters[strategy]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownStrategy, string(strategy))
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return fn(text, params), nil
}

func splitNone(text string, _ domain.ChunkParams) []string {
	return []string{text}
}

// splitFixedSize slides a window of ChunkSize runes; window i starts at i*(ChunkSize-Overlap).
func splitFixedSize(text string, p domain.ChunkParams) []string {
	return window(text, p.ChunkSize, p.Overlap)
}

func splitDelimiter(text string, p domain.ChunkParams) []string {
	delim := p.Delimiter
	if delim == "" {
		delim = domain.DefaultDelimiter
	}

	var out []string
	for _, piece := range strings.Split(text, delim) {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		if runeLen(piece) <= p.ChunkSize {
			out = append(out, piece)
			continue
		}
		out = append(out, window(piece, p.ChunkSize, p.Overlap)...)
	}
	return out
}

// splitSentence packs sentences greedily up to ChunkSize.
// Text after the last terminal punctuation is kept as a final sentence.
func splitSentence(text string, p domain.ChunkParams) []string {
	return pack(sentences(text), p.ChunkSize, "")
}

func splitParagraph(text string, p domain.ChunkParams) []string {
	return pack(nonBlank(paragraphPattern.Split(text, -1)), p.ChunkSize, "\n\n")
}

// splitSemantic approximates semantic boundaries with paragraph packing.
// Boundary detection by embedding distance would replace this.
func splitSemantic(text string, p domain.ChunkParams) []string {
	return splitParagraph(text, p)
}

// splitRecursive breaks text by paragraph, then sentence, then window,
// recursing until every piece fits in ChunkSize.
func splitRecursive(text string, p domain.ChunkParams) []string {
	var out []string
	var walk func(s string)
	walk = func(s string) {
		if runeLen(s) <= p.ChunkSize {
			if strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
			return
		}
		if parts := strings.Split(s, "\n\n"); len(parts) > 1 {
			for _, part := range parts {
				walk(part)
			}
			return
		}
		if parts := splitSentenceBreaks(s); len(parts) > 1 {
			for _, part := range parts {
				walk(part)
			}
			return
		}
		out = append(out, window(s, p.ChunkSize, p.Overlap)...)
	}
	walk(text)
	return out
}

// window cuts runs of size runes stepping by size-overlap, dropping blank windows.
func window(text string, size, overlap int) []string {
	runes := []rune(text)
	step := size - overlap
	var out []string
	for start := 0; start < len(runes); {
		// Compared as differences so sizes near MaxInt cannot overflow.
		end := len(runes)
		if size < end-start {
			end = start + size
		}
		chunk := string(runes[start:end])
		if strings.TrimSpace(chunk) != "" {
			out = append(out, chunk)
		}
		if step >= len(runes)-start {
			break
		}
		start += step
	}
	return out
}

// pack accumulates pieces into chunks, flushing before a piece that would
// push the running chunk over limit. A single oversized piece becomes its own chunk.
func pack(pieces []string, limit int, sep string) []string {
	var out []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
		curLen = 0
	}

	for _, piece := range pieces {
		n := runeLen(piece)
		if curLen > 0 && curLen+n > limit {
			flush()
		}
		if curLen > 0 && sep != "" {
			cur.WriteString(sep)
			curLen += runeLen(sep)
		}
		cur.WriteString(piece)
		curLen += n
	}
	flush()
	return out
}

func sentences(text string) []string {
	locs := sentencePattern.FindAllStringIndex(text, -1)
	out := make([]string, 0, len(locs)+1)
	last := 0
	for _, loc := range locs {
		out = append(out, text[loc[0]:loc[1]])
		last = loc[1]
	}
	if tail := text[last:]; strings.TrimSpace(tail) != "" {
		out = append(out, tail)
	}
	return out
}

// splitSentenceBreaks splits after terminal punctuation, consuming the whitespace that follows.
func splitSentenceBreaks(text string) []string {
	locs := sentenceBreak.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}
	out := make([]string, 0, len(locs)+1)
	start := 0
	for _, loc := range locs {
		out = append(out, text[start:loc[0]+1])
		start = loc[1]
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

func nonBlank(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
