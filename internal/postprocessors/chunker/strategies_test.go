package chunker

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
)

func lengths(chunks []string) []int {
	out := make([]int, len(chunks))
	for i, c := range chunks {
		out[i] = utf8.RuneCountInString(c)
	}
	return out
}

func sampleText(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet[i%len(alphabet)])
	}
	return b.String()
}

func TestSplit_FixedSize_WindowLengths(t *testing.T) {
	params := domain.ChunkParams{ChunkSize: 300, Overlap: 50}

	t.Run("850 characters", func(t *testing.T) {
		chunks, err := Split(sampleText(850), domain.StrategyFixedSize, params)
		require.NoError(t, err)
		assert.Equal(t, []int{300, 300, 300, 100}, lengths(chunks))
	})

	t.Run("1000 characters", func(t *testing.T) {
		chunks, err := Split(sampleText(1000), domain.StrategyFixedSize, params)
		require.NoError(t, err)
		assert.Equal(t, []int{300, 300, 300, 250}, lengths(chunks))
	})

	t.Run("successive windows overlap by exactly 50", func(t *testing.T) {
		chunks, err := Split(sampleText(1000), domain.StrategyFixedSize, params)
		require.NoError(t, err)
		for i := 1; i < len(chunks); i++ {
			prev := chunks[i-1]
			assert.Equal(t, prev[len(prev)-50:], chunks[i][:50], "pair %d", i)
		}
	})
}

func TestSplit_FixedSize_RoundTrip(t *testing.T) {
	tests := []struct {
		n, size, overlap int
	}{
		{1000, 300, 50},
		{850, 300, 50},
		{999, 100, 0},
		{37, 10, 9},
		{5, 100, 10},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d/%d", tt.n, tt.size, tt.overlap), func(t *testing.T) {
			text := sampleText(tt.n)
			chunks, err := Split(text, domain.StrategyFixedSize,
				domain.ChunkParams{ChunkSize: tt.size, Overlap: tt.overlap})
			require.NoError(t, err)

			var b strings.Builder
			for i, c := range chunks {
				if i == 0 {
					b.WriteString(c)
					continue
				}
				if r := []rune(c); len(r) > tt.overlap {
					b.WriteString(string(r[tt.overlap:]))
				}
			}
			assert.Equal(t, text, b.String())
		})
	}
}

func TestSplit_FixedSize_CountsRunes(t *testing.T) {
	text := strings.Repeat("é", 25)
	chunks, err := Split(text, domain.StrategyFixedSize, domain.ChunkParams{ChunkSize: 10})
	require.NoError(t, err)
	assert.Equal(t, []int{10, 10, 5}, lengths(chunks))
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c))
	}
}

func TestSplit_Sentence(t *testing.T) {
	t.Run("whole string under threshold", func(t *testing.T) {
		chunks, err := Split("A. B. C.", domain.StrategySentence, domain.ChunkParams{ChunkSize: 1000})
		require.NoError(t, err)
		assert.Equal(t, []string{"A. B. C."}, chunks)
	})

	t.Run("greedy packing flushes before overflow", func(t *testing.T) {
		text := "One two. Three four! Five six? Seven."
		chunks, err := Split(text, domain.StrategySentence, domain.ChunkParams{ChunkSize: 20})
		require.NoError(t, err)
		assert.Equal(t, []string{"One two. Three four!", "Five six? Seven."}, chunks)
	})

	t.Run("trailing text without punctuation is kept", func(t *testing.T) {
		chunks, err := Split("First. and then more", domain.StrategySentence, domain.ChunkParams{ChunkSize: 1000})
		require.NoError(t, err)
		assert.Equal(t, []string{"First. and then more"}, chunks)
	})

	t.Run("oversized sentence stands alone", func(t *testing.T) {
		long := strings.Repeat("w", 50) + "."
		chunks, err := Split("Hi. "+long, domain.StrategySentence, domain.ChunkParams{ChunkSize: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{"Hi.", long}, chunks)
	})
}

func TestSplit_Paragraph(t *testing.T) {
	text := "alpha\n\nbeta\n  \ngamma gamma gamma\n\n\n\ndelta"
	chunks, err := Split(text, domain.StrategyParagraph, domain.ChunkParams{ChunkSize: 15})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha\n\nbeta", "gamma gamma gamma", "delta"}, chunks)

	semantic, err := Split(text, domain.StrategySemantic, domain.ChunkParams{ChunkSize: 15})
	require.NoError(t, err)
	assert.Equal(t, chunks, semantic)
}

func TestSplit_Delimiter(t *testing.T) {
	t.Run("pieces within budget pass through trimmed", func(t *testing.T) {
		chunks, err := Split(" one \n\n\n\n two ", domain.StrategyDelimiter,
			domain.ChunkParams{ChunkSize: 10, Overlap: 2, Delimiter: "\n\n"})
		require.NoError(t, err)
		assert.Equal(t, []string{"one", "two"}, chunks)
	})

	t.Run("oversized pieces are windowed", func(t *testing.T) {
		chunks, err := Split("short|"+sampleText(25), domain.StrategyDelimiter,
			domain.ChunkParams{ChunkSize: 10, Overlap: 0, Delimiter: "|"})
		require.NoError(t, err)
		assert.Equal(t, []int{5, 10, 10, 5}, lengths(chunks))
	})
}

func TestSplit_Recursive_MaxBound(t *testing.T) {
	inputs := map[string]string{
		"no boundaries":    sampleText(5000),
		"paragraphs":       strings.Repeat("Lorem ipsum dolor sit amet.\n\n", 40),
		"long sentences":   strings.Repeat(sampleText(180)+". ", 10),
		"mixed whitespace": strings.Repeat("a b c d e f g h i j k l m n o p\n", 100),
	}

	for name, text := range inputs {
		t.Run(name, func(t *testing.T) {
			chunks, err := Split(text, domain.StrategyRecursive, domain.ChunkParams{ChunkSize: 64, Overlap: 16})
			require.NoError(t, err)
			require.NotEmpty(t, chunks)
			for _, c := range chunks {
				assert.LessOrEqual(t, utf8.RuneCountInString(c), 64)
			}
		})
	}
}

func TestSplit_Recursive_PrefersBoundaries(t *testing.T) {
	text := "First sentence here. Second sentence here.\n\nShort para."
	chunks, err := Split(text, domain.StrategyRecursive, domain.ChunkParams{ChunkSize: 25, Overlap: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"First sentence here.", "Second sentence here.", "Short para."}, chunks)
}

func TestSplit_None(t *testing.T) {
	chunks, err := Split("whole\n\ndocument", domain.StrategyNone, domain.ChunkParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{"whole\n\ndocument"}, chunks)
}

func TestSplit_AllStrategies_Properties(t *testing.T) {
	texts := []string{
		"",
		"   \n\n\t ",
		"x",
		"Hello world. How are you?\n\nFine, thanks!",
		strings.Repeat("word ", 500),
		strings.Repeat("\n\n", 30) + "tail",
	}
	params := []domain.ChunkParams{
		{ChunkSize: 1, Overlap: 0},
		{ChunkSize: 7, Overlap: 6},
		{ChunkSize: 50, Overlap: 10},
		{ChunkSize: 1000, Overlap: 200},
	}

	for _, s := range domain.Strategies() {
		for _, p := range params {
			for i, text := range texts {
				t.Run(fmt.Sprintf("%s/%d-%d/%d", s, p.ChunkSize, p.Overlap, i), func(t *testing.T) {
					first, err := Split(text, s, p)
					require.NoError(t, err)
					for _, c := range first {
						assert.NotEmpty(t, strings.TrimSpace(c))
					}

					second, err := Split(text, s, p)
					require.NoError(t, err)
					assert.Equal(t, first, second)
				})
			}
		}
	}
}

func TestSplit_FixedSize_ExtremeParams(t *testing.T) {
	tests := []struct {
		name   string
		params domain.ChunkParams
		want   []string
	}{
		{"max size, overlap one below", domain.ChunkParams{ChunkSize: math.MaxInt, Overlap: math.MaxInt - 1}, []string{"abc", "bc", "c"}},
		{"max size, no overlap", domain.ChunkParams{ChunkSize: math.MaxInt}, []string{"abc"}},
		{"max size, half overlap", domain.ChunkParams{ChunkSize: math.MaxInt, Overlap: math.MaxInt / 2}, []string{"abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			require.NotPanics(t, func() {
				var err error
				got, err = Split("abc", domain.StrategyFixedSize, tt.params)
				require.NoError(t, err)
			})
			assert.Equal(t, tt.want, got)
		})
	}

	for _, strategy := range []domain.Strategy{domain.StrategyDelimiter, domain.StrategyRecursive} {
		t.Run(string(strategy), func(t *testing.T) {
			assert.NotPanics(t, func() {
				_, err := Split("one. two.\n\nthree", strategy,
					domain.ChunkParams{ChunkSize: math.MaxInt, Overlap: math.MaxInt - 1})
				assert.NoError(t, err)
			})
		})
	}
}

func TestSplit_RejectsInvalidConfiguration(t *testing.T) {
	_, err := Split("text", domain.StrategyFixedSize, domain.ChunkParams{ChunkSize: 10, Overlap: 10})
	assert.ErrorIs(t, err, domain.ErrInvalidOverlap)

	_, err = Split("text", domain.Strategy("bogus"), domain.ChunkParams{ChunkSize: 10})
	assert.ErrorIs(t, err, domain.ErrUnknownStrategy)
}

func TestSplitters_CoverEveryStrategy(t *testing.T) {
	for _, s := range domain.Strategies() {
		_, ok := splitters[s]
		assert.True(t, ok, s)
	}
	assert.Len(t, splitters, len(domain.Strategies()))
}
