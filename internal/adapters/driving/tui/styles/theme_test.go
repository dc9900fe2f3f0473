package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTheme_AccentsAreDistinct(t *testing.T) {
	theme := DefaultTheme()
	require.NotNil(t, theme)

	accents := []lipgloss.Color{theme.Primary, theme.Secondary, theme.Success, theme.Warning, theme.Error}
	seen := make(map[string]bool)
	for _, c := range accents {
		assert.NotEmpty(t, string(c))
		assert.False(t, seen[string(c)], "duplicate accent %s", c)
		seen[string(c)] = true
	}
}

func TestNewStyles(t *testing.T) {
	theme := DefaultTheme()
	assert.Equal(t, theme, NewStyles(theme).Theme())
	assert.NotNil(t, NewStyles(nil).Theme())
	assert.NotNil(t, DefaultStyles().Theme())
}

func TestStyles_Initialised(t *testing.T) {
	s := DefaultStyles()

	for name, style := range map[string]lipgloss.Style{
		"title":     s.Title,
		"subtitle":  s.Subtitle,
		"normal":    s.Normal,
		"muted":     s.Muted,
		"selected":  s.Selected,
		"error":     s.Error,
		"success":   s.Success,
		"warning":   s.Warning,
		"user":      s.UserTurn,
		"assistant": s.AssistantTurn,
		"score":     s.Score,
		"input":     s.InputField,
		"status":    s.StatusBar,
		"help":      s.Help,
		"border":    s.Border,
	} {
		t.Run(name, func(t *testing.T) {
			assert.NotEqual(t, lipgloss.Style{}, style)
			assert.Contains(t, style.Render("text"), "text")
		})
	}
}
