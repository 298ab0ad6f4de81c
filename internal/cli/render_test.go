package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTheme(t *testing.T) {
	theme, err := ParseTheme(" Dark ")
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, theme)

	_, err = ParseTheme("solarized")
	assert.Error(t, err)
}

func TestRenderer_Table(t *testing.T) {
	// given
	r := NewRenderer(ThemeLight)

	// when
	out := r.Table(Table{
		Title:   "Budgets",
		Headers: []string{"Name", "Limit"},
		Rows: [][]string{
			{"October", "$1,200.00"},
			{"---"},
			{"Total", "$1,200.00"},
		},
	})

	// then
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 8)
	assert.Contains(t, lines[0], "Budgets")
	assert.Contains(t, out, "October")
	width := lipgloss.Width(lines[1])
	for _, line := range lines[1:] {
		assert.Equal(t, width, lipgloss.Width(line), line)
	}
}

func TestRenderer_EmptyTable(t *testing.T) {
	assert.Empty(t, NewRenderer(ThemeDark).Table(Table{}))
}

func TestRenderer_Utilization(t *testing.T) {
	r := NewRenderer(ThemeDark)
	pct := 85.25

	assert.Contains(t, r.Utilization(&pct), "85.2%")
	assert.Contains(t, r.Utilization(nil), "n/a")
}
