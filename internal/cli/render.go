// Package cli renders calmcash data for the terminal.
package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark:
		return t, nil
	}
	return "", fmt.Errorf("unknown theme %q, expected light or dark", s)
}

type palette struct {
	text   lipgloss.Color
	muted  lipgloss.Color
	border lipgloss.Color
	accent lipgloss.Color
	green  lipgloss.Color
	orange lipgloss.Color
	red    lipgloss.Color
}

var palettes = map[Theme]palette{
	ThemeDark: {
		text:   lipgloss.Color("#FFFCF0"),
		muted:  lipgloss.Color("#6F6E69"),
		border: lipgloss.Color("#575653"),
		accent: lipgloss.Color("#3AA99F"),
		green:  lipgloss.Color("#879A39"),
		orange: lipgloss.Color("#DA702C"),
		red:    lipgloss.Color("#D14D41"),
	},
	ThemeLight: {
		text:   lipgloss.Color("#100F0F"),
		muted:  lipgloss.Color("#6F6E69"),
		border: lipgloss.Color("#B7B5AC"),
		accent: lipgloss.Color("#24837B"),
		green:  lipgloss.Color("#66800B"),
		orange: lipgloss.Color("#BC5215"),
		red:    lipgloss.Color("#AF3029"),
	},
}

// Renderer holds the styles of one theme.
type Renderer struct {
	title  lipgloss.Style
	box    lipgloss.Style
	header lipgloss.Style
	value  lipgloss.Style
	muted  lipgloss.Style
	dim    lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
	bad    lipgloss.Style
}

func NewRenderer(theme Theme) *Renderer {
	p, ok := palettes[theme]
	if !ok {
		p = palettes[ThemeLight]
	}
	return &Renderer{
		title: lipgloss.NewStyle().Bold(true).Foreground(p.text),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Width(55).
			Align(lipgloss.Center).
			Padding(0, 1),
		header: lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		value:  lipgloss.NewStyle().Foreground(p.text),
		muted:  lipgloss.NewStyle().Foreground(p.muted),
		dim:    lipgloss.NewStyle().Foreground(p.border),
		ok:     lipgloss.NewStyle().Foreground(p.green),
		warn:   lipgloss.NewStyle().Foreground(p.orange),
		bad:    lipgloss.NewStyle().Foreground(p.red).Bold(true),
	}
}

// Table is a bordered text table. A row holding the single cell "---" renders
// as a separator.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

func (r *Renderer) Title(title string) string {
	return r.box.Render(r.title.Render(title))
}

func (r *Renderer) Muted(s string) string {
	return r.muted.Render(s)
}

func (r *Renderer) Success(s string) string {
	return r.ok.Render(s)
}

func (r *Renderer) Error(s string) string {
	return r.bad.Render(s)
}

// Utilization renders a percentage coloured by how close it is to the limit.
func (r *Renderer) Utilization(pct *float64) string {
	if pct == nil {
		return r.muted.Render("n/a")
	}
	text := fmt.Sprintf("%.1f%%", *pct)
	switch {
	case *pct >= 100:
		return r.bad.Render(text)
	case *pct >= 80:
		return r.warn.Render(text)
	default:
		return r.ok.Render(text)
	}
}

func (r *Renderer) Table(t Table) string {
	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}
	if numCols == 0 {
		return ""
	}

	widths := make([]int, numCols)
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < numCols && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(r.header.Render(t.Title))
		b.WriteString("\n")
	}

	r.rule(&b, widths, "╭", "┬", "╮")
	if len(t.Headers) > 0 {
		r.row(&b, widths, t.Headers, r.header)
		r.rule(&b, widths, "├", "┼", "┤")
	}
	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			r.rule(&b, widths, "├", "┼", "┤")
			continue
		}
		r.row(&b, widths, row, r.value)
	}
	r.rule(&b, widths, "╰", "┴", "╯")
	return b.String()
}

func (r *Renderer) rule(b *strings.Builder, widths []int, left, mid, right string) {
	b.WriteString(r.dim.Render(left))
	for i, w := range widths {
		b.WriteString(r.dim.Render(strings.Repeat("─", w+2)))
		if i < len(widths)-1 {
			b.WriteString(r.dim.Render(mid))
		}
	}
	b.WriteString(r.dim.Render(right))
	b.WriteString("\n")
}

// row left-aligns the first column and right-aligns the others.
func (r *Renderer) row(b *strings.Builder, widths []int, cells []string, style lipgloss.Style) {
	b.WriteString(r.dim.Render("│"))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		pad := strings.Repeat(" ", w-lipgloss.Width(cell))
		if i == 0 {
			b.WriteString(" " + style.Render(cell) + pad + " ")
		} else {
			b.WriteString(" " + pad + style.Render(cell) + " ")
		}
		if i < len(widths)-1 {
			b.WriteString(r.dim.Render("│"))
		}
	}
	b.WriteString(r.dim.Render("│"))
	b.WriteString("\n")
}
