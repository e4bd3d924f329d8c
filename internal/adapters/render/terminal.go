package render

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/jsamuelsen/verse-service/internal/domain"
)

type palette struct {
	heading lipgloss.Color
	text    lipgloss.Color
	muted   lipgloss.Color
	badge   lipgloss.Color
}

var (
	lightPalette = palette{
		heading: lipgloss.Color("#101F38"),
		text:    lipgloss.Color("#1e1e2e"),
		muted:   lipgloss.Color("#6c7086"),
		badge:   lipgloss.Color("#8BC34A"),
	}
	darkPalette = palette{
		heading: lipgloss.Color("#cdd6f4"),
		text:    lipgloss.Color("#f2f2f2"),
		muted:   lipgloss.Color("#a6adc8"),
		badge:   lipgloss.Color("#a6e3a1"),
	}
)

// TerminalOptions tunes the terminal renderer.
type TerminalOptions struct {
	// Width wraps item bodies. Zero disables wrapping.
	Width int

	// Poems and Quotes limit which collections are printed, independently
	// of the view mode. Both false prints what the view carries.
	Poems  bool
	Quotes bool
}

// Terminal writes views as styled text. Colors follow the category palette
// and the view's theme; the lipgloss renderer drops them when w is not a
// terminal.
type Terminal struct {
	mu   sync.Mutex
	w    io.Writer
	r    *lipgloss.Renderer
	opts TerminalOptions
}

// NewTerminal creates a terminal renderer writing to w.
func NewTerminal(w io.Writer, opts TerminalOptions) *Terminal {
	return &Terminal{w: w, r: lipgloss.NewRenderer(w), opts: opts}
}

// Render writes view to the underlying writer.
func (t *Terminal) Render(_ context.Context, view *domain.View) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, err := io.WriteString(t.w, t.format(view))

	return err
}

func (t *Terminal) format(view *domain.View) string {
	p := lightPalette
	if view.Theme == domain.ThemeDark {
		p = darkPalette
	}

	var b strings.Builder

	header := t.r.NewStyle().Foreground(p.muted)
	filter := fmt.Sprintf("category: %s", domain.DisplayCategory(view.Category))
	if view.Query != "" {
		filter += fmt.Sprintf("  search: %q", view.Query)
	}

	b.WriteString(header.Render(filter))
	b.WriteString("\n\n")

	if view.NoResults {
		b.WriteString(t.r.NewStyle().Foreground(p.muted).Italic(true).Render("No results found."))
		b.WriteString("\n")

		return b.String()
	}

	if t.showPoems(view) {
		t.section(&b, p, view, "Poems", view.Poems)
	}

	if t.showQuotes(view) {
		t.section(&b, p, view, "Quotes", view.Quotes)
	}

	return b.String()
}

func (t *Terminal) showPoems(view *domain.View) bool {
	if t.opts.Poems || t.opts.Quotes {
		return t.opts.Poems
	}

	return view.Mode.Shows(domain.VariantPoem)
}

func (t *Terminal) showQuotes(view *domain.View) bool {
	if t.opts.Poems || t.opts.Quotes {
		return t.opts.Quotes
	}

	return view.Mode.Shows(domain.VariantQuote)
}

func (t *Terminal) section(b *strings.Builder, p palette, view *domain.View, title string, items []domain.ViewItem) {
	heading := t.r.NewStyle().Bold(true).Foreground(p.heading).Underline(true)
	fmt.Fprintf(b, "%s (%d)\n", heading.Render(title), len(items))

	for i := range items {
		t.item(b, p, view.Colors, &items[i])
	}

	b.WriteString("\n")
}

func (t *Terminal) item(b *strings.Builder, p palette, colors map[string]domain.CategoryColor, it *domain.ViewItem) {
	badge := t.r.NewStyle().Bold(true)
	if c, ok := colors[it.Category]; ok {
		badge = badge.Foreground(lipgloss.Color(c.Hex))
	}

	label := fmt.Sprintf("[%s]", domain.DisplayCategory(it.Category))
	if it.Variant == domain.VariantQuote {
		fmt.Fprintf(b, "  %s #%d %q\n", badge.Render(label), it.ID, it.Text)
	} else {
		title := t.r.NewStyle().Bold(true).Foreground(p.text).Render(it.Title)
		fmt.Fprintf(b, "  %s #%d %s\n", badge.Render(label), it.ID, title)

		body := t.r.NewStyle().Foreground(p.text).PaddingLeft(4)
		if t.opts.Width > 0 {
			body = body.Width(t.opts.Width)
		}

		b.WriteString(body.Render(it.Content))
		b.WriteString("\n")
	}

	meta := fmt.Sprintf("- %s, %s", it.Author, it.FormattedDate())
	line := t.r.NewStyle().Foreground(p.muted).PaddingLeft(4).Render(meta)

	if !it.Protected {
		line += " " + t.r.NewStyle().Foreground(p.badge).Render("(yours)")
	}

	b.WriteString(line)
	b.WriteString("\n")
}
