package ui

import (
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

// MarkdownRenderer renders the info pane through glamour, rebuilding the
// underlying renderer only when the width changes.
type MarkdownRenderer struct {
	renderer *glamour.TermRenderer
	width    int
	theme    *Theme
	useTheme bool
}

// NewMarkdownRenderer uses glamour's plain "notty" style, which keeps the
// output free of escape codes.
func NewMarkdownRenderer(width int) *MarkdownRenderer {
	mr := &MarkdownRenderer{width: width}
	mr.rebuild()
	return mr
}

// NewMarkdownRendererWithTheme derives the glamour style from theme
func NewMarkdownRendererWithTheme(width int, theme Theme) *MarkdownRenderer {
	mr := &MarkdownRenderer{width: width, theme: &theme, useTheme: true}
	mr.rebuild()
	return mr
}

func (mr *MarkdownRenderer) rebuild() {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(mr.width)}
	if mr.useTheme && mr.theme != nil {
		opts = append(opts, glamour.WithStyles(buildStyleFromTheme(*mr.theme, mr.IsDarkMode())))
		if mr.theme.Renderer != nil {
			opts = append(opts, glamour.WithColorProfile(mr.theme.Renderer.ColorProfile()))
		}
	} else {
		opts = append(opts, glamour.WithStandardStyle(styles.NoTTYStyle))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		mr.renderer = nil
		return
	}
	mr.renderer = r
}

// Render returns md unchanged when no renderer could be built
func (mr *MarkdownRenderer) Render(md string) (string, error) {
	if mr.renderer == nil {
		return md, nil
	}
	return mr.renderer.Render(md)
}

// SetWidth is a no-op for the current width and for non-positive values
func (mr *MarkdownRenderer) SetWidth(width int) {
	if width <= 0 || width == mr.width {
		return
	}
	mr.width = width
	mr.rebuild()
}

// SetWidthWithTheme switches to themed rendering at width
func (mr *MarkdownRenderer) SetWidthWithTheme(width int, theme Theme) {
	if width > 0 {
		mr.width = width
	}
	mr.theme = &theme
	mr.useTheme = true
	mr.rebuild()
}

// IsDarkMode reports the terminal background of the theme's renderer
func (mr *MarkdownRenderer) IsDarkMode() bool {
	if mr.theme != nil && mr.theme.Renderer != nil {
		return mr.theme.Renderer.HasDarkBackground()
	}
	return lipgloss.HasDarkBackground()
}

func extractHex(c lipgloss.AdaptiveColor, dark bool) string {
	if dark {
		return c.Dark
	}
	return c.Light
}

func buildStyleFromTheme(theme Theme, dark bool) ansi.StyleConfig {
	cfg := styles.LightStyleConfig
	if dark {
		cfg = styles.DarkStyleConfig
	}

	text := extractHex(theme.Text, dark)
	primary := extractHex(theme.Primary, dark)
	highlight := extractHex(theme.Highlight, dark)
	bold := true

	cfg.Document.Color = &text
	cfg.Heading.Color = &primary
	cfg.Heading.Bold = &bold
	cfg.H1.Color = &primary
	cfg.H2.Color = &primary
	cfg.Strong.Color = &highlight
	cfg.Code.Color = &highlight
	return cfg
}
