package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Theme holds the colors and derived styles used by every pane
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Danger    lipgloss.AdaptiveColor
	Text      lipgloss.AdaptiveColor

	Base     lipgloss.Style
	Selected lipgloss.Style
	Title    lipgloss.Style
	Border   lipgloss.Style
	Error    lipgloss.Style
	Status   lipgloss.Style
}

// DefaultTheme returns the built-in palette, matching the exported graph
// colors (blue nodes, red selection).
func DefaultTheme(r *lipgloss.Renderer) Theme {
	return buildTheme(r, ThemeFile{
		Primary:   ColorPair{Light: "#1565c0", Dark: "#64b5f6"},
		Secondary: ColorPair{Light: "#6a1b9a", Dark: "#ce93d8"},
		Muted:     ColorPair{Light: "#757575", Dark: "#9e9e9e"},
		Highlight: ColorPair{Light: "#00695c", Dark: "#80cbc4"},
		Danger:    ColorPair{Light: "#c62828", Dark: "#ef5350"},
		Text:      ColorPair{Light: "#000000", Dark: "#f8f8f2"},
	})
}

// ColorPair is an adaptive color as written in a theme file
type ColorPair struct {
	Light string `yaml:"light"`
	Dark  string `yaml:"dark"`
}

func (c ColorPair) adaptive(fallback lipgloss.AdaptiveColor) lipgloss.AdaptiveColor {
	out := fallback
	if c.Light != "" {
		out.Light = c.Light
	}
	if c.Dark != "" {
		out.Dark = c.Dark
	}
	return out
}

// ThemeFile is the YAML form of a theme. Missing colors fall back to the
// default palette.
type ThemeFile struct {
	Primary   ColorPair `yaml:"primary"`
	Secondary ColorPair `yaml:"secondary"`
	Muted     ColorPair `yaml:"muted"`
	Highlight ColorPair `yaml:"highlight"`
	Danger    ColorPair `yaml:"danger"`
	Text      ColorPair `yaml:"text"`
}

func buildTheme(r *lipgloss.Renderer, f ThemeFile) Theme {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	t := Theme{
		Renderer:  r,
		Primary:   f.Primary.adaptive(lipgloss.AdaptiveColor{}),
		Secondary: f.Secondary.adaptive(lipgloss.AdaptiveColor{}),
		Muted:     f.Muted.adaptive(lipgloss.AdaptiveColor{}),
		Highlight: f.Highlight.adaptive(lipgloss.AdaptiveColor{}),
		Danger:    f.Danger.adaptive(lipgloss.AdaptiveColor{}),
		Text:      f.Text.adaptive(lipgloss.AdaptiveColor{}),
	}
	t.Base = r.NewStyle().Foreground(t.Text)
	t.Selected = r.NewStyle().Bold(true).Foreground(t.Danger)
	t.Title = r.NewStyle().Bold(true).Foreground(t.Primary)
	t.Border = r.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Muted)
	t.Error = r.NewStyle().Bold(true).Foreground(t.Danger)
	t.Status = r.NewStyle().Foreground(t.Muted)
	return t
}

// LoadTheme resolves the tui.theme setting: "default" (or empty) selects
// the built-in palette, anything else is read as a YAML theme file.
func LoadTheme(r *lipgloss.Renderer, name string) (Theme, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "default" {
		return DefaultTheme(r), nil
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return Theme{}, fmt.Errorf("reading theme %s: %w", name, err)
	}
	return ParseTheme(r, data)
}

// ParseTheme builds a theme from YAML, layering it over the default palette
func ParseTheme(r *lipgloss.Renderer, data []byte) (Theme, error) {
	def := DefaultTheme(r)
	var f ThemeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Theme{}, fmt.Errorf("parsing theme: %w", err)
	}
	f.Primary = overlay(f.Primary, def.Primary)
	f.Secondary = overlay(f.Secondary, def.Secondary)
	f.Muted = overlay(f.Muted, def.Muted)
	f.Highlight = overlay(f.Highlight, def.Highlight)
	f.Danger = overlay(f.Danger, def.Danger)
	f.Text = overlay(f.Text, def.Text)
	return buildTheme(r, f), nil
}

func overlay(c ColorPair, def lipgloss.AdaptiveColor) ColorPair {
	a := c.adaptive(def)
	return ColorPair{Light: a.Light, Dark: a.Dark}
}
