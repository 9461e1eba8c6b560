package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderHelp renders the key reference as a centered modal
func RenderHelp(keys KeyMap, theme Theme, width, height int) string {
	r := theme.Renderer

	modalWidth := 50
	if modalWidth > width-4 {
		modalWidth = width - 4
	}
	if modalWidth < 30 {
		modalWidth = 30
	}

	keyStyle := r.NewStyle().Foreground(theme.Highlight).Bold(true).Width(10)
	descStyle := r.NewStyle().Foreground(theme.Text)

	var lines []string
	lines = append(lines, theme.Title.Render("Keys"), "")
	for _, b := range keys.helpRows() {
		h := b.Help()
		lines = append(lines, keyStyle.Render(h.Key)+descStyle.Render(h.Desc))
	}
	lines = append(lines, "", theme.Status.Italic(true).Render("Press any key to close"))

	box := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Primary).
		Padding(1, 2).
		Width(modalWidth).
		Render(strings.Join(lines, "\n"))

	if width <= 0 || height <= 0 {
		return box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
