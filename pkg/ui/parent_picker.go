package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/tree_viewer/pkg/model"
)

// ParentPickerModel is the modal listing every node as a candidate parent
type ParentPickerModel struct {
	nodes         []model.Node
	currentParent string // parent already chosen in the session
	selectedIndex int
	width         int
	height        int
	theme         Theme
	title         string
}

// NewParentPickerModel highlights the current parent, or the first node
func NewParentPickerModel(nodes []model.Node, currentParent, title string, theme Theme) ParentPickerModel {
	idx := 0
	for i, n := range nodes {
		if n.ID == currentParent {
			idx = i
			break
		}
	}
	return ParentPickerModel{
		nodes:         nodes,
		currentParent: currentParent,
		selectedIndex: idx,
		theme:         theme,
		title:         title,
	}
}

func (m *ParentPickerModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *ParentPickerModel) MoveUp() {
	if m.selectedIndex > 0 {
		m.selectedIndex--
	}
}

func (m *ParentPickerModel) MoveDown() {
	if m.selectedIndex < len(m.nodes)-1 {
		m.selectedIndex++
	}
}

// SelectedID returns the highlighted node id, or "" when there are no nodes
func (m *ParentPickerModel) SelectedID() string {
	if m.selectedIndex >= 0 && m.selectedIndex < len(m.nodes) {
		return m.nodes[m.selectedIndex].ID
	}
	return ""
}

// View renders the picker overlay centered in the viewport
func (m *ParentPickerModel) View() string {
	width, height := m.width, m.height
	if width == 0 {
		width = 60
	}
	if height == 0 {
		height = 20
	}

	t := m.theme
	boxWidth := 40
	if width < 50 {
		boxWidth = width - 10
	}
	if boxWidth < 25 {
		boxWidth = 25
	}

	var lines []string
	lines = append(lines, t.Title.Render(m.title), "")

	for i, n := range m.nodes {
		style := t.Base
		prefix := "  "
		if i == m.selectedIndex {
			style = t.Renderer.NewStyle().Foreground(t.Primary).Bold(true)
			prefix = "> "
		}
		suffix := ""
		if n.ID == m.currentParent {
			suffix = " " + t.Renderer.NewStyle().Foreground(t.Secondary).Render("✓")
		}
		label := truncateLabel(n.Label, boxWidth-len(n.ID)-12)
		lines = append(lines, style.Render(prefix+label+" ("+n.ID+")")+suffix)
	}

	lines = append(lines, "", t.Renderer.NewStyle().Foreground(t.Secondary).Italic(true).
		Render("j/k: navigate | enter: choose | esc: cancel"))

	box := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2).
		Width(boxWidth).
		Render(strings.Join(lines, "\n"))

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
