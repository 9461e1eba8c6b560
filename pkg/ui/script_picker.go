package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/Dicklesworthstone/tree_viewer/pkg/config"
)

// ScriptChosenMsg is sent when the user picks a script to replay
type ScriptChosenMsg struct {
	Ref config.ScriptRef
}

// pickerClosedMsg is sent when a modal is dismissed without a choice
type pickerClosedMsg struct{}

// ScriptPickerModel lists discovered action scripts with a fuzzy filter
type ScriptPickerModel struct {
	entries     []config.ScriptRef
	filtered    []int // indices into entries
	cursor      int
	width       int
	height      int
	filterInput textinput.Model
	theme       Theme
}

// NewScriptPicker creates a picker over entries with the filter focused
func NewScriptPicker(entries []config.ScriptRef, theme Theme) ScriptPickerModel {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.CharLimit = 50
	ti.Width = 30
	ti.Focus()

	m := ScriptPickerModel{
		entries:     entries,
		filterInput: ti,
		theme:       theme,
	}
	m.applyFilter()
	return m
}

func (m *ScriptPickerModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Update handles keys while the picker is open
func (m ScriptPickerModel) Update(msg tea.Msg) (ScriptPickerModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "esc":
		return m, func() tea.Msg { return pickerClosedMsg{} }
	case "enter":
		if ref := m.SelectedEntry(); ref != nil {
			chosen := *ref
			return m, func() tea.Msg { return ScriptChosenMsg{Ref: chosen} }
		}
		return m, nil
	case "up", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "ctrl+n":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.applyFilter()
	return m, cmd
}

// applyFilter ranks entries by fuzzy match on name, then path
func (m *ScriptPickerModel) applyFilter() {
	query := strings.TrimSpace(m.filterInput.Value())
	if query == "" {
		m.filtered = make([]int, len(m.entries))
		for i := range m.entries {
			m.filtered[i] = i
		}
		m.clampCursor()
		return
	}

	targets := make([]string, len(m.entries))
	for i, e := range m.entries {
		targets[i] = e.Name + " " + e.Path
	}
	matches := fuzzy.Find(query, targets)

	m.filtered = make([]int, len(matches))
	for i, match := range matches {
		m.filtered[i] = match.Index
	}
	m.clampCursor()
}

func (m *ScriptPickerModel) clampCursor() {
	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
}

// View renders the picker as a centered box
func (m *ScriptPickerModel) View() string {
	width, height := m.width, m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 20
	}
	t := m.theme

	boxWidth := min(70, width-6)
	if boxWidth < 30 {
		boxWidth = 30
	}

	var lines []string
	lines = append(lines, t.Title.Render("Scripts")+t.Status.Render(fmt.Sprintf(" [%d]", len(m.filtered))))
	lines = append(lines, t.Renderer.NewStyle().Foreground(t.Primary).Render("/ "+m.filterInput.View()), "")

	if len(m.filtered) == 0 {
		lines = append(lines, t.Renderer.NewStyle().Foreground(t.Secondary).Italic(true).
			Render("No scripts found. Configure scripts.scan_paths in ~/.config/tv/config.yaml"))
	}
	for i, idx := range m.filtered {
		e := m.entries[idx]
		style := t.Base
		prefix := "  "
		if i == m.cursor {
			style = t.Renderer.NewStyle().Foreground(t.Primary).Bold(true)
			prefix = "> "
		}
		name := truncateLabel(e.Name, boxWidth/2)
		path := t.Status.Render(" " + truncateLabel(e.Path, boxWidth-len(name)-8))
		lines = append(lines, style.Render(prefix+name)+path)
	}

	lines = append(lines, "", t.Renderer.NewStyle().Foreground(t.Secondary).Italic(true).
		Render("↑/↓: navigate | enter: replay | esc: cancel"))

	box := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2).
		Width(boxWidth).
		Render(strings.Join(lines, "\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

func (m *ScriptPickerModel) Cursor() int        { return m.cursor }
func (m *ScriptPickerModel) FilteredCount() int { return len(m.filtered) }

// SelectedEntry returns the highlighted script, or nil if none match
func (m *ScriptPickerModel) SelectedEntry() *config.ScriptRef {
	if len(m.filtered) == 0 || m.cursor >= len(m.filtered) {
		return nil
	}
	ref := m.entries[m.filtered[m.cursor]]
	return &ref
}
