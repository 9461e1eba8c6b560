package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/Dicklesworthstone/tree_viewer/pkg/layout"
)

// paneNode is one entry of the tree pane
type paneNode struct {
	ID       string
	Label    string
	Depth    int
	Parent   *paneNode
	Children []*paneNode
}

// TreePane draws the element list as an indented outline with box-drawing
// branches. It implements editor.Renderer, so the session keeps it in sync.
type TreePane struct {
	root     *paneNode
	byID     map[string]*paneNode
	flatList []*paneNode
	cursor   int
	offset   int // index of the first visible row
	width    int
	height   int
	theme    Theme

	emptyText string
}

// NewTreePane creates an empty pane
func NewTreePane(theme Theme) *TreePane {
	return &TreePane{
		theme:     theme,
		byID:      make(map[string]*paneNode),
		emptyText: "(empty)",
	}
}

// SetEmptyText sets the line shown when the tree has no nodes
func (t *TreePane) SetEmptyText(s string) { t.emptyText = s }

// SetSize updates the available dimensions
func (t *TreePane) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.clampOffset()
}

// Rebuild replaces the outline with el, keeping the cursor on the same id
// when it still exists.
func (t *TreePane) Rebuild(el layout.Elements) {
	keep := t.SelectedID()

	t.root = nil
	t.byID = make(map[string]*paneNode, len(el.Nodes))
	t.flatList = t.flatList[:0]

	for _, n := range el.Nodes {
		t.byID[n.ID] = &paneNode{ID: n.ID, Label: n.Label}
	}
	hasParent := make(map[string]bool, len(el.Edges))
	for _, e := range el.Edges {
		parent, ok := t.byID[e.Source]
		child, ok2 := t.byID[e.Target]
		if !ok || !ok2 {
			continue
		}
		child.Parent = parent
		parent.Children = append(parent.Children, child)
		hasParent[child.ID] = true
	}
	for _, n := range el.Nodes {
		if !hasParent[n.ID] {
			t.root = t.byID[n.ID]
			break
		}
	}
	if t.root != nil {
		t.appendVisible(t.root, 0)
	}

	if keep == "" || !t.SelectByID(keep) {
		t.clampCursor()
	}
}

// Clear empties the pane
func (t *TreePane) Clear() {
	t.Rebuild(layout.Elements{})
	t.cursor = 0
	t.offset = 0
}

func (t *TreePane) appendVisible(node *paneNode, depth int) {
	node.Depth = depth
	t.flatList = append(t.flatList, node)
	for _, child := range node.Children {
		t.appendVisible(child, depth+1)
	}
}

// View renders the visible window of rows
func (t *TreePane) View() string {
	if len(t.flatList) == 0 {
		return t.theme.Status.Render(t.emptyText)
	}

	start, end := t.visibleRange()
	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		rows = append(rows, t.renderNode(t.flatList[i], i == t.cursor))
	}
	return strings.Join(rows, "\n")
}

func (t *TreePane) renderNode(node *paneNode, isSelected bool) string {
	prefix := t.buildTreePrefix(node)
	label := node.Label
	if t.width > 0 {
		avail := t.width - runewidth.StringWidth(prefix) - 2
		label = truncateLabel(label, avail)
	}

	marker := "  "
	style := t.theme.Base
	if isSelected {
		marker = "> "
		style = t.theme.Selected
	}
	branch := t.theme.Renderer.NewStyle().Foreground(t.theme.Muted).Render(prefix)
	return style.Render(marker) + branch + style.Render(label)
}

func (t *TreePane) buildTreePrefix(node *paneNode) string {
	if node.Parent == nil {
		return ""
	}

	var ancestors []*paneNode
	for cur := node.Parent; cur != nil && cur.Parent != nil; cur = cur.Parent {
		ancestors = append([]*paneNode{cur}, ancestors...)
	}

	var sb strings.Builder
	for _, a := range ancestors {
		if isLastChild(a) {
			sb.WriteString("    ")
		} else {
			sb.WriteString("│   ")
		}
	}
	if isLastChild(node) {
		sb.WriteString("└── ")
	} else {
		sb.WriteString("├── ")
	}
	return sb.String()
}

func isLastChild(node *paneNode) bool {
	if node.Parent == nil {
		return true
	}
	siblings := node.Parent.Children
	return siblings[len(siblings)-1] == node
}

// truncateLabel cuts s to maxWidth terminal cells, ending in an ellipsis
func truncateLabel(s string, maxWidth int) string {
	if maxWidth < 4 {
		maxWidth = 4
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, "…")
}

// SelectedID returns the id under the cursor, or "" for an empty tree
func (t *TreePane) SelectedID() string {
	if t.cursor >= 0 && t.cursor < len(t.flatList) {
		return t.flatList[t.cursor].ID
	}
	return ""
}

// SelectByID moves the cursor to id
func (t *TreePane) SelectByID(id string) bool {
	for i, node := range t.flatList {
		if node.ID == id {
			t.cursor = i
			t.clampOffset()
			return true
		}
	}
	return false
}

func (t *TreePane) MoveDown() {
	if t.cursor < len(t.flatList)-1 {
		t.cursor++
	}
	t.clampOffset()
}

func (t *TreePane) MoveUp() {
	if t.cursor > 0 {
		t.cursor--
	}
	t.clampOffset()
}

func (t *TreePane) JumpToTop() {
	t.cursor = 0
	t.clampOffset()
}

func (t *TreePane) JumpToBottom() {
	if len(t.flatList) > 0 {
		t.cursor = len(t.flatList) - 1
	}
	t.clampOffset()
}

// JumpToParent moves the cursor to the parent row; a no-op on the root
func (t *TreePane) JumpToParent() {
	if t.cursor >= len(t.flatList) {
		return
	}
	if parent := t.flatList[t.cursor].Parent; parent != nil {
		t.SelectByID(parent.ID)
	}
}

// NodeCount returns the number of rows
func (t *TreePane) NodeCount() int { return len(t.flatList) }

func (t *TreePane) clampCursor() {
	if t.cursor >= len(t.flatList) {
		t.cursor = len(t.flatList) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.clampOffset()
}

// clampOffset scrolls just enough to keep the cursor visible
func (t *TreePane) clampOffset() {
	h := t.rows()
	if t.cursor < t.offset {
		t.offset = t.cursor
	}
	if t.cursor >= t.offset+h {
		t.offset = t.cursor - h + 1
	}
	if t.offset < 0 {
		t.offset = 0
	}
}

func (t *TreePane) rows() int {
	if t.height <= 0 {
		return 20
	}
	return t.height
}

// visibleRange returns [start, end) of the rows in the viewport
func (t *TreePane) visibleRange() (start, end int) {
	start = t.offset
	end = start + t.rows()
	if end > len(t.flatList) {
		end = len(t.flatList)
		start = end - t.rows()
		if start < 0 {
			start = 0
		}
	}
	return start, end
}
