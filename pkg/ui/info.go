package ui

import (
	"fmt"
	"strings"

	"github.com/Dicklesworthstone/tree_viewer/pkg/editor"
	"github.com/Dicklesworthstone/tree_viewer/pkg/model"
)

// InfoMarkdown formats a node's info block as markdown for the info pane
func InfoMarkdown(info model.NodeInfo, c editor.Catalog) string {
	none := func(labels []string) string {
		if len(labels) == 0 {
			return "_" + c.None + "_"
		}
		return strings.Join(labels, ", ")
	}
	parent := "_" + c.None + "_"
	if info.ParentLabel != nil {
		parent = *info.ParentLabel
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", info.Label)
	fmt.Fprintf(&sb, "- **%s:** `%s`\n", c.Node, info.ID)
	fmt.Fprintf(&sb, "- **%s:** %s\n", c.Parent, parent)
	fmt.Fprintf(&sb, "- **%s:** %s\n", c.Children, none(info.ChildrenLabels))
	fmt.Fprintf(&sb, "- **%s:** %s\n", c.Siblings, none(info.SiblingsLabels))
	fmt.Fprintf(&sb, "- **%s:** %d\n", c.Level, info.Level)
	fmt.Fprintf(&sb, "- **%s:** %d\n", c.SubtreeSize, info.SubtreeSize)
	return sb.String()
}
