package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Dicklesworthstone/tree_viewer/pkg/model"
)

// mermaidLabel makes a label safe inside a quoted Mermaid node
func mermaidLabel(label string) string {
	label = strings.ReplaceAll(label, `"`, "#quot;")
	label = strings.ReplaceAll(label, "\n", " ")
	return label
}

// GenerateMermaid returns a top-down Mermaid flowchart of the tree
func GenerateMermaid(doc *Document) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if len(doc.Nodes) == 0 {
		fmt.Fprintf(&sb, "    empty[\"%s: 0\"]\n", mermaidLabel(doc.Catalog.TreeSize))
		return sb.String()
	}
	for _, n := range doc.Nodes {
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", n.ID, mermaidLabel(n.Label))
	}
	for _, e := range doc.Diagram.Edges {
		fmt.Fprintf(&sb, "    %s --> %s\n", e.Source, e.Target)
	}
	if doc.Selected != "" {
		sb.WriteString("    classDef selected fill:#d32f2f,color:#fff\n")
		fmt.Fprintf(&sb, "    class %s selected\n", doc.Selected)
	}
	return sb.String()
}

// GenerateMarkdown renders a report: the Mermaid graph followed by a
// table with each node's relational info.
func GenerateMarkdown(doc *Document) string {
	c := doc.Catalog
	title := doc.Title
	if title == "" {
		title = "Tree"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "Generated: %s\n\n", doc.Generated.Format(time.RFC1123))
	fmt.Fprintf(&sb, "- **%s**: %d\n\n", c.TreeSize, doc.TreeSize())

	sb.WriteString("```mermaid\n")
	sb.WriteString(GenerateMermaid(doc))
	sb.WriteString("```\n")

	if len(doc.Nodes) == 0 {
		return sb.String()
	}

	fmt.Fprintf(&sb, "\n| ID | %s | %s | %s | %s | %s | %s |\n", c.Node, c.Parent, c.Children, c.Siblings, c.Level, c.SubtreeSize)
	sb.WriteString("|---|---|---|---|---|---|---|\n")
	for _, n := range doc.Nodes {
		info := doc.Info[n.ID]
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %d | %d |\n",
			n.ID,
			tableCell(info.Label),
			tableCell(parentOrNone(info, c.None)),
			tableCell(listOrNone(info.ChildrenLabels, c.None)),
			tableCell(listOrNone(info.SiblingsLabels, c.None)),
			info.Level,
			info.SubtreeSize)
	}
	return sb.String()
}

// WriteMarkdown writes the markdown report
func WriteMarkdown(w io.Writer, doc *Document) error {
	_, err := io.WriteString(w, GenerateMarkdown(doc))
	return err
}

var tableCellReplacer = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ", "\r", " ")

// tableCell keeps s on one table row
func tableCell(s string) string {
	return tableCellReplacer.Replace(s)
}

func parentOrNone(info model.NodeInfo, none string) string {
	if info.ParentLabel == nil {
		return none
	}
	return *info.ParentLabel
}

func listOrNone(labels []string, none string) string {
	if len(labels) == 0 {
		return none
	}
	return strings.Join(labels, ", ")
}
