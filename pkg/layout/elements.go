// Package layout translates the tree's node list into renderable elements
// and computes a hierarchical top-to-bottom layout for them.
package layout

import (
	"fmt"

	"github.com/Dicklesworthstone/tree_viewer/pkg/model"
)

// ElementNode is one visual node per tree node
type ElementNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ElementEdge connects a non-root node to its parent
type ElementEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// Elements is the render list handed to a renderer
type Elements struct {
	Nodes []ElementNode `json:"nodes"`
	Edges []ElementEdge `json:"edges"`
}

// IsEmpty returns true if there is nothing to render
func (e Elements) IsEmpty() bool {
	return len(e.Nodes) == 0
}

// EdgeID formats the identifier of the edge from parent to child
func EdgeID(parent, child string) string {
	return fmt.Sprintf("%s-%s", parent, child)
}

// BuildElements converts nodes (in collection order) into visual nodes and
// one parent->child edge per non-root node.
func BuildElements(nodes []model.Node) Elements {
	el := Elements{
		Nodes: make([]ElementNode, 0, len(nodes)),
		Edges: make([]ElementEdge, 0, len(nodes)),
	}
	for _, n := range nodes {
		el.Nodes = append(el.Nodes, ElementNode{ID: n.ID, Label: n.Label})
	}
	for _, n := range nodes {
		if n.ParentID == nil || *n.ParentID == "" {
			continue
		}
		el.Edges = append(el.Edges, ElementEdge{
			ID:     EdgeID(*n.ParentID, n.ID),
			Source: *n.ParentID,
			Target: n.ID,
		})
	}
	return el
}
