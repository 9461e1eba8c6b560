package tree

import (
	"github.com/Dicklesworthstone/tree_viewer/pkg/model"
)

// ComputeNodeInfo derives the relational info for id.
func (t *Tree) ComputeNodeInfo(id string) (model.NodeInfo, error) {
	i, ok := t.index[id]
	if !ok {
		return model.NodeInfo{}, model.NewValidationError(model.KindNodeNotFound, "id", id)
	}
	node := t.nodes[i]

	info := model.NodeInfo{
		ID:             node.ID,
		Label:          node.Label,
		ChildrenLabels: t.labels(t.childrenOf[id]),
		SiblingsLabels: t.labels(t.siblings(node)),
		Level:          t.level(id),
		SubtreeSize:    len(t.descendants(id)) + 1,
	}
	if node.ParentID != nil {
		if p, ok := t.index[*node.ParentID]; ok {
			parentLabel := t.nodes[p].Label
			info.ParentLabel = &parentLabel
		}
	}
	return info, nil
}

// Children returns the ids of the direct children of id in insertion order.
func (t *Tree) Children(id string) []string {
	return append([]string{}, t.childrenOf[id]...)
}

// Siblings returns the ids of the other nodes sharing id's parent.
// The root has no siblings.
func (t *Tree) Siblings(id string) []string {
	i, ok := t.index[id]
	if !ok {
		return nil
	}
	return t.siblings(t.nodes[i])
}

func (t *Tree) siblings(node model.Node) []string {
	// Only one node may lack a parent, so the root never has siblings
	if node.ParentID == nil {
		return []string{}
	}
	peers := t.childrenOf[*node.ParentID]
	out := make([]string, 0, len(peers))
	for _, peer := range peers {
		if peer != node.ID {
			out = append(out, peer)
		}
	}
	return out
}

// Descendants returns every node reachable through child links from id:
// the direct children first, then each child's descendants in turn.
func (t *Tree) Descendants(id string) []string {
	if !t.Has(id) {
		return nil
	}
	return t.descendants(id)
}

func (t *Tree) descendants(id string) []string {
	children := t.childrenOf[id]
	all := append([]string{}, children...)
	for _, c := range children {
		all = append(all, t.descendants(c)...)
	}
	return all
}

// SubtreeSize counts id plus all of its descendants. Unknown ids yield 0.
func (t *Tree) SubtreeSize(id string) int {
	if !t.Has(id) {
		return 0
	}
	return len(t.descendants(id)) + 1
}

// Level returns the number of parent links between id and the root.
// Unknown ids yield -1.
func (t *Tree) Level(id string) int {
	if !t.Has(id) {
		return -1
	}
	return t.level(id)
}

func (t *Tree) level(id string) int {
	level := 0
	current := t.nodes[t.index[id]]
	for current.ParentID != nil {
		p, ok := t.index[*current.ParentID]
		if !ok {
			break
		}
		level++
		current = t.nodes[p]
	}
	return level
}

// Ancestors returns the ids on the path from the root down to id's parent.
func (t *Tree) Ancestors(id string) []string {
	i, ok := t.index[id]
	if !ok {
		return nil
	}
	var ancestors []string
	current := t.nodes[i]
	for current.ParentID != nil {
		p, ok := t.index[*current.ParentID]
		if !ok {
			break
		}
		current = t.nodes[p]
		ancestors = append([]string{current.ID}, ancestors...)
	}
	return ancestors
}

// Depth returns the largest level in the tree, or -1 when empty
func (t *Tree) Depth() int {
	depth := -1
	for _, n := range t.nodes {
		if l := t.level(n.ID); l > depth {
			depth = l
		}
	}
	return depth
}

func (t *Tree) labels(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.label(id))
	}
	return out
}
