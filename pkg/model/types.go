package model

import (
	"fmt"
	"strings"
	"unicode"
)

// DefaultRootMarker is appended to the root label when it is stored
const DefaultRootMarker = " (raíz)"

// TrimLabel strips surrounding whitespace, including byte order marks,
// which unicode.IsSpace does not cover.
func TrimLabel(label string) string {
	return strings.TrimFunc(label, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}

// Node is a single entry of the tree. ParentID is nil only for the root.
type Node struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	ParentID *string `json:"parent_id"`
}

// IsRoot returns true if the node has no parent
func (n Node) IsRoot() bool {
	return n.ParentID == nil
}

// Parent returns the parent id, or an empty string for the root
func (n Node) Parent() string {
	if n.ParentID == nil {
		return ""
	}
	return *n.ParentID
}

// Clone creates a deep copy of the node
func (n Node) Clone() Node {
	clone := n
	if n.ParentID != nil {
		v := *n.ParentID
		clone.ParentID = &v
	}
	return clone
}

// Validate checks if the node data is logically valid
func (n *Node) Validate() error {
	if n.ID == "" {
		return fmt.Errorf("node ID cannot be empty")
	}
	if TrimLabel(n.Label) == "" {
		return fmt.Errorf("node label cannot be empty")
	}
	if n.ParentID != nil {
		if *n.ParentID == "" {
			return fmt.Errorf("node %s: parent ID cannot be empty", n.ID)
		}
		if *n.ParentID == n.ID {
			return fmt.Errorf("node %s cannot be its own parent", n.ID)
		}
	}
	return nil
}

// NewRoot builds a root node
func NewRoot(id, label string) Node {
	return Node{ID: id, Label: label}
}

// NewChild builds a node attached to parentID
func NewChild(id, label, parentID string) Node {
	p := parentID
	return Node{ID: id, Label: label, ParentID: &p}
}

// NodeInfo holds the relational data derived for a selected node.
type NodeInfo struct {
	ID             string   `json:"id"`
	Label          string   `json:"label"`
	ParentLabel    *string  `json:"parent_label"`
	ChildrenLabels []string `json:"children_labels"`
	SiblingsLabels []string `json:"siblings_labels"`
	Level          int      `json:"level"`
	SubtreeSize    int      `json:"subtree_size"`
}

// IsRoot returns true if the info describes the root node
func (i NodeInfo) IsRoot() bool {
	return i.ParentLabel == nil
}

// IsLeaf returns true if the node has no children
func (i NodeInfo) IsLeaf() bool {
	return len(i.ChildrenLabels) == 0
}
