// Package tree implements the in-memory single-root tree model: an ordered
// node collection with parent pointers, insertion validation and
// relationship queries.
package tree

import (
	"fmt"

	"github.com/Dicklesworthstone/tree_viewer/pkg/model"
)

// idPrefix and initialID define the generated id format (n1, n2, ...)
const (
	idPrefix  = "n"
	initialID = 1
)

// Tree owns the node collection. It is not safe for concurrent use; callers
// that share a Tree across goroutines must serialize access.
type Tree struct {
	nodes      []model.Node        // Insertion order
	index      map[string]int      // Node ID -> position in nodes
	childrenOf map[string][]string // Parent ID -> child IDs in insertion order
	nextID     int
	rootMarker string
}

// Option configures a Tree
type Option func(*Tree)

// WithRootMarker overrides the annotation appended to the root label.
func WithRootMarker(marker string) Option {
	return func(t *Tree) {
		t.rootMarker = marker
	}
}

// New creates an empty tree
func New(opts ...Option) *Tree {
	t := &Tree{
		index:      make(map[string]int),
		childrenOf: make(map[string][]string),
		nextID:     initialID,
		rootMarker: model.DefaultRootMarker,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RootMarker returns the annotation appended to root labels
func (t *Tree) RootMarker() string {
	return t.rootMarker
}

// GenerateID returns a fresh identifier and advances the counter.
// Only Reset restarts the sequence.
func (t *Tree) GenerateID() string {
	id := fmt.Sprintf("%s%d", idPrefix, t.nextID)
	t.nextID++
	return id
}

// AddRoot creates the sole root. It fails with RootAlreadyExists when the
// collection is not empty and with EmptyLabel when the trimmed label is blank.
func (t *Tree) AddRoot(label string) (model.Node, error) {
	if len(t.nodes) > 0 {
		return model.Node{}, model.NewValidationError(model.KindRootAlreadyExists, "", "")
	}
	label = model.TrimLabel(label)
	if label == "" {
		return model.Node{}, model.NewValidationError(model.KindEmptyLabel, "root_label", "")
	}

	node := model.NewRoot(t.GenerateID(), label+t.rootMarker)
	if err := t.insert(node); err != nil {
		return model.Node{}, err
	}
	return node.Clone(), nil
}

// AddNode appends a child under parentID. Checks run in order: label,
// parent presence, parent existence.
func (t *Tree) AddNode(label, parentID string) (model.Node, error) {
	label = model.TrimLabel(label)
	if label == "" {
		return model.Node{}, model.NewValidationError(model.KindEmptyLabel, "label", "")
	}
	if parentID == "" {
		return model.Node{}, model.NewValidationError(model.KindMissingParent, "parent_id", "")
	}
	if !t.Has(parentID) {
		return model.Node{}, model.NewValidationError(model.KindParentNotFound, "parent_id", parentID)
	}

	node := model.NewChild(t.GenerateID(), label, parentID)
	if err := t.insert(node); err != nil {
		return model.Node{}, err
	}
	return node.Clone(), nil
}

// insert appends a node and updates the lookup indexes. The node's own
// consistency is checked before anything is touched.
func (t *Tree) insert(node model.Node) error {
	if err := node.Validate(); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	t.index[node.ID] = len(t.nodes)
	t.nodes = append(t.nodes, node)
	if node.ParentID != nil {
		parent := *node.ParentID
		t.childrenOf[parent] = append(t.childrenOf[parent], node.ID)
	}
	return nil
}

// Reset discards every node and restarts id generation.
func (t *Tree) Reset() {
	t.nodes = nil
	t.index = make(map[string]int)
	t.childrenOf = make(map[string][]string)
	t.nextID = initialID
}

// Size returns the total number of nodes
func (t *Tree) Size() int {
	return len(t.nodes)
}

// IsEmpty returns true if the tree has no nodes
func (t *Tree) IsEmpty() bool {
	return len(t.nodes) == 0
}

// Has reports whether a node with the given id exists
func (t *Tree) Has(id string) bool {
	_, ok := t.index[id]
	return ok
}

// Node returns a copy of the node with the given id
func (t *Tree) Node(id string) (model.Node, bool) {
	i, ok := t.index[id]
	if !ok {
		return model.Node{}, false
	}
	return t.nodes[i].Clone(), true
}

// Root returns the root node, or false on an empty tree
func (t *Tree) Root() (model.Node, bool) {
	if len(t.nodes) == 0 {
		return model.Node{}, false
	}
	// The root is always inserted first
	return t.nodes[0].Clone(), true
}

// Nodes returns a copy of the collection in insertion order
func (t *Tree) Nodes() []model.Node {
	out := make([]model.Node, len(t.nodes))
	for i, n := range t.nodes {
		out[i] = n.Clone()
	}
	return out
}

// label returns the stored label of id; id must exist
func (t *Tree) label(id string) string {
	return t.nodes[t.index[id]].Label
}
