// Package editor holds the view-layer state around a tree: form inputs, the
// single current message, the current selection with its info block, and
// the rebuild/clear notifications sent to whatever draws the graph.
package editor

import (
	"github.com/google/uuid"

	"github.com/Dicklesworthstone/tree_viewer/pkg/layout"
	"github.com/Dicklesworthstone/tree_viewer/pkg/logging"
	"github.com/Dicklesworthstone/tree_viewer/pkg/metrics"
	"github.com/Dicklesworthstone/tree_viewer/pkg/model"
	"github.com/Dicklesworthstone/tree_viewer/pkg/tree"
)

// Renderer draws the element list. Rebuild receives the full list after
// every successful mutation; Clear empties the drawing after a reset.
type Renderer interface {
	Rebuild(el layout.Elements)
	Clear()
}

// Renderers fans notifications out to several renderers in order
type Renderers []Renderer

func (rs Renderers) Rebuild(el layout.Elements) {
	for _, r := range rs {
		r.Rebuild(el)
	}
}

func (rs Renderers) Clear() {
	for _, r := range rs {
		r.Clear()
	}
}

type nopRenderer struct{}

func (nopRenderer) Rebuild(layout.Elements) {}
func (nopRenderer) Clear()                  {}

// Option configures a Session
type Option func(*Session)

// WithLocale picks the message catalog and, unless WithRootMarker is also
// given, the root annotation.
func WithLocale(l Locale) Option {
	return func(s *Session) {
		s.locale = l
	}
}

// WithRootMarker overrides the annotation appended to root labels
func WithRootMarker(marker string) Option {
	return func(s *Session) {
		s.rootMarker = &marker
	}
}

// WithRenderer attaches the renderer notified after mutations
func WithRenderer(r Renderer) Option {
	return func(s *Session) {
		s.renderer = r
	}
}

// WithLogger sets the logger; the session id is attached automatically
func WithLogger(l *logging.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// Session is one editing session over a single tree. Like the tree it
// wraps, it is not safe for concurrent use.
type Session struct {
	id         string
	locale     Locale
	rootMarker *string
	catalog    Catalog
	tree       *tree.Tree
	renderer   Renderer
	logger     *logging.Logger

	// Form state
	rootLabel  string
	childLabel string
	parentID   string

	message  string
	err      error
	selected string
	info     *model.NodeInfo
}

// New creates a session over an empty tree
func New(opts ...Option) *Session {
	s := &Session{
		id:       uuid.NewString(),
		locale:   DefaultLocale,
		renderer: nopRenderer{},
		logger:   logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.catalog = CatalogFor(s.locale)
	marker := s.catalog.RootMarker
	if s.rootMarker != nil {
		marker = *s.rootMarker
	}
	s.tree = tree.New(tree.WithRootMarker(marker))
	if s.renderer == nil {
		s.renderer = nopRenderer{}
	}
	s.logger = s.logger.WithSession(s.id)
	return s
}

// ID returns the session id
func (s *Session) ID() string { return s.id }

// Locale returns the active locale
func (s *Session) Locale() Locale { return s.locale }

// Catalog returns the active message catalog
func (s *Session) Catalog() Catalog { return s.catalog }

// SetRenderer replaces the renderer
func (s *Session) SetRenderer(r Renderer) {
	if r == nil {
		r = nopRenderer{}
	}
	s.renderer = r
}

// Renderer returns the attached renderer
func (s *Session) Renderer() Renderer { return s.renderer }

func (s *Session) SetRootLabel(label string)  { s.rootLabel = label }
func (s *Session) SetChildLabel(label string) { s.childLabel = label }

// SelectParent sets the parent used by CreateChild. It is not validated
// here; CreateChild reports a missing or unknown parent.
func (s *Session) SelectParent(id string) { s.parentID = id }

func (s *Session) RootLabel() string  { return s.rootLabel }
func (s *Session) ChildLabel() string { return s.childLabel }
func (s *Session) ParentID() string   { return s.parentID }

// CreateRoot submits the root form. On failure the message is set and the
// form is left untouched.
func (s *Session) CreateRoot() bool {
	s.clearMessage()

	node, err := s.tree.AddRoot(s.rootLabel)
	if err != nil {
		s.fail("create root", err)
		return false
	}

	s.rootLabel = ""
	s.clearSelection()
	metrics.NodesAdded.WithLabelValues(metrics.KindRoot).Inc()
	s.logger.Debug("root created", "id", node.ID, "label", node.Label)
	s.rebuild()
	return true
}

// CreateChild submits the child form. The parent selection survives a
// successful insert so several siblings can be added in a row.
func (s *Session) CreateChild() bool {
	s.clearMessage()

	node, err := s.tree.AddNode(s.childLabel, s.parentID)
	if err != nil {
		s.fail("create child", err)
		return false
	}

	s.childLabel = ""
	s.clearSelection()
	metrics.NodesAdded.WithLabelValues(metrics.KindChild).Inc()
	s.logger.Debug("node created", "id", node.ID, "label", node.Label, "parent_id", node.Parent())
	s.rebuild()
	return true
}

// Reset empties the tree and all derived state, then clears the renderer.
// The parent selection goes too since it would point at a discarded node.
func (s *Session) Reset() {
	s.tree.Reset()
	s.clearSelection()
	s.clearMessage()
	s.parentID = ""

	metrics.Resets.Inc()
	metrics.TreeSize.Set(0)
	s.logger.Debug("tree reset")
	s.renderer.Clear()
}

// Select is the tap handler: it records id as the selection and computes
// its info block. An unknown id clears the selection, sets the NodeNotFound
// message and returns false.
func (s *Session) Select(id string) bool {
	info, err := s.tree.ComputeNodeInfo(id)
	if err != nil {
		s.clearSelection()
		s.fail("select", err)
		return false
	}
	s.selected = id
	s.info = &info
	metrics.Selections.Inc()
	return true
}

// ClearSelection drops the selection and its info block
func (s *Session) ClearSelection() { s.clearSelection() }

// Message returns the single current message, or "" when there is none
func (s *Session) Message() string { return s.message }

// Err returns the error behind Message
func (s *Session) Err() error { return s.err }

// Selected returns the selected node id, or "" when nothing is selected
func (s *Session) Selected() string { return s.selected }

// Info returns the info block of the selected node
func (s *Session) Info() (model.NodeInfo, bool) {
	if s.info == nil {
		return model.NodeInfo{}, false
	}
	return *s.info, true
}

// TreeSize returns the total number of nodes
func (s *Session) TreeSize() int { return s.tree.Size() }

// Nodes returns a copy of the node collection in insertion order
func (s *Session) Nodes() []model.Node { return s.tree.Nodes() }

// Elements builds the current render list
func (s *Session) Elements() layout.Elements {
	return layout.BuildElements(s.tree.Nodes())
}

// Tree exposes the underlying model for read-only queries
func (s *Session) Tree() *tree.Tree { return s.tree }

func (s *Session) rebuild() {
	metrics.TreeSize.Set(float64(s.tree.Size()))
	s.renderer.Rebuild(s.Elements())
}

func (s *Session) fail(op string, err error) {
	s.err = err
	s.message = s.catalog.Message(err)
	kind := model.KindOf(err)
	metrics.ValidationFailures.WithLabelValues(string(kind)).Inc()
	s.logger.Info(op+" rejected", "kind", string(kind), "error", err.Error())
}

func (s *Session) clearMessage() {
	s.message = ""
	s.err = nil
}

func (s *Session) clearSelection() {
	s.selected = ""
	s.info = nil
}
