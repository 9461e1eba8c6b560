package editor

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Dicklesworthstone/tree_viewer/pkg/layout"
	"github.com/Dicklesworthstone/tree_viewer/pkg/logging"
	"github.com/Dicklesworthstone/tree_viewer/pkg/model"
)

// recordingRenderer captures every notification for assertions
type recordingRenderer struct {
	rebuilds []layout.Elements
	clears   int
}

func (r *recordingRenderer) Rebuild(el layout.Elements) { r.rebuilds = append(r.rebuilds, el) }
func (r *recordingRenderer) Clear()                     { r.clears++ }

func (r *recordingRenderer) last() layout.Elements {
	if len(r.rebuilds) == 0 {
		return layout.Elements{}
	}
	return r.rebuilds[len(r.rebuilds)-1]
}

func newTestSession(opts ...Option) (*Session, *recordingRenderer) {
	r := &recordingRenderer{}
	opts = append([]Option{WithRenderer(r), WithLogger(logging.NopLogger())}, opts...)
	return New(opts...), r
}

func mustRoot(t *testing.T, s *Session, label string) {
	t.Helper()
	s.SetRootLabel(label)
	if !s.CreateRoot() {
		t.Fatalf("CreateRoot(%q) failed: %s", label, s.Message())
	}
}

func mustChild(t *testing.T, s *Session, label, parent string) {
	t.Helper()
	s.SetChildLabel(label)
	s.SelectParent(parent)
	if !s.CreateChild() {
		t.Fatalf("CreateChild(%q, %q) failed: %s", label, parent, s.Message())
	}
}

func TestCreateRoot(t *testing.T) {
	s, r := newTestSession()
	mustRoot(t, s, "  A  ")

	if s.TreeSize() != 1 {
		t.Errorf("TreeSize = %d, want 1", s.TreeSize())
	}
	if s.RootLabel() != "" {
		t.Errorf("root form not cleared: %q", s.RootLabel())
	}
	if s.Message() != "" || s.Err() != nil {
		t.Errorf("unexpected message %q / %v", s.Message(), s.Err())
	}
	if len(r.rebuilds) != 1 {
		t.Fatalf("rebuilds = %d, want 1", len(r.rebuilds))
	}
	want := []layout.ElementNode{{ID: "n1", Label: "A (raíz)"}}
	if !reflect.DeepEqual(r.last().Nodes, want) {
		t.Errorf("rebuilt nodes = %v, want %v", r.last().Nodes, want)
	}
}

func TestCreateRootFailures(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T, s *Session)
		label    string
		wantKind model.ErrorKind
		wantMsg  string
	}{
		{
			name:     "blank label",
			setup:    func(*testing.T, *Session) {},
			label:    "   ",
			wantKind: model.KindEmptyLabel,
			wantMsg:  "La etiqueta de la raíz es obligatoria.",
		},
		{
			name:     "second root",
			setup:    func(t *testing.T, s *Session) { mustRoot(t, s, "A") },
			label:    "B",
			wantKind: model.KindRootAlreadyExists,
			wantMsg:  "El árbol ya tiene una raíz.",
		},
		{
			name:     "second root with blank label reports the existing root",
			setup:    func(t *testing.T, s *Session) { mustRoot(t, s, "A") },
			label:    "",
			wantKind: model.KindRootAlreadyExists,
			wantMsg:  "El árbol ya tiene una raíz.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, r := newTestSession()
			tt.setup(t, s)
			before := len(r.rebuilds)
			size := s.TreeSize()

			s.SetRootLabel(tt.label)
			if s.CreateRoot() {
				t.Fatal("CreateRoot succeeded, want failure")
			}
			if got := model.KindOf(s.Err()); got != tt.wantKind {
				t.Errorf("kind = %q, want %q", got, tt.wantKind)
			}
			if s.Message() != tt.wantMsg {
				t.Errorf("Message = %q, want %q", s.Message(), tt.wantMsg)
			}
			if s.RootLabel() != tt.label {
				t.Errorf("root form changed to %q on failure", s.RootLabel())
			}
			if s.TreeSize() != size || len(r.rebuilds) != before {
				t.Error("failed CreateRoot must not mutate or rebuild")
			}
		})
	}
}

func TestCreateChildScenario(t *testing.T) {
	s, r := newTestSession()
	mustRoot(t, s, "A")
	mustChild(t, s, "B", "n1")

	// Parent selection persists; only the label needs retyping
	if s.ParentID() != "n1" {
		t.Fatalf("parent selection = %q, want n1", s.ParentID())
	}
	s.SetChildLabel("C")
	if !s.CreateChild() {
		t.Fatalf("CreateChild(C) failed: %s", s.Message())
	}
	if s.ChildLabel() != "" {
		t.Errorf("child form not cleared: %q", s.ChildLabel())
	}

	if !s.Select("n1") {
		t.Fatal("Select(n1) failed")
	}
	info, ok := s.Info()
	if !ok {
		t.Fatal("expected info after select")
	}
	if !reflect.DeepEqual(info.ChildrenLabels, []string{"B", "C"}) {
		t.Errorf("children = %v, want [B C]", info.ChildrenLabels)
	}
	if info.SubtreeSize != 3 {
		t.Errorf("subtree = %d, want 3", info.SubtreeSize)
	}

	wantEdges := []layout.ElementEdge{
		{ID: "n1-n2", Source: "n1", Target: "n2"},
		{ID: "n1-n3", Source: "n1", Target: "n3"},
	}
	if !reflect.DeepEqual(r.last().Edges, wantEdges) {
		t.Errorf("edges = %v, want %v", r.last().Edges, wantEdges)
	}
}

func TestCreateChildFailures(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		parent   string
		wantKind model.ErrorKind
		wantMsg  string
	}{
		{"empty label", "", "n1", model.KindEmptyLabel, "La etiqueta del nodo es obligatoria."},
		{"no parent", "X", "", model.KindMissingParent, "Debes seleccionar un nodo padre."},
		{"unknown parent", "X", "n99", model.KindParentNotFound, "El nodo padre no existe."},
		{"label checked before parent", " ", "", model.KindEmptyLabel, "La etiqueta del nodo es obligatoria."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, r := newTestSession()
			mustRoot(t, s, "A")
			before := len(r.rebuilds)

			s.SetChildLabel(tt.label)
			s.SelectParent(tt.parent)
			if s.CreateChild() {
				t.Fatal("CreateChild succeeded, want failure")
			}
			if got := model.KindOf(s.Err()); got != tt.wantKind {
				t.Errorf("kind = %q, want %q", got, tt.wantKind)
			}
			if s.Message() != tt.wantMsg {
				t.Errorf("Message = %q, want %q", s.Message(), tt.wantMsg)
			}
			if s.TreeSize() != 1 {
				t.Errorf("TreeSize = %d, want 1", s.TreeSize())
			}
			if len(r.rebuilds) != before {
				t.Error("failed CreateChild must not rebuild")
			}
		})
	}
}

// TestMessageClearedOnNextAttempt verifies at most one message is shown and
// a later success clears it.
func TestMessageClearedOnNextAttempt(t *testing.T) {
	s, _ := newTestSession()
	s.SetRootLabel("")
	s.CreateRoot()
	if s.Message() == "" {
		t.Fatal("expected a message after failure")
	}

	mustRoot(t, s, "A")
	if s.Message() != "" || s.Err() != nil {
		t.Errorf("message not cleared: %q", s.Message())
	}
}

func TestMutationClearsSelection(t *testing.T) {
	s, _ := newTestSession()
	mustRoot(t, s, "A")
	if !s.Select("n1") {
		t.Fatal("Select(n1) failed")
	}

	mustChild(t, s, "B", "n1")
	if s.Selected() != "" {
		t.Errorf("selection = %q after insert, want none", s.Selected())
	}
	if _, ok := s.Info(); ok {
		t.Error("info should be cleared after insert")
	}
}

func TestFailedMutationKeepsSelection(t *testing.T) {
	s, _ := newTestSession()
	mustRoot(t, s, "A")
	s.Select("n1")

	s.SetChildLabel("")
	s.CreateChild()
	if s.Selected() != "n1" {
		t.Errorf("selection = %q, want n1 kept on failure", s.Selected())
	}
}

func TestSelectUnknown(t *testing.T) {
	s, _ := newTestSession()
	mustRoot(t, s, "A")
	s.Select("n1")

	if s.Select("n404") {
		t.Error("Select(unknown) returned true")
	}
	if s.Selected() != "" {
		t.Errorf("selection = %q, want cleared", s.Selected())
	}
	if _, ok := s.Info(); ok {
		t.Error("info should be cleared for an unknown id")
	}
	if got := s.Message(); got != "El nodo seleccionado no existe." {
		t.Errorf("Message = %q, want NodeNotFound message", got)
	}
	if model.KindOf(s.Err()) != model.KindNodeNotFound {
		t.Errorf("Err kind = %q, want %q", model.KindOf(s.Err()), model.KindNodeNotFound)
	}

	// The next successful action clears it
	s.SetChildLabel("B")
	s.SelectParent("n1")
	if !s.CreateChild() || s.Message() != "" {
		t.Errorf("Message after create = %q, want empty", s.Message())
	}
}

func TestReset(t *testing.T) {
	s, r := newTestSession()
	mustRoot(t, s, "A")
	mustChild(t, s, "B", "n1")
	s.Select("n2")
	s.SetChildLabel("")
	s.CreateChild() // leaves a message behind

	s.Reset()

	if s.TreeSize() != 0 {
		t.Errorf("TreeSize = %d after reset", s.TreeSize())
	}
	if s.Selected() != "" || s.Message() != "" || s.ParentID() != "" {
		t.Errorf("state not cleared: selected=%q message=%q parent=%q", s.Selected(), s.Message(), s.ParentID())
	}
	if r.clears != 1 {
		t.Errorf("clears = %d, want 1", r.clears)
	}

	mustRoot(t, s, "Z")
	if got := r.last().Nodes[0].ID; got != "n1" {
		t.Errorf("first id after reset = %s, want n1", got)
	}
}

// TestResetOnEmptyTree verifies reset is idempotent on a fresh session
func TestResetOnEmptyTree(t *testing.T) {
	s, r := newTestSession()
	s.Reset()
	s.Reset()
	if s.TreeSize() != 0 || r.clears != 2 {
		t.Errorf("size=%d clears=%d", s.TreeSize(), r.clears)
	}
}

func TestEnglishLocale(t *testing.T) {
	s, _ := newTestSession(WithLocale(LocaleEN))
	mustRoot(t, s, "A")

	if got := s.Nodes()[0].Label; got != "A (root)" {
		t.Errorf("root label = %q, want %q", got, "A (root)")
	}
	s.SetRootLabel("B")
	s.CreateRoot()
	if s.Message() != "The tree already has a root." {
		t.Errorf("Message = %q", s.Message())
	}
	if !errors.Is(s.Err(), model.ErrRootAlreadyExists) {
		t.Errorf("Err = %v, want ErrRootAlreadyExists", s.Err())
	}
}

func TestRootMarkerOverride(t *testing.T) {
	s, _ := newTestSession(WithLocale(LocaleEN), WithRootMarker(" *"))
	mustRoot(t, s, "top")
	if got := s.Nodes()[0].Label; got != "top *" {
		t.Errorf("root label = %q, want %q", got, "top *")
	}
}

func TestRenderersFanOut(t *testing.T) {
	a, b := &recordingRenderer{}, &recordingRenderer{}
	s := New(WithRenderer(Renderers{a, b}))
	mustRoot(t, s, "A")
	s.Reset()

	for i, r := range []*recordingRenderer{a, b} {
		if len(r.rebuilds) != 1 || r.clears != 1 {
			t.Errorf("renderer %d: rebuilds=%d clears=%d", i, len(r.rebuilds), r.clears)
		}
	}
}

func TestSessionID(t *testing.T) {
	a, b := New(), New()
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("session ids should be unique and non-empty: %q %q", a.ID(), b.ID())
	}
}

func TestParseLocale(t *testing.T) {
	tests := []struct {
		in   string
		want Locale
	}{
		{"es", LocaleES},
		{"en", LocaleEN},
		{"en_US.UTF-8", LocaleEN},
		{"ES-mx", LocaleES},
		{"fr", DefaultLocale},
		{"", DefaultLocale},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLocale(tt.in); got != tt.want {
				t.Errorf("ParseLocale(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCatalogMessageUnknownError(t *testing.T) {
	c := CatalogFor(LocaleEN)
	if got := c.Message(errors.New("boom")); got != c.Unexpected {
		t.Errorf("Message(other) = %q, want %q", got, c.Unexpected)
	}
	if got := c.Message(nil); got != "" {
		t.Errorf("Message(nil) = %q, want empty", got)
	}
}
