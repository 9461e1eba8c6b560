package script

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/Dicklesworthstone/tree_viewer/pkg/editor"
	"github.com/Dicklesworthstone/tree_viewer/pkg/model"
)

const sampleScript = `- root: Company
- add: Engineering
  parent: n1
- add: Sales
- add: Platform
  parent: n2
- select: n2
`

func TestParseList(t *testing.T) {
	sc, err := Parse([]byte(sampleScript))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(sc.Steps) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(sc.Steps))
	}

	wantKinds := []StepKind{StepRoot, StepAdd, StepAdd, StepAdd, StepSelect}
	for i, st := range sc.Steps {
		kind, err := st.Kind()
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if kind != wantKinds[i] {
			t.Errorf("step %d kind = %s, want %s", i, kind, wantKinds[i])
		}
	}
	if sc.Steps[1].Line != 2 || sc.Steps[3].Parent != "n2" {
		t.Errorf("unexpected step data: %+v", sc.Steps[1])
	}
}

func TestParseMapping(t *testing.T) {
	src := `title: Org chart
locale: en
steps:
  - root: A
  - reset: true
`
	sc, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sc.Title != "Org chart" || sc.Locale != "en" {
		t.Errorf("metadata = %q/%q", sc.Title, sc.Locale)
	}
	if len(sc.Steps) != 2 || sc.Steps[0].Line != 4 {
		t.Fatalf("steps = %+v", sc.Steps)
	}
}

func TestParseEmpty(t *testing.T) {
	sc, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil): %v", err)
	}
	if len(sc.Steps) != 0 {
		t.Errorf("expected no steps, got %d", len(sc.Steps))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr error
	}{
		{"scalar document", "hello", nil},
		{"empty step", "- {}\n", ErrEmptyStep},
		{"two actions", "- root: A\n  add: B\n", ErrInvalidStep},
		{"parent on root", "- root: A\n  parent: n1\n", ErrInvalidStep},
		{"steps not a list", "steps: nope\n", nil},
		{"bad yaml", "- root: [\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRun(t *testing.T) {
	sc, err := Parse([]byte(sampleScript))
	if err != nil {
		t.Fatal(err)
	}
	sess := editor.New()
	rep := Run(sess, sc)

	if !rep.OK() {
		t.Fatalf("run failed:\n%s", rep)
	}
	if sess.TreeSize() != 4 {
		t.Errorf("TreeSize = %d, want 4", sess.TreeSize())
	}
	// "Sales" reused the parent from the previous add
	if got := sess.Tree().Children("n1"); !reflect.DeepEqual(got, []string{"n2", "n3"}) {
		t.Errorf("children of n1 = %v", got)
	}
	info, ok := sess.Info()
	if !ok || info.Label != "Engineering" || info.SubtreeSize != 2 {
		t.Errorf("selected info = %+v, %v", info, ok)
	}
}

func TestRunRecordsFailuresAndContinues(t *testing.T) {
	sc := &Script{Steps: []Step{
		RootStep("A"),
		RootStep("B"),
		AddStep("C", "n7"),
		AddStep("D", "n1"),
		SelectStep("n99"),
	}}
	sess := editor.New()
	rep := Run(sess, sc)

	if rep.Failed != 3 {
		t.Fatalf("Failed = %d, want 3\n%s", rep.Failed, rep)
	}
	tests := []struct {
		index    int
		wantOK   bool
		wantKind model.ErrorKind
		wantMsg  string
	}{
		{0, true, "", ""},
		{1, false, model.KindRootAlreadyExists, "El árbol ya tiene una raíz."},
		{2, false, model.KindParentNotFound, "El nodo padre no existe."},
		{3, true, "", ""},
		{4, false, model.KindNodeNotFound, "El nodo seleccionado no existe."},
	}
	for _, tt := range tests {
		res := rep.Results[tt.index]
		if res.OK != tt.wantOK {
			t.Errorf("step %d OK = %v, want %v", tt.index, res.OK, tt.wantOK)
		}
		if got := model.KindOf(res.Err); got != tt.wantKind {
			t.Errorf("step %d kind = %q, want %q", tt.index, got, tt.wantKind)
		}
		if res.Message != tt.wantMsg {
			t.Errorf("step %d message = %q, want %q", tt.index, res.Message, tt.wantMsg)
		}
	}
	if sess.TreeSize() != 2 {
		t.Errorf("TreeSize = %d, want 2", sess.TreeSize())
	}
	if !strings.Contains(rep.String(), "2 root: El árbol ya tiene una raíz.") {
		t.Errorf("report:\n%s", rep)
	}
}

func TestApplyInvalidStep(t *testing.T) {
	res := Apply(editor.New(), Step{})
	if res.OK || !errors.Is(res.Err, ErrEmptyStep) {
		t.Errorf("Apply(empty) = %+v", res)
	}
}

func TestResetStep(t *testing.T) {
	sess := editor.New()
	rep := Run(sess, &Script{Steps: []Step{RootStep("A"), ResetStep(), RootStep("B")}})
	if !rep.OK() {
		t.Fatalf("run failed:\n%s", rep)
	}
	root, _ := sess.Tree().Root()
	if root.ID != "n1" || root.Label != "B (raíz)" {
		t.Errorf("root after reset = %+v", root)
	}
}

func TestFromSessionRoundTrip(t *testing.T) {
	sc, _ := Parse([]byte(sampleScript))
	original := editor.New()
	Run(original, sc)

	recorded := FromSession(original)
	var buf bytes.Buffer
	if err := recorded.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	reparsed, err := Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("Parse(encoded): %v\n%s", err, buf.String())
	}

	replayed := editor.New()
	if rep := Run(replayed, reparsed); !rep.OK() {
		t.Fatalf("replay failed:\n%s", rep)
	}
	if !reflect.DeepEqual(replayed.Nodes(), original.Nodes()) {
		t.Errorf("replayed nodes = %v, want %v", replayed.Nodes(), original.Nodes())
	}
}

func TestEncodeMappingForm(t *testing.T) {
	sc := &Script{Title: "T", Steps: []Step{RootStep("A")}}
	var buf bytes.Buffer
	if err := sc.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "title: T\n") {
		t.Errorf("encoded = %q", buf.String())
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "org.tv.yaml")
	sc := &Script{Steps: []Step{RootStep("A"), AddStep("B", "n1")}}
	if err := sc.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Steps) != 2 || *loaded.Steps[1].Add != "B" {
		t.Errorf("loaded = %+v", loaded.Steps)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.tv.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.tv.yaml")
	if err := os.WriteFile(path, []byte("- root: A\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	fired := make(chan struct{}, 4)
	stop, err := Watch(path, 20*time.Millisecond, func() { fired <- struct{}{} })
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	// A sibling file must not trigger the callback
	if err := os.WriteFile(filepath.Join(filepath.Dir(path), "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("- root: B\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("callback not called after write")
	}

	stop()
	stop() // idempotent
}

func TestWatchMissingDir(t *testing.T) {
	if _, err := Watch(filepath.Join(t.TempDir(), "nope", "x.tv.yaml"), 0, func() {}); err == nil {
		t.Error("expected error for a missing directory")
	}
}
