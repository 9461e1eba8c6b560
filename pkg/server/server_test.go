package server

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/Dicklesworthstone/tree_viewer/pkg/editor"
	"github.com/Dicklesworthstone/tree_viewer/pkg/layout"
	"github.com/Dicklesworthstone/tree_viewer/pkg/logging"
	"github.com/Dicklesworthstone/tree_viewer/pkg/model"
	"github.com/Dicklesworthstone/tree_viewer/pkg/script"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	sess := editor.New(editor.WithLogger(logging.NopLogger()))
	s := New(sess, Options{Title: "Test"})
	t.Cleanup(s.Close)
	return s, s.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestCreateRootAndNodes(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/root", `{"label":"A"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/root status = %d, want %d (%s)", rec.Code, http.StatusCreated, rec.Body)
	}
	tr := decodeBody[treeResponse](t, rec)
	if tr.TreeSize != 1 || tr.Nodes[0].Label != "A (raíz)" {
		t.Errorf("after root: size=%d nodes=%+v", tr.TreeSize, tr.Nodes)
	}

	rec = do(t, h, http.MethodPost, "/api/nodes", `{"label":"B","parent_id":"n1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/nodes status = %d, want %d (%s)", rec.Code, http.StatusCreated, rec.Body)
	}

	// parent_id omitted: the previous parent selection is reused
	rec = do(t, h, http.MethodPost, "/api/nodes", `{"label":"C"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/nodes without parent status = %d (%s)", rec.Code, rec.Body)
	}

	tr = decodeBody[treeResponse](t, do(t, h, http.MethodGet, "/api/tree", ""))
	if tr.TreeSize != 3 {
		t.Errorf("tree_size = %d, want 3", tr.TreeSize)
	}
	if tr.ParentID != "n1" {
		t.Errorf("parent_id = %q, want n1", tr.ParentID)
	}
	// 3 nodes + 2 edges
	if len(tr.Elements) != 5 {
		t.Errorf("len(elements) = %d, want 5", len(tr.Elements))
	}
	if tr.Message != "" {
		t.Errorf("message = %q, want empty", tr.Message)
	}
}

func TestRejections(t *testing.T) {
	tests := []struct {
		name     string
		setup    []string
		path     string
		body     string
		wantCode int
		wantKind model.ErrorKind
		wantMsg  string
	}{
		{
			name:     "empty root label",
			path:     "/api/root",
			body:     `{"label":"   "}`,
			wantCode: http.StatusUnprocessableEntity,
			wantKind: model.KindEmptyLabel,
			wantMsg:  "La etiqueta de la raíz es obligatoria.",
		},
		{
			name:     "second root",
			setup:    []string{`{"label":"A"}`},
			path:     "/api/root",
			body:     `{"label":"B"}`,
			wantCode: http.StatusUnprocessableEntity,
			wantKind: model.KindRootAlreadyExists,
			wantMsg:  "El árbol ya tiene una raíz.",
		},
		{
			name:     "missing parent",
			setup:    []string{`{"label":"A"}`},
			path:     "/api/nodes",
			body:     `{"label":"B","parent_id":""}`,
			wantCode: http.StatusUnprocessableEntity,
			wantKind: model.KindMissingParent,
			wantMsg:  "Debes seleccionar un nodo padre.",
		},
		{
			name:     "unknown parent",
			setup:    []string{`{"label":"A"}`},
			path:     "/api/nodes",
			body:     `{"label":"B","parent_id":"n9"}`,
			wantCode: http.StatusUnprocessableEntity,
			wantKind: model.KindParentNotFound,
			wantMsg:  "El nodo padre no existe.",
		},
		{
			name:     "empty child label",
			setup:    []string{`{"label":"A"}`},
			path:     "/api/nodes",
			body:     `{"label":"","parent_id":"n1"}`,
			wantCode: http.StatusUnprocessableEntity,
			wantKind: model.KindEmptyLabel,
			wantMsg:  "La etiqueta del nodo es obligatoria.",
		},
		{
			name:     "select unknown",
			path:     "/api/select",
			body:     `{"id":"n42"}`,
			wantCode: http.StatusNotFound,
			wantKind: model.KindNodeNotFound,
			wantMsg:  "El nodo seleccionado no existe.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, h := newTestServer(t)
			for _, body := range tt.setup {
				do(t, h, http.MethodPost, "/api/root", body)
			}
			rec := do(t, h, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body)
			}
			got := decodeBody[errorResponse](t, rec)
			if got.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", got.Kind, tt.wantKind)
			}
			if got.Error != tt.wantMsg {
				t.Errorf("error = %q, want %q", got.Error, tt.wantMsg)
			}
		})
	}
}

func TestRejectionKeepsTreeAndSetsMessage(t *testing.T) {
	_, h := newTestServer(t)
	do(t, h, http.MethodPost, "/api/root", `{"label":"A"}`)
	do(t, h, http.MethodPost, "/api/root", `{"label":"B"}`)

	tr := decodeBody[treeResponse](t, do(t, h, http.MethodGet, "/api/tree", ""))
	if tr.TreeSize != 1 {
		t.Errorf("tree_size = %d, want 1", tr.TreeSize)
	}
	if tr.Message != "El árbol ya tiene una raíz." {
		t.Errorf("message = %q", tr.Message)
	}
}

func TestBadJSON(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(t, h, http.MethodPost, "/api/root", `{"label":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSelectAndInfo(t *testing.T) {
	_, h := newTestServer(t)
	do(t, h, http.MethodPost, "/api/root", `{"label":"A"}`)
	do(t, h, http.MethodPost, "/api/nodes", `{"label":"B","parent_id":"n1"}`)
	do(t, h, http.MethodPost, "/api/nodes", `{"label":"C","parent_id":"n1"}`)

	rec := do(t, h, http.MethodPost, "/api/select", `{"id":"n2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("select status = %d (%s)", rec.Code, rec.Body)
	}
	got := decodeBody[infoResponse](t, rec)
	if got.Info.ParentLabel == nil || *got.Info.ParentLabel != "A (raíz)" {
		t.Errorf("parent_label = %v, want A (raíz)", got.Info.ParentLabel)
	}
	if len(got.Info.SiblingsLabels) != 1 || got.Info.SiblingsLabels[0] != "C" {
		t.Errorf("siblings = %v, want [C]", got.Info.SiblingsLabels)
	}
	if got.Info.Level != 1 {
		t.Errorf("level = %d, want 1", got.Info.Level)
	}

	tr := decodeBody[treeResponse](t, do(t, h, http.MethodGet, "/api/tree", ""))
	if tr.Selected != "n2" || tr.Info == nil {
		t.Errorf("selected = %q info = %v, want n2 with info", tr.Selected, tr.Info)
	}

	rec = do(t, h, http.MethodGet, "/api/nodes/n1/info", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("info status = %d", rec.Code)
	}
	root := decodeBody[infoResponse](t, rec)
	if root.Info.SubtreeSize != 3 || root.Info.ParentLabel != nil {
		t.Errorf("root info = %+v", root.Info)
	}

	// Reading info does not move the selection
	tr = decodeBody[treeResponse](t, do(t, h, http.MethodGet, "/api/tree", ""))
	if tr.Selected != "n2" {
		t.Errorf("selected = %q after info read, want n2", tr.Selected)
	}

	if rec := do(t, h, http.MethodGet, "/api/nodes/zzz/info", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown info status = %d, want 404", rec.Code)
	}
}

func TestTap(t *testing.T) {
	s, h := newTestServer(t)
	do(t, h, http.MethodPost, "/api/root", `{"label":"A"}`)
	do(t, h, http.MethodPost, "/api/nodes", `{"label":"B","parent_id":"n1"}`)
	do(t, h, http.MethodPost, "/api/nodes", `{"label":"C","parent_id":"n1"}`)

	d, err := layout.Layout(s.sess.Elements(), s.opts.Layout)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	c, _ := d.Node("n3")

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantID     string
	}{
		{"on node", fmt.Sprintf(`{"x":%v,"y":%v}`, c.X+3, c.Y-3), http.StatusOK, "n3"},
		{"empty canvas", `{"x":-500,"y":-500}`, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/tap", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body)
			}
			if tt.wantStatus != http.StatusOK {
				got := decodeBody[errorResponse](t, rec)
				if got.Kind != model.KindNodeNotFound {
					t.Errorf("kind = %v, want %v", got.Kind, model.KindNodeNotFound)
				}
				return
			}
			got := decodeBody[infoResponse](t, rec)
			if got.ID != tt.wantID || got.Info.Label != "C" {
				t.Errorf("tap = %s/%q, want %s/C", got.ID, got.Info.Label, tt.wantID)
			}
		})
	}

	tr := decodeBody[treeResponse](t, do(t, h, http.MethodGet, "/api/tree", ""))
	if tr.Selected != "" || tr.Message == "" {
		t.Errorf("after miss selected = %q message = %q, want cleared selection with message", tr.Selected, tr.Message)
	}
}

func TestReset(t *testing.T) {
	_, h := newTestServer(t)
	do(t, h, http.MethodPost, "/api/root", `{"label":"A"}`)
	do(t, h, http.MethodPost, "/api/select", `{"id":"n1"}`)

	rec := do(t, h, http.MethodPost, "/api/reset", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reset status = %d", rec.Code)
	}
	tr := decodeBody[treeResponse](t, rec)
	if tr.TreeSize != 0 || tr.Selected != "" || tr.Info != nil || len(tr.Elements) != 0 {
		t.Errorf("after reset = %+v", tr)
	}

	// Ids restart after reset
	tr = decodeBody[treeResponse](t, do(t, h, http.MethodPost, "/api/root", `{"label":"Z"}`))
	if tr.Nodes[0].ID != "n1" {
		t.Errorf("first id after reset = %q, want n1", tr.Nodes[0].ID)
	}
}

func TestIndexPage(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{"<title>Test | tv</title>", `"live":true`, `"api_base":"/api"`} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}

	if rec := do(t, h, http.MethodGet, "/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET /nope status = %d, want 404", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	_, h := newTestServer(t)
	do(t, h, http.MethodPost, "/api/root", `{"label":"A"}`)

	health := decodeBody[map[string]any](t, do(t, h, http.MethodGet, "/healthz", ""))
	if health["status"] != "ok" {
		t.Errorf("status = %v, want ok", health["status"])
	}
	if health["tree_size"] != float64(1) {
		t.Errorf("tree_size = %v, want 1", health["tree_size"])
	}

	rec := do(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "tv_nodes_added_total") {
		t.Error("metrics output missing tv_nodes_added_total")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	_, h := newTestServer(t)
	if rec := do(t, h, http.MethodGet, "/api/root", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/root status = %d, want 405", rec.Code)
	}
}

func TestReplay(t *testing.T) {
	s, h := newTestServer(t)
	do(t, h, http.MethodPost, "/api/root", `{"label":"Old"}`)

	sc := &script.Script{Steps: []script.Step{
		script.RootStep("A"),
		script.AddStep("B", "n1"),
		script.AddStep("C", "n9"),
	}}
	rep := s.Replay(sc)
	if rep.Failed != 1 {
		t.Errorf("Failed = %d, want 1", rep.Failed)
	}

	tr := decodeBody[treeResponse](t, do(t, h, http.MethodGet, "/api/tree", ""))
	if tr.TreeSize != 2 || tr.Nodes[0].Label != "A (raíz)" {
		t.Errorf("after replay: %+v", tr.Nodes)
	}
}

func TestRendererComposition(t *testing.T) {
	rec := &countingRenderer{}
	sess := editor.New(editor.WithRenderer(rec))
	s := New(sess, Options{Layout: layout.DefaultOptions()})
	defer s.Close()

	h := s.Handler()
	do(t, h, http.MethodPost, "/api/root", `{"label":"A"}`)
	do(t, h, http.MethodPost, "/api/reset", "")
	if rec.rebuilds != 1 || rec.clears != 1 {
		t.Errorf("rebuilds=%d clears=%d, want 1 and 1", rec.rebuilds, rec.clears)
	}
}

type countingRenderer struct{ rebuilds, clears int }

func (c *countingRenderer) Rebuild(layout.Elements) { c.rebuilds++ }
func (c *countingRenderer) Clear()                  { c.clears++ }

func readEvent(t *testing.T, r *bufio.Reader) (name, data string) {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read event: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && name != "":
			return name, data
		}
	}
}

func TestEventStream(t *testing.T) {
	s, h := newTestServer(t)
	ts := httptest.NewServer(h)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/events: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	br := bufio.NewReader(resp.Body)
	if name, _ := readEvent(t, br); name != EventConnected {
		t.Fatalf("first event = %q, want %q", name, EventConnected)
	}
	if n := s.Hub().ClientCount(); n != 1 {
		t.Errorf("ClientCount = %d, want 1", n)
	}

	post, err := http.Post(ts.URL+"/api/root", "application/json", bytes.NewBufferString(`{"label":"A"}`))
	if err != nil {
		t.Fatalf("POST /api/root: %v", err)
	}
	post.Body.Close()

	name, data := readEvent(t, br)
	if name != EventRebuild {
		t.Errorf("event = %q, want %q", name, EventRebuild)
	}
	if data != `{"edges":0,"nodes":1}` {
		t.Errorf("data = %s", data)
	}

	post, err = http.Post(ts.URL+"/api/reset", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /api/reset: %v", err)
	}
	post.Body.Close()

	if name, _ := readEvent(t, br); name != EventClear {
		t.Errorf("event = %q, want %q", name, EventClear)
	}
}

func TestHubStop(t *testing.T) {
	hub := NewHub()
	hub.Stop()
	hub.Stop()

	rec := httptest.NewRecorder()
	hub.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status after Stop = %d, want 503", rec.Code)
	}
	// Broadcasting to a stopped hub is a no-op
	hub.Rebuild(layout.Elements{})
}
