// Package server exposes an editor session over a small local HTTP API and
// serves the live browser page that renders it.
package server

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Dicklesworthstone/tree_viewer/pkg/editor"
	"github.com/Dicklesworthstone/tree_viewer/pkg/export"
	"github.com/Dicklesworthstone/tree_viewer/pkg/layout"
	"github.com/Dicklesworthstone/tree_viewer/pkg/logging"
	"github.com/Dicklesworthstone/tree_viewer/pkg/metrics"
	"github.com/Dicklesworthstone/tree_viewer/pkg/model"
	"github.com/Dicklesworthstone/tree_viewer/pkg/script"
)

const maxBodyBytes = 64 << 10

// Options configures the server
type Options struct {
	Title  string
	Layout layout.Options
	Logger *logging.Logger
}

// Server owns one editor session. A single mutex serializes every request,
// so each handler runs atomically against the tree.
type Server struct {
	mu     sync.Mutex
	sess   *editor.Session
	hub    *Hub
	opts   Options
	logger *logging.Logger
	mux    *http.ServeMux
}

// New wraps sess, attaching the SSE hub next to its current renderer
func New(sess *editor.Session, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	if opts.Layout == (layout.Options{}) {
		opts.Layout = layout.DefaultOptions()
	}
	s := &Server{
		sess:   sess,
		hub:    NewHub(),
		opts:   opts,
		logger: opts.Logger.WithComponent("server"),
		mux:    http.NewServeMux(),
	}
	sess.SetRenderer(editor.Renderers{sess.Renderer(), s.hub})

	s.mux.HandleFunc("GET /{$}", s.index)
	s.mux.HandleFunc("GET /api/tree", s.getTree)
	s.mux.HandleFunc("POST /api/root", s.createRoot)
	s.mux.HandleFunc("POST /api/nodes", s.createNode)
	s.mux.HandleFunc("POST /api/reset", s.reset)
	s.mux.HandleFunc("POST /api/select", s.selectNode)
	s.mux.HandleFunc("POST /api/tap", s.tapNode)
	s.mux.HandleFunc("GET /api/nodes/{id}/info", s.nodeInfo)
	s.mux.Handle("GET /api/events", s.hub)
	s.mux.HandleFunc("GET /healthz", s.healthz)
	s.mux.Handle("GET /metrics", promhttp.Handler())
	return s
}

// Handler returns the routed handler wrapped in request logging
func (s *Server) Handler() http.Handler {
	return s.loggingMiddleware(s.mux)
}

// Hub returns the event hub
func (s *Server) Hub() *Hub { return s.hub }

// Close disconnects event clients
func (s *Server) Close() { s.hub.Stop() }

// Replay resets the session and runs sc against it, e.g. after the script
// file changed on disk.
func (s *Server) Replay(sc *script.Script) script.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess.Reset()
	rep := script.Run(s.sess, sc)
	s.logger.Info("script replayed", "steps", len(sc.Steps), "failed", rep.Failed, "tree_size", s.sess.TreeSize())
	return rep
}

// treeResponse is the full session state consumed by the browser page
type treeResponse struct {
	Nodes    []model.Node       `json:"nodes"`
	Elements []export.CyElement `json:"elements"`
	TreeSize int                `json:"tree_size"`
	Message  string             `json:"message"`
	Selected string             `json:"selected"`
	ParentID string             `json:"parent_id"`
	Info     *model.NodeInfo    `json:"info"`
}

// snapshot must be called with s.mu held
func (s *Server) snapshot() treeResponse {
	resp := treeResponse{
		Nodes:    s.sess.Nodes(),
		Elements: export.CytoscapeElements(s.sess.Elements()),
		TreeSize: s.sess.TreeSize(),
		Message:  s.sess.Message(),
		Selected: s.sess.Selected(),
		ParentID: s.sess.ParentID(),
	}
	if info, ok := s.sess.Info(); ok {
		resp.Info = &info
	}
	return resp
}

// GET / serves the live page
func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	doc, err := export.NewDocument(s.sess, s.opts.Title, s.opts.Layout)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := export.WriteHTML(w, doc, export.HTMLOptions{Live: true}); err != nil {
		s.logger.Warn("render page failed", "error", err.Error())
	}
}

func (s *Server) getTree(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := s.snapshot()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

type labelRequest struct {
	Label    string  `json:"label"`
	ParentID *string `json:"parent_id"`
}

func decode(r *http.Request, v any) error {
	if r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// POST /api/root {label}
func (s *Server) createRoot(w http.ResponseWriter, r *http.Request) {
	var req labelRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess.SetRootLabel(req.Label)
	if !s.sess.CreateRoot() {
		writeRejection(w, http.StatusUnprocessableEntity, s.sess.Message(), s.sess.Err())
		return
	}
	writeJSON(w, http.StatusCreated, s.snapshot())
}

// POST /api/nodes {label, parent_id}. Omitting parent_id reuses the
// previous parent selection.
func (s *Server) createNode(w http.ResponseWriter, r *http.Request) {
	var req labelRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess.SetChildLabel(req.Label)
	if req.ParentID != nil {
		s.sess.SelectParent(*req.ParentID)
	}
	if !s.sess.CreateChild() {
		writeRejection(w, http.StatusUnprocessableEntity, s.sess.Message(), s.sess.Err())
		return
	}
	writeJSON(w, http.StatusCreated, s.snapshot())
}

// POST /api/reset
func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess.Reset()
	writeJSON(w, http.StatusOK, s.snapshot())
}

type selectRequest struct {
	ID string `json:"id"`
}

type infoResponse struct {
	ID   string         `json:"id"`
	Info model.NodeInfo `json:"info"`
}

// POST /api/select {id}
func (s *Server) selectNode(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sess.Select(req.ID) {
		writeRejection(w, http.StatusNotFound, s.sess.Message(), s.sess.Err())
		return
	}
	info, _ := s.sess.Info()
	writeJSON(w, http.StatusOK, infoResponse{ID: req.ID, Info: info})
}

type tapRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// POST /api/tap {x, y} selects the node drawn under a point of the laid
// out diagram. A miss is reported like an unknown id.
func (s *Server) tapNode(w http.ResponseWriter, r *http.Request) {
	var req tapRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := layout.Layout(s.sess.Elements(), s.opts.Layout)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	id, _ := d.NodeAt(req.X, req.Y)
	if !s.sess.Select(id) {
		writeRejection(w, http.StatusNotFound, s.sess.Message(), s.sess.Err())
		return
	}
	info, _ := s.sess.Info()
	writeJSON(w, http.StatusOK, infoResponse{ID: id, Info: info})
}

// GET /api/nodes/{id}/info computes info without changing the selection
func (s *Server) nodeInfo(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	info, err := s.sess.Tree().ComputeNodeInfo(id)
	msg := s.sess.Catalog().Message(err)
	s.mu.Unlock()

	if err != nil {
		writeRejection(w, http.StatusNotFound, msg, err)
		return
	}
	writeJSON(w, http.StatusOK, infoResponse{ID: id, Info: info})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	size := s.sess.TreeSize()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "tree_size": size})
}

// statusRecorder captures the response status for logging and metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, strconv.Itoa(rec.status)).
			Observe(float64(elapsed.Microseconds()) / 1000)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds())
	})
}
