package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/goccy/go-json"

	"github.com/Dicklesworthstone/tree_viewer/pkg/layout"
)

// SSE event names
const (
	EventConnected = "connected"
	EventRebuild   = "rebuild"
	EventClear     = "clear"
)

type sseEvent struct {
	name string
	data []byte
}

// Hub fans editor notifications out to Server-Sent Events clients. It
// implements editor.Renderer so it can be attached to a session directly.
type Hub struct {
	mu      sync.RWMutex
	clients map[chan sseEvent]struct{}
	done    chan struct{}
	once    sync.Once
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[chan sseEvent]struct{}),
		done:    make(chan struct{}),
	}
}

// Rebuild announces a new element list
func (h *Hub) Rebuild(el layout.Elements) {
	h.broadcast(EventRebuild, map[string]int{"nodes": len(el.Nodes), "edges": len(el.Edges)})
}

// Clear announces a reset
func (h *Hub) Clear() {
	h.broadcast(EventClear, map[string]int{"nodes": 0, "edges": 0})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop disconnects every client; later broadcasts are dropped
func (h *Hub) Stop() {
	h.once.Do(func() {
		close(h.done)
		h.mu.Lock()
		defer h.mu.Unlock()
		for ch := range h.clients {
			close(ch)
		}
		h.clients = make(map[chan sseEvent]struct{})
	})
}

func (h *Hub) broadcast(name string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients {
		select {
		case ch <- sseEvent{name: name, data: data}:
		default:
			// Slow client; it refetches the whole tree on the next event anyway
		}
	}
}

func (h *Hub) subscribe() (chan sseEvent, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.done:
		return nil, false
	default:
	}
	ch := make(chan sseEvent, 8)
	h.clients[ch] = struct{}{}
	return ch, true
}

func (h *Hub) unsubscribe(ch chan sseEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
}

// ServeHTTP streams events until the client or the hub goes away
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ch, ok := h.subscribe()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "server shutting down")
		return
	}
	defer h.unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: %s\ndata: {\"status\":\"connected\"}\n\n", EventConnected)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.done:
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.name, ev.data)
			flusher.Flush()
		}
	}
}
