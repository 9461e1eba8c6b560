package server

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/Dicklesworthstone/tree_viewer/pkg/model"
)

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the standard error envelope. Kind is set for tree
// validation failures.
type errorResponse struct {
	Error string          `json:"error"`
	Kind  model.ErrorKind `json:"kind,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeRejection reports a declined tree operation with its localized message
func writeRejection(w http.ResponseWriter, status int, msg string, err error) {
	writeJSON(w, status, errorResponse{Error: msg, Kind: model.KindOf(err)})
}
