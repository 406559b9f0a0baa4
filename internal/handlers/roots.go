package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// ListRoots returns every configured root folder.
func (h *Handlers) ListRoots(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.lib.Stores().Roots.List())
}

// AddRoot registers a new root folder and triggers a rescan.
func (h *Handlers) AddRoot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Path string `json:"path"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	root, err := h.lib.AddRoot(r.Context(), req.Name, req.Path)
	if err != nil {
		writeTypedError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, root)
}

// RemoveRoot unregisters a root folder. The folder itself stays on disk.
func (h *Handlers) RemoveRoot(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.lib.RemoveRoot(r.Context(), id); err != nil {
		writeTypedError(w, err)
		return
	}
	writeJSONStatus(w, "removed")
}

// Rescan rebuilds the snapshot on demand.
func (h *Handlers) Rescan(w http.ResponseWriter, r *http.Request) {
	snap, err := h.lib.Rescan(r.Context())
	if err != nil {
		// A rescan superseded by a newer request is not a client error.
		writeJSONStatus(w, "superseded")
		return
	}
	writeJSON(w, map[string]interface{}{
		"status":      "ok",
		"files":       snap.FileCount(),
		"directories": len(snap.Directories),
	})
}
