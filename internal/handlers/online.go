package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"media-librarian/internal/online"
	"media-librarian/internal/state"
	"media-librarian/internal/store"
)

// ParseSource validates a source URL without fetching anything, so the
// caller can preview the detected service and user.
func (h *Handlers) ParseSource(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourceURL string `json:"sourceUrl"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	desc, err := online.Parse(req.SourceURL)
	if err != nil {
		writeTypedError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"descriptor": desc,
		"profileKey": desc.ProfileKey(),
	})
}

// StartImport launches an online import as a background task and returns
// the task handle for polling.
func (h *Handlers) StartImport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourceURL string `json:"sourceUrl"`
		RootID    string `json:"rootId"`
		Mode      string `json:"mode"`
		LoadMode  string `json:"loadMode"`
		Refresh   bool   `json:"refresh"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	// Validate eagerly so an unusable request fails now, not in the task.
	if _, err := online.Parse(req.SourceURL); err != nil {
		writeTypedError(w, err)
		return
	}
	if _, ok := h.lib.Stores().Roots.Find(req.RootID); !ok {
		writeJSONError(w, "root not found", http.StatusNotFound)
		return
	}

	importReq := state.ImportRequest{
		SourceURL: req.SourceURL,
		RootID:    req.RootID,
		Mode:      store.ImportMode(req.Mode),
		LoadMode:  online.LoadMode(req.LoadMode),
		Refresh:   req.Refresh,
	}

	task := h.tasks.Run("online-import", func(ctx context.Context) (interface{}, error) {
		outcome, err := h.lib.ImportProfile(ctx, importReq)
		if err != nil {
			return nil, err
		}
		return outcome, nil
	})

	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, task)
}

// ListProfiles returns every imported profile record, newest first.
func (h *Handlers) ListProfiles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.lib.Stores().Profiles.List())
}

// DeleteProfile removes a profile record and its imported folder subtree.
func (h *Handlers) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if err := h.lib.DeleteProfile(r.Context(), key); err != nil {
		writeTypedError(w, err)
		return
	}
	writeJSONStatus(w, "deleted")
}

// ListTasks returns recent background tasks.
func (h *Handlers) ListTasks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.tasks.List())
}

// GetTask returns one background task by id.
func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.tasks.Get(mux.Vars(r)["id"])
	if !ok {
		writeJSONError(w, "task not found", http.StatusNotFound)
		return
	}
	writeJSON(w, task)
}
