package handlers

import (
	"net/http"

	"media-librarian/internal/fileops"
	"media-librarian/internal/store"
)

// GetPreferences returns the current preferences.
func (h *Handlers) GetPreferences(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.lib.Stores().Preferences.Get())
}

// SetPreferences replaces the preferences document.
func (h *Handlers) SetPreferences(w http.ResponseWriter, r *http.Request) {
	var prefs store.Preferences
	if !decodeBody(w, r, &prefs) {
		return
	}

	policy, err := fileops.ParseConflictPolicy(prefs.ConflictPolicy)
	if err != nil {
		writeTypedError(w, err)
		return
	}
	prefs.ConflictPolicy = string(policy)

	h.lib.Stores().Preferences.Set(prefs)
	writeJSON(w, h.lib.Stores().Preferences.Get())
}
