package handlers

import (
	"net/http"
	"strconv"
)

// GetThumbnail serves a cached JPEG thumbnail for an image item.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	if !h.thumbGen.IsEnabled() {
		writeJSONError(w, "thumbnails disabled", http.StatusNotFound)
		return
	}

	item, ok := h.resolveItem(w, r)
	if !ok {
		return
	}

	data, err := h.thumbGen.Get(item.AbsolutePath, item.Kind)
	if err != nil {
		writeJSONError(w, "thumbnail unavailable", http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := w.Write(data); err != nil {
		return
	}
}
