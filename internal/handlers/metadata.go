package handlers

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gorilla/mux"

	"media-librarian/internal/library"
)

// resolveItem finds the snapshot item a metadata or file operation targets.
// Returns ok=false after writing the 404.
func (h *Handlers) resolveItem(w http.ResponseWriter, r *http.Request) (library.Item, bool) {
	item, ok := h.lib.Snapshot().FindItem(mux.Vars(r)["id"])
	if !ok {
		writeJSONError(w, "item not found", http.StatusNotFound)
		return library.Item{}, false
	}
	return item, true
}

// respondWithMetadata returns the item's current metadata after a mutation.
func (h *Handlers) respondWithMetadata(w http.ResponseWriter, item library.Item) {
	writeJSON(w, itemView{
		Item:     item,
		Metadata: h.lib.Stores().Metadata.Get(item.MetadataKey()),
	})
}

// SetFavorite sets or clears an item's favorite flag.
func (h *Handlers) SetFavorite(w http.ResponseWriter, r *http.Request) {
	item, ok := h.resolveItem(w, r)
	if !ok {
		return
	}
	var req struct {
		Value bool `json:"value"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	h.lib.Stores().Metadata.SetFavorite(item.MetadataKey(), req.Value)
	h.respondWithMetadata(w, item)
}

// SetHidden sets or clears an item's hidden flag.
func (h *Handlers) SetHidden(w http.ResponseWriter, r *http.Request) {
	item, ok := h.resolveItem(w, r)
	if !ok {
		return
	}
	var req struct {
		Value bool `json:"value"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	h.lib.Stores().Metadata.SetHidden(item.MetadataKey(), req.Value)
	h.respondWithMetadata(w, item)
}

// AddTag adds one tag to an item.
func (h *Handlers) AddTag(w http.ResponseWriter, r *http.Request) {
	item, ok := h.resolveItem(w, r)
	if !ok {
		return
	}
	var req struct {
		Tag string `json:"tag"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Tag == "" {
		writeJSONError(w, "tag must not be empty", http.StatusBadRequest)
		return
	}
	h.lib.Stores().Metadata.AddTag(item.MetadataKey(), req.Tag)
	h.respondWithMetadata(w, item)
}

// RemoveTag removes one tag from an item.
func (h *Handlers) RemoveTag(w http.ResponseWriter, r *http.Request) {
	item, ok := h.resolveItem(w, r)
	if !ok {
		return
	}
	tag := mux.Vars(r)["tag"]
	h.lib.Stores().Metadata.RemoveTag(item.MetadataKey(), tag)
	h.respondWithMetadata(w, item)
}

// SetTags replaces an item's tag list.
func (h *Handlers) SetTags(w http.ResponseWriter, r *http.Request) {
	item, ok := h.resolveItem(w, r)
	if !ok {
		return
	}
	var req struct {
		Tags []string `json:"tags"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	h.lib.Stores().Metadata.SetTags(item.MetadataKey(), req.Tags)
	h.respondWithMetadata(w, item)
}

// GetFavorites lists every item in the snapshot flagged as favorite.
func (h *Handlers) GetFavorites(w http.ResponseWriter, _ *http.Request) {
	snap := h.lib.Snapshot()
	meta := h.lib.Stores().Metadata

	favorites := []itemView{}
	for _, files := range snap.FilesByDirectoryID {
		for _, item := range files {
			if m := meta.Get(item.MetadataKey()); m.IsFavorite {
				favorites = append(favorites, itemView{Item: item, Metadata: m})
			}
		}
	}

	// Map iteration order varies between calls; sort by location so the
	// listing is stable.
	sort.SliceStable(favorites, func(i, j int) bool {
		a := strings.ToLower(snap.Directories[favorites[i].DirectoryID].DisplayPath)
		b := strings.ToLower(snap.Directories[favorites[j].DirectoryID].DisplayPath)
		if a != b {
			return a < b
		}
		return strings.ToLower(favorites[i].Name) < strings.ToLower(favorites[j].Name)
	})
	writeJSON(w, favorites)
}
