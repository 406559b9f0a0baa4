package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"media-librarian/internal/library"
	"media-librarian/internal/store"
)

// itemView is an Item joined with its persisted metadata.
type itemView struct {
	library.Item
	Metadata store.MediaMetadata `json:"metadata"`
}

// directoryListing is the browse payload for one directory.
type directoryListing struct {
	Directory      library.Directory   `json:"directory"`
	Subdirectories []library.Directory `json:"subdirectories"`
	Files          []itemView          `json:"files"`
}

// GetLibrary returns the snapshot's directory tree without file listings.
func (h *Handlers) GetLibrary(w http.ResponseWriter, _ *http.Request) {
	snap := h.lib.Snapshot()
	writeJSON(w, map[string]interface{}{
		"rootDirectoryIds":   snap.RootDirectoryIDs,
		"directories":        snap.Directories,
		"childrenByParentId": snap.ChildrenByParentID,
		"builtAt":            snap.BuiltAt,
		"totalFiles":         snap.FileCount(),
	})
}

// GetDirectory returns one directory's subdirectories and files, with
// metadata attached. Hidden files are omitted unless includeHidden=true.
func (h *Handlers) GetDirectory(w http.ResponseWriter, r *http.Request) {
	snap := h.lib.Snapshot()
	id := mux.Vars(r)["id"]

	dir, ok := snap.Directories[id]
	if !ok {
		writeJSONError(w, "directory not found", http.StatusNotFound)
		return
	}

	includeHidden := r.URL.Query().Get("includeHidden") == "true"
	meta := h.lib.Stores().Metadata

	listing := directoryListing{Directory: dir}
	for _, childID := range snap.ChildrenByParentID[id] {
		if child, ok := snap.Directories[childID]; ok {
			listing.Subdirectories = append(listing.Subdirectories, child)
		}
	}
	for _, item := range snap.FilesByDirectoryID[id] {
		m := meta.Get(item.MetadataKey())
		if m.IsHidden && !includeHidden {
			continue
		}
		listing.Files = append(listing.Files, itemView{Item: item, Metadata: m})
	}

	writeJSON(w, listing)
}

// GetItem returns a single file with its metadata.
func (h *Handlers) GetItem(w http.ResponseWriter, r *http.Request) {
	snap := h.lib.Snapshot()
	item, ok := snap.FindItem(mux.Vars(r)["id"])
	if !ok {
		writeJSONError(w, "item not found", http.StatusNotFound)
		return
	}
	writeJSON(w, itemView{
		Item:     item,
		Metadata: h.lib.Stores().Metadata.Get(item.MetadataKey()),
	})
}
