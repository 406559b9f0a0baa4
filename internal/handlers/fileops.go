package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"

	"media-librarian/internal/fileops"
	"media-librarian/internal/library"
)

// policyFromRequest resolves the conflict policy for an operation: an
// explicit request value wins, otherwise the preference applies.
func (h *Handlers) policyFromRequest(requested string) (fileops.ConflictPolicy, error) {
	if requested == "" {
		requested = h.lib.Stores().Preferences.Get().ConflictPolicy
	}
	return fileops.ParseConflictPolicy(requested)
}

// rescanAfterMutation refreshes the snapshot so later reads reflect the new
// on-disk state. A superseded rescan is fine; a newer one is coming.
func (h *Handlers) rescanAfterMutation(r *http.Request) {
	_, _ = h.lib.Rescan(r.Context())
}

// RenameItem renames a file in place.
func (h *Handlers) RenameItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.resolveItem(w, r)
	if !ok {
		return
	}
	var req struct {
		NewName string `json:"newName"`
		Policy  string `json:"policy"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	policy, err := h.policyFromRequest(req.Policy)
	if err != nil {
		writeTypedError(w, err)
		return
	}

	final, err := h.lib.Ops().Rename(item.AbsolutePath, req.NewName, policy)
	if err != nil {
		writeTypedError(w, err)
		return
	}

	h.rescanAfterMutation(r)
	writeJSON(w, map[string]string{"path": final})
}

// MoveItem moves a file into another directory in the snapshot.
func (h *Handlers) MoveItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.resolveItem(w, r)
	if !ok {
		return
	}
	var req struct {
		DirectoryID string `json:"directoryId"`
		Policy      string `json:"policy"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	policy, err := h.policyFromRequest(req.Policy)
	if err != nil {
		writeTypedError(w, err)
		return
	}

	dest, ok := h.directoryPath(req.DirectoryID)
	if !ok {
		writeJSONError(w, "destination directory not found", http.StatusNotFound)
		return
	}

	final, err := h.lib.Ops().Move(item.AbsolutePath, dest, policy)
	if err != nil {
		writeTypedError(w, err)
		return
	}

	h.rescanAfterMutation(r)
	writeJSON(w, map[string]string{"path": final})
}

// DeleteItem moves a file to the trash folder.
func (h *Handlers) DeleteItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.resolveItem(w, r)
	if !ok {
		return
	}
	if err := h.lib.Ops().Delete(item.AbsolutePath); err != nil {
		writeTypedError(w, err)
		return
	}
	h.rescanAfterMutation(r)
	writeJSONStatus(w, "deleted")
}

// ReorderItem swaps a file with its neighbor in display order and rewrites
// the sibling filenames with ordering prefixes.
func (h *Handlers) ReorderItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.resolveItem(w, r)
	if !ok {
		return
	}
	var req struct {
		Direction string `json:"direction"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	direction := fileops.Direction(req.Direction)
	if direction != fileops.DirectionPrevious && direction != fileops.DirectionNext {
		writeJSONError(w, "direction must be previous or next", http.StatusBadRequest)
		return
	}

	// Hidden files are invisible in the browse view, so reordering moves
	// past them instead of swapping with them.
	snap := h.lib.Snapshot()
	meta := h.lib.Stores().Metadata
	var siblings []string
	for _, sibling := range snap.FilesByDirectoryID[item.DirectoryID] {
		if sibling.AbsolutePath != item.AbsolutePath && meta.Get(sibling.MetadataKey()).IsHidden {
			continue
		}
		siblings = append(siblings, sibling.AbsolutePath)
	}

	final, err := h.lib.Ops().Reorder(item.AbsolutePath, siblings, direction)
	if err != nil {
		writeTypedError(w, err)
		return
	}

	h.rescanAfterMutation(r)
	writeJSON(w, map[string]string{"path": final})
}

// RenameDirectory renames a directory.
func (h *Handlers) RenameDirectory(w http.ResponseWriter, r *http.Request) {
	dir, ok := h.resolveDirectory(w, r)
	if !ok {
		return
	}
	var req struct {
		NewName string `json:"newName"`
		Policy  string `json:"policy"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	policy, err := h.policyFromRequest(req.Policy)
	if err != nil {
		writeTypedError(w, err)
		return
	}

	path, ok := h.directoryPath(dir.ID)
	if !ok {
		writeJSONError(w, "directory not found", http.StatusNotFound)
		return
	}

	final, err := h.lib.Ops().RenameDirectory(path, req.NewName, policy)
	if err != nil {
		writeTypedError(w, err)
		return
	}

	h.rescanAfterMutation(r)
	writeJSON(w, map[string]string{"path": final})
}

// DeleteDirectory moves a directory and its contents to the trash folder.
func (h *Handlers) DeleteDirectory(w http.ResponseWriter, r *http.Request) {
	dir, ok := h.resolveDirectory(w, r)
	if !ok {
		return
	}
	if dir.IsRoot() {
		writeJSONError(w, "cannot delete a root folder; remove the root instead", http.StatusBadRequest)
		return
	}

	path, ok := h.directoryPath(dir.ID)
	if !ok {
		writeJSONError(w, "directory not found", http.StatusNotFound)
		return
	}
	if err := h.lib.Ops().DeleteDirectory(path); err != nil {
		writeTypedError(w, err)
		return
	}

	h.rescanAfterMutation(r)
	writeJSONStatus(w, "deleted")
}

func (h *Handlers) resolveDirectory(w http.ResponseWriter, r *http.Request) (library.Directory, bool) {
	dir, ok := h.lib.Snapshot().Directories[mux.Vars(r)["id"]]
	if !ok {
		writeJSONError(w, "directory not found", http.StatusNotFound)
		return library.Directory{}, false
	}
	return dir, true
}

// directoryPath resolves a snapshot directory to its absolute path.
func (h *Handlers) directoryPath(id string) (string, bool) {
	dir, ok := h.lib.Snapshot().Directories[id]
	if !ok {
		return "", false
	}
	root, ok := h.lib.Stores().Roots.Find(dir.RootID)
	if !ok {
		return "", false
	}
	if dir.RelativePath == "" || dir.RelativePath == "." {
		return root.Path, true
	}
	return filepath.Join(root.Path, filepath.FromSlash(dir.RelativePath)), true
}
