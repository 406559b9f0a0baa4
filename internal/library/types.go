package library

import (
	"crypto/sha1"
	"encoding/hex"
	"path/filepath"
	"time"

	"media-librarian/internal/mediatypes"
)

// Root is a user-chosen top-level folder the library indexes.
// Roots are immutable once created; the id stays stable for the lifetime
// of the root even if its display name changes.
type Root struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// Directory is a single directory inside a root. The id is derived
// deterministically from (rootID, relativePath) so identity survives rescans
// as long as the path does not change.
type Directory struct {
	ID                 string `json:"id"`
	RootID             string `json:"rootId"`
	RelativePath       string `json:"relativePath"`
	DisplayPath        string `json:"displayPath"`
	Name               string `json:"name"`
	ParentID           string `json:"parentId,omitempty"`
	DirectFileCount    int    `json:"directFileCount"`
	RecursiveFileCount int    `json:"recursiveFileCount"`
}

// IsRoot reports whether this directory is the root of its tree.
func (d Directory) IsRoot() bool {
	return d.ParentID == ""
}

// Item is a single media file in the library.
type Item struct {
	ID           string              `json:"id"`
	RootID       string              `json:"rootId"`
	DirectoryID  string              `json:"directoryId"`
	RelativePath string              `json:"relativePath"`
	Name         string              `json:"name"`
	Kind         mediatypes.FileType `json:"kind"`
	AbsolutePath string              `json:"absolutePath"`
	SizeBytes    int64               `json:"sizeBytes,omitempty"`
	ModifiedAt   time.Time           `json:"modifiedAt,omitempty"`
}

// MetadataKey returns the join key into the metadata store: the canonicalized
// absolute path. Metadata follows the file's current location, not its
// content, so a rename or move must migrate the entry explicitly.
func (i Item) MetadataKey() string {
	return MetadataKeyFor(i.AbsolutePath)
}

// MetadataKeyFor canonicalizes an absolute path into a metadata store key.
func MetadataKeyFor(absolutePath string) string {
	return filepath.Clean(absolutePath)
}

// Snapshot is the complete, immutable result of one scan pass across all
// roots. It is fully rebuilt on every scan; there is no incremental update.
//
// Children and file lists are sorted by name, case-insensitive ascending.
// RootDirectoryIDs is sorted by display path.
type Snapshot struct {
	Directories        map[string]Directory `json:"directories"`
	ChildrenByParentID map[string][]string  `json:"childrenByParentId"`
	FilesByDirectoryID map[string][]Item    `json:"filesByDirectoryId"`
	RootDirectoryIDs   []string             `json:"rootDirectoryIds"`
	BuiltAt            time.Time            `json:"builtAt"`
}

// EmptySnapshot returns the designated empty sentinel snapshot.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Directories:        map[string]Directory{},
		ChildrenByParentID: map[string][]string{},
		FilesByDirectoryID: map[string][]Item{},
	}
}

// FileCount returns the total number of media files in the snapshot.
func (s *Snapshot) FileCount() int {
	n := 0
	for _, files := range s.FilesByDirectoryID {
		n += len(files)
	}
	return n
}

// FindItem returns the item with the given id, if present.
func (s *Snapshot) FindItem(id string) (Item, bool) {
	for _, files := range s.FilesByDirectoryID {
		for _, f := range files {
			if f.ID == id {
				return f, true
			}
		}
	}
	return Item{}, false
}

// EntryID derives the stable id for a directory or file from its root and
// relative path.
func EntryID(rootID, relativePath string) string {
	sum := sha1.Sum([]byte(rootID + ":" + relativePath))
	return hex.EncodeToString(sum[:])
}
