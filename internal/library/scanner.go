package library

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"media-librarian/internal/logging"
	"media-librarian/internal/mediatypes"
	"media-librarian/internal/metrics"
)

// Scanner builds library snapshots from the current filesystem state.
// It holds no cache; every call to BuildSnapshot is a full walk.
type Scanner struct{}

// NewScanner creates a new Scanner instance.
func NewScanner() *Scanner {
	return &Scanner{}
}

// BuildSnapshot walks every root and returns a consistent snapshot of all
// directories and media files found. Per-entry enumeration errors (permission
// denied, broken symlinks) are swallowed and traversal continues; an entirely
// inaccessible root yields an empty subtree, never a failure.
//
// The only error BuildSnapshot returns is ctx.Err() when the walk is
// canceled. Cancellation is checked after each directory so a canceled scan
// stops promptly without producing a partially-applied snapshot.
func (s *Scanner) BuildSnapshot(ctx context.Context, roots []Root) (*Snapshot, error) {
	start := time.Now()

	snap := EmptySnapshot()
	snap.BuiltAt = start

	for _, root := range roots {
		if err := s.scanRoot(ctx, root, snap); err != nil {
			return nil, err
		}
	}

	finalize(snap)

	metrics.ScanDuration.Observe(time.Since(start).Seconds())
	metrics.ScanFilesIndexed.Set(float64(snap.FileCount()))
	metrics.ScanDirectoriesIndexed.Set(float64(len(snap.Directories)))

	logging.Debug("scan complete: %d directories, %d files in %s",
		len(snap.Directories), snap.FileCount(), time.Since(start))

	return snap, nil
}

// scanRoot enumerates one root's subtree into the snapshot.
func (s *Scanner) scanRoot(ctx context.Context, root Root, snap *Snapshot) error {
	rootDir := Directory{
		ID:           EntryID(root.ID, ""),
		RootID:       root.ID,
		RelativePath: "",
		DisplayPath:  root.Name,
		Name:         root.Name,
	}

	// First-seen wins on id collisions; ids embed the root id so a collision
	// is a programming error, not a runtime policy.
	if _, exists := snap.Directories[rootDir.ID]; exists {
		logging.Warn("duplicate root directory id %s for root %s", rootDir.ID, root.Path)
		return nil
	}

	snap.Directories[rootDir.ID] = rootDir
	snap.RootDirectoryIDs = append(snap.RootDirectoryIDs, rootDir.ID)

	if err := s.scanDirectory(ctx, root, "", rootDir.ID, snap); err != nil {
		return err
	}

	// recursiveFileCount bottom-up: children are finalized before parents by
	// processing deepest paths first.
	dirs := make([]Directory, 0, len(snap.Directories))
	for _, d := range snap.Directories {
		if d.RootID == root.ID {
			dirs = append(dirs, d)
		}
	}
	sort.Slice(dirs, func(i, j int) bool {
		return pathDepth(dirs[i].RelativePath) > pathDepth(dirs[j].RelativePath)
	})
	for _, d := range dirs {
		// Re-read the live entry: children processed earlier have already
		// accumulated their sums into it.
		live := snap.Directories[d.ID]
		live.RecursiveFileCount += live.DirectFileCount
		snap.Directories[live.ID] = live
		if live.ParentID != "" {
			parent := snap.Directories[live.ParentID]
			parent.RecursiveFileCount += live.RecursiveFileCount
			snap.Directories[live.ParentID] = parent
		}
	}

	return nil
}

// scanDirectory enumerates one directory, materializing child directory
// records and classifying files. Unrecognized extensions are ignored
// entirely: they contribute to neither counts nor the snapshot.
func (s *Scanner) scanDirectory(ctx context.Context, root Root, relPath, dirID string, snap *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath := filepath.Join(root.Path, relPath)
	entries, err := os.ReadDir(fullPath)
	if err != nil {
		// A bad directory never aborts the whole scan.
		logging.Debug("skipping unreadable directory %s: %v", fullPath, err)
		metrics.ScanEntriesSkipped.Inc()
		return nil
	}

	directFiles := 0

	for _, entry := range entries {
		name := entry.Name()

		// Hidden entries and package-like bundles are approximated as
		// dot-prefixed entries on non-bundle-aware targets.
		if strings.HasPrefix(name, ".") {
			continue
		}

		childRel := name
		if relPath != "" {
			childRel = filepath.Join(relPath, name)
		}

		if entry.IsDir() {
			child := Directory{
				ID:           EntryID(root.ID, childRel),
				RootID:       root.ID,
				RelativePath: childRel,
				DisplayPath:  root.Name + "/" + filepath.ToSlash(childRel),
				Name:         name,
				ParentID:     dirID,
			}
			if _, exists := snap.Directories[child.ID]; !exists {
				snap.Directories[child.ID] = child
				snap.ChildrenByParentID[dirID] = append(snap.ChildrenByParentID[dirID], child.ID)
			}
			if err := s.scanDirectory(ctx, root, childRel, child.ID, snap); err != nil {
				return err
			}
			continue
		}

		kind := mediatypes.FileTypeOf(name)
		if kind == mediatypes.FileTypeOther {
			continue
		}

		item := Item{
			ID:           EntryID(root.ID, childRel),
			RootID:       root.ID,
			DirectoryID:  dirID,
			RelativePath: childRel,
			Name:         name,
			Kind:         kind,
			AbsolutePath: filepath.Join(root.Path, childRel),
		}
		if info, err := entry.Info(); err == nil {
			item.SizeBytes = info.Size()
			item.ModifiedAt = info.ModTime()
		} else {
			metrics.ScanEntriesSkipped.Inc()
		}

		snap.FilesByDirectoryID[dirID] = append(snap.FilesByDirectoryID[dirID], item)
		directFiles++
	}

	dir := snap.Directories[dirID]
	dir.DirectFileCount = directFiles
	snap.Directories[dirID] = dir

	return nil
}

// finalize sorts children and file lists for deterministic iteration.
func finalize(snap *Snapshot) {
	for parentID, children := range snap.ChildrenByParentID {
		sort.SliceStable(children, func(i, j int) bool {
			a := snap.Directories[children[i]].Name
			b := snap.Directories[children[j]].Name
			return strings.ToLower(a) < strings.ToLower(b)
		})
		snap.ChildrenByParentID[parentID] = children
	}

	for dirID, files := range snap.FilesByDirectoryID {
		sort.SliceStable(files, func(i, j int) bool {
			return strings.ToLower(files[i].Name) < strings.ToLower(files[j].Name)
		})
		snap.FilesByDirectoryID[dirID] = files
	}

	sort.SliceStable(snap.RootDirectoryIDs, func(i, j int) bool {
		a := snap.Directories[snap.RootDirectoryIDs[i]].DisplayPath
		b := snap.Directories[snap.RootDirectoryIDs[j]].DisplayPath
		return strings.ToLower(a) < strings.ToLower(b)
	})
}

func pathDepth(relPath string) int {
	if relPath == "" {
		return 0
	}
	return strings.Count(filepath.ToSlash(relPath), "/") + 1
}
