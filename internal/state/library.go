package state

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"media-librarian/internal/fileops"
	"media-librarian/internal/library"
	"media-librarian/internal/logging"
	"media-librarian/internal/metrics"
	"media-librarian/internal/online"
	"media-librarian/internal/store"
)

// Stores bundles the persistent stores the library coordinates.
type Stores struct {
	Roots       *store.RootStore
	Metadata    *store.MetadataStore
	Preferences *store.PreferencesStore
	Profiles    *store.ProfileStore
}

// Library owns the current snapshot and coordinates the scanner, file
// operations, and the online ingestion pipeline. All mutable state is
// guarded internally; callers never see a half-updated snapshot.
type Library struct {
	scanner  *library.Scanner
	stores   Stores
	ops      *fileops.Ops
	fetcher  *online.Fetcher
	importer *online.Importer

	mu       sync.RWMutex
	snapshot *library.Snapshot

	// scanMu serializes scan bookkeeping; the scan itself runs unlocked.
	scanMu     sync.Mutex
	scanGen    uint64
	scanCancel context.CancelFunc
}

// New creates a Library. The snapshot starts empty until the first scan.
func New(stores Stores, ops *fileops.Ops, fetcher *online.Fetcher, importer *online.Importer) *Library {
	return &Library{
		scanner:  library.NewScanner(),
		stores:   stores,
		ops:      ops,
		fetcher:  fetcher,
		importer: importer,
		snapshot: library.EmptySnapshot(),
	}
}

// Snapshot returns the current snapshot. Snapshots are immutable once
// installed, so the caller may read it freely.
func (l *Library) Snapshot() *library.Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot
}

// Stores exposes the coordinated stores for the HTTP layer.
func (l *Library) Stores() Stores {
	return l.stores
}

// Ops exposes the file operation surface for the HTTP layer.
func (l *Library) Ops() *fileops.Ops {
	return l.ops
}

// Rescan builds a fresh snapshot of every root and installs it. A rescan
// requested while another is running cancels the older one; only the most
// recently requested scan may install its result, so stale results from a
// superseded scan are discarded even if it finishes last.
func (l *Library) Rescan(ctx context.Context) (*library.Snapshot, error) {
	l.scanMu.Lock()
	if l.scanCancel != nil {
		l.scanCancel()
	}
	scanCtx, cancel := context.WithCancel(ctx)
	l.scanCancel = cancel
	l.scanGen++
	gen := l.scanGen
	l.scanMu.Unlock()

	defer cancel()

	snap, err := l.scanner.BuildSnapshot(scanCtx, l.stores.Roots.List())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			metrics.ScansTotal.WithLabelValues("superseded").Inc()
			return nil, err
		}
		metrics.ScansTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	l.scanMu.Lock()
	current := gen == l.scanGen
	l.scanMu.Unlock()
	if !current {
		metrics.ScansTotal.WithLabelValues("superseded").Inc()
		logging.Debug("discarding superseded scan result (gen %d)", gen)
		return nil, context.Canceled
	}

	l.mu.Lock()
	l.snapshot = snap
	l.mu.Unlock()

	metrics.ScansTotal.WithLabelValues("success").Inc()
	logging.Info("library snapshot installed: %d directories, %d files",
		len(snap.Directories), snap.FileCount())
	return snap, nil
}

// AddRoot registers a new root folder and rescans.
func (l *Library) AddRoot(ctx context.Context, name, absolutePath string) (library.Root, error) {
	root, err := l.stores.Roots.Add(name, absolutePath)
	if err != nil {
		return library.Root{}, err
	}
	if _, err := l.Rescan(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return root, err
	}
	return root, nil
}

// RemoveRoot unregisters a root and rescans. The folder itself is left on
// disk untouched.
func (l *Library) RemoveRoot(ctx context.Context, id string) error {
	if !l.stores.Roots.Remove(id) {
		return fmt.Errorf("%w: root %q", fileops.ErrNotFound, id)
	}
	if _, err := l.Rescan(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// ImportRequest is one online ingestion run.
type ImportRequest struct {
	SourceURL string
	RootID    string
	Mode      store.ImportMode
	LoadMode  online.LoadMode
	Refresh   bool
}

// ImportOutcome is what an ingestion run produced.
type ImportOutcome struct {
	Profile store.ProfileRecord `json:"profile"`
	Fetch   online.FetchResult  `json:"fetch"`
	Import  online.ImportResult `json:"import"`
}

// ImportProfile runs the whole pipeline: parse the source URL, fetch its
// posts, import the media under the chosen root, record the profile, and
// rescan. In profile mode a fresh (non-refresh) import of an already known
// profile deletes its previous on-disk folder first.
func (l *Library) ImportProfile(ctx context.Context, req ImportRequest) (ImportOutcome, error) {
	var out ImportOutcome

	desc, err := online.Parse(req.SourceURL)
	if err != nil {
		return out, err
	}

	root, ok := l.stores.Roots.Find(req.RootID)
	if !ok {
		return out, fmt.Errorf("%w: root %q", fileops.ErrNotFound, req.RootID)
	}

	mode := req.Mode
	if mode == "" {
		mode = store.ImportModeProfile
	}
	loadMode := req.LoadMode
	if loadMode == "" {
		loadMode = online.LoadModeAsNeeded
	}

	if mode == store.ImportModeProfile && !req.Refresh {
		if prior, ok := l.stores.Profiles.Get(desc.ProfileKey()); ok {
			l.deletePriorImport(root, prior)
		}
	}

	out.Fetch = l.fetcher.Fetch(ctx, desc, loadMode)
	if len(out.Fetch.Posts) == 0 && out.Fetch.ErrorCode != "" {
		return out, fmt.Errorf("fetch failed: %s", out.Fetch.ErrorCode)
	}

	policy, err := fileops.ParseConflictPolicy(l.stores.Preferences.Get().ConflictPolicy)
	if err != nil {
		policy = fileops.PolicyKeepBoth
	}
	out.Import, err = l.importer.Import(ctx, desc, out.Fetch.Posts, mode, root.Path, policy)
	if err != nil {
		return out, err
	}

	record := store.ProfileRecord{
		Service:          string(desc.Service),
		UserID:           desc.UserID,
		Origin:           desc.Origin,
		SourceURL:        desc.SourceURL,
		ProfileKey:       desc.ProfileKey(),
		ImportMode:       mode,
		RootID:           root.ID,
		BaseRelativePath: out.Import.BaseRelativePath,
		PostCount:        out.Import.ImportedPosts,
		FileCount:        out.Import.ImportedFiles,
		FetchedAt:        time.Now().UTC(),
	}
	if req.Refresh {
		l.stores.Profiles.AddCounts(record)
	} else {
		l.stores.Profiles.Replace(record)
	}
	if rec, ok := l.stores.Profiles.Get(desc.ProfileKey()); ok {
		record = rec
	}
	out.Profile = record

	if _, err := l.Rescan(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Warn("post-import rescan failed: %v", err)
	}
	return out, nil
}

// DeleteProfile removes a profile record and its imported subtree, then
// rescans.
func (l *Library) DeleteProfile(ctx context.Context, profileKey string) error {
	record, ok := l.stores.Profiles.Delete(profileKey)
	if !ok {
		return fmt.Errorf("%w: profile %q", fileops.ErrNotFound, profileKey)
	}

	if root, ok := l.stores.Roots.Find(record.RootID); ok {
		l.deletePriorImport(root, record)
	}

	if _, err := l.Rescan(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// deletePriorImport trashes the on-disk folder a profile record points at.
// A missing folder is not an error; the user may have cleaned it up.
func (l *Library) deletePriorImport(root library.Root, record store.ProfileRecord) {
	if record.BaseRelativePath == "" {
		return
	}
	target := filepath.Join(root.Path, filepath.FromSlash(record.BaseRelativePath))
	if err := l.ops.DeleteDirectory(target); err != nil && !errors.Is(err, fileops.ErrNotFound) {
		logging.Warn("deleting prior import %s: %v", target, err)
	}
}
