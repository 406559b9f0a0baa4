package store

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"media-librarian/internal/library"
)

// RootStore persists the user's chosen library roots. This is the simple
// stand-in for the platform root-resolver collaborator: it hands out
// (id, displayName, absolutePath) tuples and persists them as flat JSON.
type RootStore struct {
	mu    sync.RWMutex
	roots []library.Root
	saver *saver
}

// NewRootStore loads the roots document at path.
func NewRootStore(path string, saveDelay time.Duration) (*RootStore, error) {
	s := &RootStore{}
	if _, err := readJSONFile(path, &s.roots); err != nil {
		return nil, err
	}

	s.saver = newSaver("roots", saveDelay, func() error {
		return writeJSONFile(path, s.List())
	})

	return s, nil
}

// List returns the configured roots in insertion order.
func (s *RootStore) List() []library.Root {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]library.Root, len(s.roots))
	copy(out, s.roots)
	return out
}

// Find returns the root with the given id.
func (s *RootStore) Find(id string) (library.Root, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.roots {
		if r.ID == id {
			return r, true
		}
	}
	return library.Root{}, false
}

// Add registers a new root for an absolute path. One root per distinct
// filesystem location; adding the same path again returns the existing root.
func (s *RootStore) Add(name, absolutePath string) (library.Root, error) {
	absolutePath = filepath.Clean(absolutePath)
	if !filepath.IsAbs(absolutePath) {
		return library.Root{}, fmt.Errorf("root path must be absolute: %s", absolutePath)
	}
	if name == "" {
		name = filepath.Base(absolutePath)
	}

	s.mu.Lock()
	for _, r := range s.roots {
		if r.Path == absolutePath {
			s.mu.Unlock()
			return r, nil
		}
	}
	root := library.Root{ID: uuid.NewString(), Name: name, Path: absolutePath}
	s.roots = append(s.roots, root)
	s.mu.Unlock()

	s.saver.Schedule()
	return root, nil
}

// Remove deletes a root by id. The library tolerates roots disappearing
// between snapshots; the caller triggers a rescan afterwards.
func (s *RootStore) Remove(id string) bool {
	s.mu.Lock()
	kept := s.roots[:0]
	removed := false
	for _, r := range s.roots {
		if r.ID == id {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	s.roots = kept
	s.mu.Unlock()

	if removed {
		s.saver.Schedule()
	}
	return removed
}

// Flush forces any pending write to disk immediately.
func (s *RootStore) Flush() error {
	return s.saver.Flush()
}
