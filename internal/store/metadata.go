package store

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// MediaMetadata is the per-file annotation record. The zero value is the
// default for every file; empty records are never persisted.
type MediaMetadata struct {
	Tags       []string  `json:"tags,omitempty"`
	IsFavorite bool      `json:"isFavorite,omitempty"`
	IsHidden   bool      `json:"isHidden,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// IsEmpty reports whether the record carries no annotations. Empty records
// are pruned from the persisted map so the store stays proportional to
// actually-annotated files.
func (m MediaMetadata) IsEmpty() bool {
	return len(m.Tags) == 0 && !m.IsFavorite && !m.IsHidden
}

// MetadataStore persists per-file metadata keyed by canonicalized absolute
// path. Writes are debounced; in-memory state is always authoritative.
type MetadataStore struct {
	mu      sync.RWMutex
	entries map[string]MediaMetadata
	saver   *saver
}

// NewMetadataStore loads the metadata document at path, creating an empty
// store if the file does not exist yet.
func NewMetadataStore(path string, saveDelay time.Duration) (*MetadataStore, error) {
	s := &MetadataStore{
		entries: map[string]MediaMetadata{},
	}

	if _, err := readJSONFile(path, &s.entries); err != nil {
		return nil, err
	}

	s.saver = newSaver("metadata", saveDelay, func() error {
		s.mu.RLock()
		snapshot := make(map[string]MediaMetadata, len(s.entries))
		for k, v := range s.entries {
			snapshot[k] = v
		}
		s.mu.RUnlock()
		return writeJSONFile(path, snapshot)
	})

	return s, nil
}

// canonicalKey normalizes an absolute path into the store's join key.
func canonicalKey(path string) string {
	return filepath.Clean(path)
}

// Get returns the metadata for a path; absent entries read as the empty
// record.
func (s *MetadataStore) Get(path string) MediaMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[canonicalKey(path)]
}

// SetFavorite sets or clears the favorite flag.
func (s *MetadataStore) SetFavorite(path string, favorite bool) {
	s.update(path, func(m *MediaMetadata) {
		m.IsFavorite = favorite
	})
}

// SetHidden sets or clears the hidden flag.
func (s *MetadataStore) SetHidden(path string, hidden bool) {
	s.update(path, func(m *MediaMetadata) {
		m.IsHidden = hidden
	})
}

// AddTag adds a tag. Tags are deduplicated case-insensitively and kept in
// case-insensitive sorted order.
func (s *MetadataStore) AddTag(path, tag string) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return
	}
	s.update(path, func(m *MediaMetadata) {
		m.Tags = normalizeTags(append(m.Tags, tag))
	})
}

// RemoveTag removes a tag, matching case-insensitively.
func (s *MetadataStore) RemoveTag(path, tag string) {
	s.update(path, func(m *MediaMetadata) {
		kept := m.Tags[:0]
		for _, t := range m.Tags {
			if !strings.EqualFold(t, tag) {
				kept = append(kept, t)
			}
		}
		m.Tags = kept
	})
}

// SetTags replaces the whole tag list.
func (s *MetadataStore) SetTags(path string, tags []string) {
	s.update(path, func(m *MediaMetadata) {
		m.Tags = normalizeTags(tags)
	})
}

// MovePath migrates an entry from one absolute path to another, keeping
// annotations attached to the file as it is renamed or moved. Implements
// fileops.MetadataMover.
func (s *MetadataStore) MovePath(oldPath, newPath string) {
	oldKey := canonicalKey(oldPath)
	newKey := canonicalKey(newPath)
	if oldKey == newKey {
		return
	}

	s.mu.Lock()
	if m, ok := s.entries[oldKey]; ok {
		delete(s.entries, oldKey)
		s.entries[newKey] = m
		s.mu.Unlock()
		s.saver.Schedule()
		return
	}
	s.mu.Unlock()
}

// Count returns the number of annotated files.
func (s *MetadataStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// All returns a copy of every annotated entry.
func (s *MetadataStore) All() map[string]MediaMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]MediaMetadata, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// Flush forces any pending write to disk immediately.
func (s *MetadataStore) Flush() error {
	return s.saver.Flush()
}

// update applies a mutation, prunes the entry if it returned to the empty
// state, and schedules a debounced save.
func (s *MetadataStore) update(path string, fn func(*MediaMetadata)) {
	key := canonicalKey(path)

	s.mu.Lock()
	m := s.entries[key]
	fn(&m)
	if m.IsEmpty() {
		delete(s.entries, key)
	} else {
		m.UpdatedAt = time.Now()
		s.entries[key] = m
	}
	s.mu.Unlock()

	s.saver.Schedule()
}

// normalizeTags trims, dedupes case-insensitively (first spelling wins), and
// sorts case-insensitively.
func normalizeTags(tags []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		lower := strings.ToLower(t)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	if len(out) == 0 {
		return nil
	}
	return out
}
