package store

import (
	"sort"
	"sync"
	"time"
)

// ImportMode distinguishes whole-profile imports from per-post imports.
type ImportMode string

const (
	// ImportModeProfile imports a whole profile into one folder tree;
	// re-importing the same profile replaces the prior import.
	ImportModeProfile ImportMode = "profile"
	// ImportModePosts imports posts into a separate posts tree.
	ImportModePosts ImportMode = "posts"
)

// ProfileRecord is one persisted online-profile import. There is at most one
// record per distinct profile key.
type ProfileRecord struct {
	Service          string     `json:"service"`
	UserID           string     `json:"userId"`
	Origin           string     `json:"origin"`
	SourceURL        string     `json:"sourceUrl"`
	ProfileKey       string     `json:"profileKey"`
	ImportMode       ImportMode `json:"importMode"`
	RootID           string     `json:"rootId"`
	BaseRelativePath string     `json:"baseRelativePath"`
	PostCount        int        `json:"postCount"`
	FileCount        int        `json:"fileCount"`
	FetchedAt        time.Time  `json:"fetchedAt"`
}

// ProfileStore persists online profile records as a flat JSON array.
type ProfileStore struct {
	mu      sync.RWMutex
	records map[string]ProfileRecord
	saver   *saver
}

// NewProfileStore loads the profile records document at path.
func NewProfileStore(path string, saveDelay time.Duration) (*ProfileStore, error) {
	var list []ProfileRecord
	if _, err := readJSONFile(path, &list); err != nil {
		return nil, err
	}

	s := &ProfileStore{
		records: make(map[string]ProfileRecord, len(list)),
	}
	for _, r := range list {
		s.records[r.ProfileKey] = r
	}

	s.saver = newSaver("profiles", saveDelay, func() error {
		return writeJSONFile(path, s.List())
	})

	return s, nil
}

// Get returns the record for a profile key, if present.
func (s *ProfileStore) Get(profileKey string) (ProfileRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[profileKey]
	return r, ok
}

// Replace stores a record, overwriting any prior record for the same key.
// Used by profile-mode imports, which delete the old on-disk folder first.
func (s *ProfileStore) Replace(r ProfileRecord) {
	s.mu.Lock()
	s.records[r.ProfileKey] = r
	s.mu.Unlock()
	s.saver.Schedule()
}

// AddCounts increments the counts of an existing record instead of
// replacing it, updating the fetch timestamp. Used by refresh imports.
// Falls back to Replace when no record exists yet.
func (s *ProfileStore) AddCounts(r ProfileRecord) {
	s.mu.Lock()
	if prior, ok := s.records[r.ProfileKey]; ok {
		prior.PostCount += r.PostCount
		prior.FileCount += r.FileCount
		prior.FetchedAt = r.FetchedAt
		s.records[r.ProfileKey] = prior
	} else {
		s.records[r.ProfileKey] = r
	}
	s.mu.Unlock()
	s.saver.Schedule()
}

// Delete removes a record and returns it so the caller can delete the
// corresponding on-disk subtree.
func (s *ProfileStore) Delete(profileKey string) (ProfileRecord, bool) {
	s.mu.Lock()
	r, ok := s.records[profileKey]
	if ok {
		delete(s.records, profileKey)
	}
	s.mu.Unlock()

	if ok {
		s.saver.Schedule()
	}
	return r, ok
}

// List returns every record, most recently fetched first.
func (s *ProfileStore) List() []ProfileRecord {
	s.mu.RLock()
	out := make([]ProfileRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].FetchedAt.Equal(out[j].FetchedAt) {
			return out[i].FetchedAt.After(out[j].FetchedAt)
		}
		return out[i].ProfileKey < out[j].ProfileKey
	})
	return out
}

// Flush forces any pending write to disk immediately.
func (s *ProfileStore) Flush() error {
	return s.saver.Flush()
}
