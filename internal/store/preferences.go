package store

import (
	"sync"
	"time"
)

// KeyBinding maps a user action to a key token.
type KeyBinding struct {
	Action string `json:"action"`
	Token  string `json:"token"`
}

// Preferences is the resolved, authoritative preference state. Legacy
// on-disk fields are reconciled into these modern fields on load.
type Preferences struct {
	ConflictPolicy      string       `json:"conflictPolicy"`
	Theme               string       `json:"theme"`
	KeyBindings         []KeyBinding `json:"keyBindings"`
	ResponseTemplates   []string     `json:"responseTemplates"`
	ShowFileExtensions  bool         `json:"showFileExtensions"`
	ConfirmBeforeDelete bool         `json:"confirmBeforeDelete"`
}

// DefaultPreferences returns the documented defaults used for unknown or
// missing fields.
func DefaultPreferences() Preferences {
	return Preferences{
		ConflictPolicy:      "keepBoth",
		Theme:               "system",
		ShowFileExtensions:  true,
		ConfirmBeforeDelete: true,
	}
}

// preferencesDoc is the on-disk shape. Pointer fields distinguish "absent"
// from zero values so defaults and legacy reconciliation apply correctly.
// Legacy boolean fields are kept in the document, synced with their modern
// counterparts on every write, so older builds keep working.
type preferencesDoc struct {
	ConflictPolicy    *string      `json:"conflictPolicy,omitempty"`
	Theme             *string      `json:"theme,omitempty"`
	KeyBindings       []KeyBinding `json:"keyBindings,omitempty"`
	ResponseTemplates []string     `json:"responseTemplates,omitempty"`

	ShowFileExtensions *bool `json:"showFileExtensions,omitempty"`
	HideFileExtensions *bool `json:"hideFileExtensions,omitempty"` // legacy inverse pair

	ConfirmBeforeDelete    *bool `json:"confirmBeforeDelete,omitempty"`
	SkipDeleteConfirmation *bool `json:"skipDeleteConfirmation,omitempty"` // legacy inverse pair
}

// PreferencesStore persists the preferences document with debounced writes.
type PreferencesStore struct {
	mu    sync.RWMutex
	prefs Preferences
	saver *saver
}

// NewPreferencesStore loads the preferences document at path, applying
// defaults for missing fields and reconciling legacy boolean pairs so the
// modern field is authoritative going forward.
func NewPreferencesStore(path string, saveDelay time.Duration) (*PreferencesStore, error) {
	var doc preferencesDoc
	if _, err := readJSONFile(path, &doc); err != nil {
		return nil, err
	}

	s := &PreferencesStore{
		prefs: reconcile(doc),
	}

	s.saver = newSaver("preferences", saveDelay, func() error {
		s.mu.RLock()
		doc := docFrom(s.prefs)
		s.mu.RUnlock()
		return writeJSONFile(path, doc)
	})

	return s, nil
}

// reconcile resolves an on-disk document against defaults and legacy fields.
// For each legacy/modern pair: when only the legacy field is present, the
// modern one is recomputed from it; when both are present the modern field
// wins.
func reconcile(doc preferencesDoc) Preferences {
	p := DefaultPreferences()

	if doc.ConflictPolicy != nil {
		p.ConflictPolicy = *doc.ConflictPolicy
	}
	if doc.Theme != nil {
		p.Theme = *doc.Theme
	}
	p.KeyBindings = doc.KeyBindings
	p.ResponseTemplates = doc.ResponseTemplates

	switch {
	case doc.ShowFileExtensions != nil:
		p.ShowFileExtensions = *doc.ShowFileExtensions
	case doc.HideFileExtensions != nil:
		p.ShowFileExtensions = !*doc.HideFileExtensions
	}

	switch {
	case doc.ConfirmBeforeDelete != nil:
		p.ConfirmBeforeDelete = *doc.ConfirmBeforeDelete
	case doc.SkipDeleteConfirmation != nil:
		p.ConfirmBeforeDelete = !*doc.SkipDeleteConfirmation
	}

	return p
}

// docFrom produces the on-disk document, writing every legacy field in sync
// with its modern counterpart.
func docFrom(p Preferences) preferencesDoc {
	hide := !p.ShowFileExtensions
	skip := !p.ConfirmBeforeDelete
	return preferencesDoc{
		ConflictPolicy:         &p.ConflictPolicy,
		Theme:                  &p.Theme,
		KeyBindings:            p.KeyBindings,
		ResponseTemplates:      p.ResponseTemplates,
		ShowFileExtensions:     &p.ShowFileExtensions,
		HideFileExtensions:     &hide,
		ConfirmBeforeDelete:    &p.ConfirmBeforeDelete,
		SkipDeleteConfirmation: &skip,
	}
}

// Get returns the current preferences.
func (s *PreferencesStore) Get() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// Set replaces the preferences and schedules a debounced save.
func (s *PreferencesStore) Set(p Preferences) {
	s.mu.Lock()
	s.prefs = p
	s.mu.Unlock()
	s.saver.Schedule()
}

// Flush forces any pending write to disk immediately.
func (s *PreferencesStore) Flush() error {
	return s.saver.Flush()
}
