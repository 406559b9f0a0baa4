package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"media-librarian/internal/logging"
	"media-librarian/internal/metrics"
)

// DefaultSaveDelay is how long a store waits after a mutation before writing
// to disk. Each mutation resets the timer, collapsing rapid successive edits
// into a single write. In-memory state is the source of truth throughout; the
// delay affects durability latency only.
const DefaultSaveDelay = 150 * time.Millisecond

// saver debounces disk writes. There is a single pending-timer slot: a new
// Schedule cancels any outstanding timer and arms a fresh one.
type saver struct {
	name  string
	delay time.Duration
	save  func() error

	mu    sync.Mutex
	timer *time.Timer
}

func newSaver(name string, delay time.Duration, save func() error) *saver {
	if delay <= 0 {
		delay = DefaultSaveDelay
	}
	return &saver{name: name, delay: delay, save: save}
}

// Schedule arms (or re-arms) the debounce timer.
func (s *saver) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		metrics.StoreSavesDebounced.WithLabelValues(s.name).Inc()
	}
	s.timer = time.AfterFunc(s.delay, func() {
		if err := s.run(); err != nil {
			logging.Error("%s store: debounced save failed: %v", s.name, err)
		}
	})
}

// Flush cancels any pending timer and writes immediately. Used at shutdown
// and wherever durability must be guaranteed before proceeding.
func (s *saver) Flush() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	return s.run()
}

func (s *saver) run() error {
	err := s.save()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.StoreSavesTotal.WithLabelValues(s.name, status).Inc()
	return err
}

// writeJSONFile atomically replaces path with the JSON encoding of v by
// writing a temporary sibling file and renaming it into place.
func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// readJSONFile decodes path into v. A missing file is not an error; v is
// left untouched and ok is false.
func readJSONFile(path string, v interface{}) (ok bool, err error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, err
	}
	return true, nil
}
