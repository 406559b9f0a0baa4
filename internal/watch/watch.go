// Package watch triggers library rescans when watched root folders change
// on disk.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"media-librarian/internal/library"
	"media-librarian/internal/logging"
	"media-librarian/internal/metrics"
)

// defaultSettle is how long the watcher waits after the last event before
// triggering a rescan, so bulk copies collapse into one scan.
const defaultSettle = 2 * time.Second

// Watcher monitors every root's subtree and invokes the rescan callback
// after filesystem activity settles.
type Watcher struct {
	roots  func() []library.Root
	rescan func(context.Context)
	settle time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a Watcher. roots supplies the current root list on startup;
// rescan is invoked once per settled burst of events.
func New(roots func() []library.Root, rescan func(context.Context)) *Watcher {
	return &Watcher{
		roots:  roots,
		rescan: rescan,
		settle: defaultSettle,
	}
}

// Run watches until the context is cancelled. Intended to be run in its own
// goroutine.
func (w *Watcher) Run(ctx context.Context) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Error("Failed to create file watcher: %v", err)
		metrics.WatcherErrors.Inc()
		return
	}
	defer func() {
		if err := fw.Close(); err != nil {
			logging.Error("failed to close file watcher: %v", err)
		}
	}()

	watchCount := 0
	for _, root := range w.roots() {
		watchCount += addSubtree(fw, root.Path)
	}
	logging.Debug("watcher started, watching %d directories", watchCount)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, fw, event)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logging.Error("Watcher error: %v", err)
			metrics.WatcherErrors.Inc()
		}
	}
}

// addSubtree registers every non-hidden directory under path.
func addSubtree(fw *fsnotify.Watcher, path string) int {
	count := 0
	err := filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") && p != path {
			return filepath.SkipDir
		}
		if addErr := fw.Add(p); addErr != nil {
			logging.Warn("failed to add path to watcher %s: %v", p, addErr)
			metrics.WatcherErrors.Inc()
		} else {
			count++
		}
		return nil
	})
	if err != nil {
		logging.Error("failed to walk root for watcher: %v", err)
		metrics.WatcherErrors.Inc()
	}
	return count
}

func (w *Watcher) handleEvent(ctx context.Context, fw *fsnotify.Watcher, event fsnotify.Event) {
	// Hidden files include the importer's staging names and the stores'
	// temp files; none of them should trigger a rescan.
	if strings.Contains(event.Name, string(filepath.Separator)+".") {
		return
	}

	metrics.WatcherEventsTotal.WithLabelValues(eventType(event.Op)).Inc()

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if addErr := fw.Add(event.Name); addErr != nil {
				logging.Warn("failed to add new directory to watcher %s: %v", event.Name, addErr)
				metrics.WatcherErrors.Inc()
			} else {
				logging.Debug("Added new directory to watcher: %s", event.Name)
			}
		}
	}

	w.scheduleRescan(ctx)
}

// scheduleRescan resets the settle timer; the rescan fires once events stop
// arriving for the settle window.
func (w *Watcher) scheduleRescan(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.settle, func() {
		if ctx.Err() != nil {
			return
		}
		logging.Debug("filesystem activity settled, rescanning")
		w.rescan(ctx)
	})
}

func eventType(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	case op&fsnotify.Chmod != 0:
		return "chmod"
	default:
		return "unknown"
	}
}
