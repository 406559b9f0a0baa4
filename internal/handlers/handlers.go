package handlers

import (
	"media-librarian/internal/startup"
	"media-librarian/internal/state"
	"media-librarian/internal/thumbs"
)

type Handlers struct {
	lib      *state.Library
	tasks    *state.TaskRegistry
	thumbGen *thumbs.Generator
	started  bool
}

func New(lib *state.Library, tasks *state.TaskRegistry, config *startup.Config) *Handlers {
	return &Handlers{
		lib:      lib,
		tasks:    tasks,
		thumbGen: thumbs.New(config.ThumbnailDir, config.ThumbnailsEnabled),
	}
}

// MarkReady records that the initial scan completed; readiness checks gate
// on it.
func (h *Handlers) MarkReady() {
	h.started = true
}
