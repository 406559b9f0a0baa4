package handlers

import (
	"net/http"
	"runtime"
	"time"

	"media-librarian/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
)

var startedAt = time.Now()

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// Library summary
	TotalFiles       int    `json:"totalFiles"`
	TotalDirectories int    `json:"totalDirectories"`
	Roots            int    `json:"roots"`
	SnapshotBuiltAt  string `json:"snapshotBuiltAt,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	snap := h.lib.Snapshot()

	response := HealthResponse{
		Ready:            h.started,
		Version:          startup.Version,
		Uptime:           time.Since(startedAt).Round(time.Second).String(),
		TotalFiles:       snap.FileCount(),
		TotalDirectories: len(snap.Directories),
		Roots:            len(h.lib.Stores().Roots.List()),
		GoVersion:        runtime.Version(),
		NumCPU:           runtime.NumCPU(),
		NumGoroutine:     runtime.NumGoroutine(),
	}
	if !snap.BuiltAt.IsZero() {
		response.SnapshotBuiltAt = snap.BuiltAt.UTC().Format(time.RFC3339)
	}

	if h.started {
		response.Status = statusHealthy
	} else {
		response.Status = statusStarting
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	writeJSON(w, response)
}

// LivenessCheck reports that the process is alive.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSONStatus(w, "alive")
}

// ReadinessCheck reports whether the initial scan has completed.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if !h.started {
		writeJSONError(w, "initial scan not complete", http.StatusServiceUnavailable)
		return
	}
	writeJSONStatus(w, "ready")
}

// GetVersion returns the application version and build information
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, startup.GetBuildInfo())
}
