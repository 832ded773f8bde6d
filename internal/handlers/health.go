package handlers

import (
	"net/http"
	"runtime"
	"time"

	"shotforge/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Ready    bool   `json:"ready"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Database string `json:"database"`

	// Watcher info
	Watching      bool   `json:"watching"`
	Notifier      bool   `json:"notifier"`
	LastScan      string `json:"lastScan,omitempty"`
	Processing    string `json:"processing,omitempty"`
	Processed     int    `json:"processed"`
	Deferred      int    `json:"deferred"`
	Leftovers     int64  `json:"leftovers"`
	NotifierError string `json:"notifierError,omitempty"`

	// Generation API availability
	Generation bool `json:"generation"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := h.watcher.GetHealthStatus()

	response := HealthResponse{
		Ready:         status.Ready,
		Version:       startup.Version,
		Uptime:        status.Uptime,
		Database:      "ok",
		Watching:      status.Running,
		Notifier:      status.Notifier,
		Processing:    status.Processing,
		Processed:     status.Processed,
		Deferred:      status.Deferred,
		Leftovers:     status.Leftovers,
		NotifierError: status.NotifierError,
		Generation:    h.generator != nil,
		GoVersion:     runtime.Version(),
		NumCPU:        runtime.NumCPU(),
		NumGoroutine:  runtime.NumGoroutine(),
	}

	if !status.LastScan.IsZero() {
		response.LastScan = status.LastScan.Format(time.RFC3339)
	}

	switch {
	case !status.Ready:
		response.Status = statusStarting
	case !status.Running:
		response.Status = statusDegraded
	default:
		response.Status = statusHealthy
	}

	if err := h.db.Ping(r.Context()); err != nil {
		response.Database = err.Error()
		response.Status = statusDegraded
	}

	w.Header().Set("Content-Type", "application/json")

	// Return 503 only if not ready at all
	if !status.Ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 once the backlog of screenshots has been
// processed.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.watcher.IsReady() {
		w.WriteHeader(http.StatusOK)
		writeJSON(w, map[string]string{
			"status": "ready",
		})
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{
			"status": "not_ready",
		})
	}
}
