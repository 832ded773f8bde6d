package memory

import (
	"context"
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"shotforge/internal/logging"
	"shotforge/internal/metrics"
)

// Config holds the monitor thresholds. Marks are fractions of the limit.
type Config struct {
	// LimitBytes overrides the Go memory limit. Zero reads GOMEMLIMIT.
	LimitBytes    int64
	HighWaterMark float64
	CriticalMark  float64
	CheckInterval time.Duration
}

// DefaultConfig returns the thresholds used by the server.
func DefaultConfig() Config {
	return Config{
		HighWaterMark: 0.7,
		CriticalMark:  0.85,
		CheckInterval: 5 * time.Second,
	}
}

// Monitor tracks heap usage and tells the watcher when to hold back.
type Monitor struct {
	config Config
	limit  int64

	mu      sync.RWMutex
	alloc   uint64
	paused  bool
	readMem func() uint64
}

// NewMonitor creates a monitor. Without a limit it never pauses.
func NewMonitor(config Config) *Monitor {
	limit := config.LimitBytes
	if limit == 0 {
		if l := debug.SetMemoryLimit(-1); l > 0 && l < math.MaxInt64 {
			limit = l
		}
	}

	if limit == 0 {
		logging.Info("Memory monitor: no memory limit set, backpressure disabled")
	} else {
		logging.Info("Memory monitor: limit %s, pause above %.0f%%", FormatBytes(limit), config.CriticalMark*100)
	}

	return &Monitor{
		config:  config,
		limit:   limit,
		readMem: heapAlloc,
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.Alloc
}

// Enabled reports whether a limit is known.
func (m *Monitor) Enabled() bool {
	return m.limit > 0
}

// Run samples memory until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	if !m.Enabled() {
		return nil
	}

	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.observe(m.readMem())
		}
	}
}

// observe applies one heap sample. The monitor pauses at the critical mark
// and resumes only below the high mark.
func (m *Monitor) observe(alloc uint64) {
	if m.limit == 0 {
		return
	}
	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.alloc = alloc

	switch {
	case usage >= m.config.CriticalMark && !m.paused:
		logging.Warn("Memory critical (%.1f%% of limit), holding back new screenshots", usage*100)
		m.paused = true
		metrics.MemoryPaused.Set(1)
		go runtime.GC()
	case usage < m.config.HighWaterMark && m.paused:
		logging.Info("Memory recovered (%.1f%% of limit), resuming", usage*100)
		m.paused = false
		metrics.MemoryPaused.Set(0)
	}
}

// Paused reports whether new work should wait.
func (m *Monitor) Paused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Usage returns the last sample as a fraction of the limit.
func (m *Monitor) Usage() float64 {
	if m.limit == 0 {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return float64(m.alloc) / float64(m.limit)
}
