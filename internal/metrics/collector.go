package metrics

import (
	"context"
	"time"

	"shotforge/internal/logging"
)

// StatsProvider reports the state of the output library and history.
type StatsProvider interface {
	GetStats(ctx context.Context) Stats
}

// Stats is one snapshot published by the Collector.
type Stats struct {
	OutputImages       int
	OutputBytes        int64
	PendingScreenshots int

	GenerationsDone   int64
	GenerationsFailed int64
	GenerationsManual int64
	Fallbacks         int64
	Leftovers         int64
	LastFinish        time.Time
}

// Collector refreshes the library gauges on an interval. Directory listings
// and the history query are too slow to run per scrape.
type Collector struct {
	provider StatsProvider
	interval time.Duration
	timeout  time.Duration
}

// NewCollector creates a collector for provider.
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{provider: provider, interval: interval, timeout: 10 * time.Second}
}

// Run collects immediately, then every interval until ctx is cancelled.
func (c *Collector) Run(ctx context.Context) error {
	c.collect(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.collect(ctx)
		}
	}
}

func (c *Collector) collect(ctx context.Context) {
	if c.provider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	stats := c.provider.GetStats(ctx)

	OutputImagesTotal.Set(float64(stats.OutputImages))
	OutputBytesTotal.Set(float64(stats.OutputBytes))
	PendingScreenshots.Set(float64(stats.PendingScreenshots))
	GenerationsRecorded.WithLabelValues("done").Set(float64(stats.GenerationsDone))
	GenerationsRecorded.WithLabelValues("failed").Set(float64(stats.GenerationsFailed))
	GenerationsRecorded.WithLabelValues("manual").Set(float64(stats.GenerationsManual))
	GenerationsRecorded.WithLabelValues("fallback").Set(float64(stats.Fallbacks))
	GenerationsRecorded.WithLabelValues("leftover").Set(float64(stats.Leftovers))
	if !stats.LastFinish.IsZero() {
		LastGenerationTimestamp.Set(float64(stats.LastFinish.Unix()))
	}

	logging.Debug("Metrics collected: outputs=%d (%d bytes), pending=%d, done=%d, failed=%d",
		stats.OutputImages, stats.OutputBytes, stats.PendingScreenshots,
		stats.GenerationsDone, stats.GenerationsFailed)
}
