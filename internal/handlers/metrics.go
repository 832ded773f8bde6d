package handlers

import (
	"context"
	"net/http"

	"shotforge/internal/filesystem"
	"shotforge/internal/logging"
	"shotforge/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler returns the Prometheus metrics handler
func (h *Handlers) MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// GetStats implements metrics.StatsProvider.
func (h *Handlers) GetStats(ctx context.Context) metrics.Stats {
	var stats metrics.Stats

	if outputs, err := filesystem.ListImages(h.outputsDir); err != nil {
		logging.Debug("Stats: list outputs: %v", err)
	} else {
		stats.OutputImages = len(outputs)
		for _, f := range outputs {
			stats.OutputBytes += f.Size
		}
	}

	if pending, err := filesystem.ListImages(h.screenshotsDir); err != nil {
		logging.Debug("Stats: list screenshots: %v", err)
	} else {
		stats.PendingScreenshots = len(pending)
	}

	gen, err := h.db.GetGenerationStats(ctx)
	if err != nil {
		logging.Debug("Stats: history: %v", err)
		return stats
	}
	stats.GenerationsDone = gen.Done
	stats.GenerationsFailed = gen.Failed
	stats.GenerationsManual = gen.Manual
	stats.Fallbacks = gen.Fallbacks
	stats.Leftovers = gen.Leftovers
	stats.LastFinish = gen.LastFinish
	return stats
}
