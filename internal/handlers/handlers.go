package handlers

import (
	"context"

	"shotforge/internal/database"
	"shotforge/internal/media"
	"shotforge/internal/pipeline"
	"shotforge/internal/startup"
	"shotforge/internal/watcher"
)

// WatcherStatus is the part of the directory watcher the dashboard uses.
type WatcherStatus interface {
	IsReady() bool
	GetHealthStatus() watcher.HealthStatus
	Files() ([]watcher.WatchedFile, error)
	TriggerScan()
}

// ManualGenerator renders dashboard prompts. *pipeline.Pipeline satisfies it.
type ManualGenerator interface {
	Generate(ctx context.Context, req pipeline.ManualRequest) (pipeline.Outcome, error)
}

// Handlers serves the dashboard API.
type Handlers struct {
	db             *database.Database
	watcher        WatcherStatus
	generator      ManualGenerator
	thumbGen       *media.ThumbnailGenerator
	screenshotsDir string
	outputsDir     string
	authEnabled    bool

	generationModel string
	visionModel     string
}

// New wires the handlers. generator may be nil when the generation API is
// not configured; the generate endpoint then answers 503.
func New(db *database.Database, w WatcherStatus, generator ManualGenerator, config *startup.Config) *Handlers {
	return &Handlers{
		db:             db,
		watcher:        w,
		generator:      generator,
		thumbGen:       media.NewThumbnailGenerator(config.ThumbnailDir, config.ThumbnailsEnabled),
		screenshotsDir: config.ScreenshotsDir,
		outputsDir:     config.OutputsDir,
		authEnabled:    config.AuthEnabled,

		generationModel: config.Model,
		visionModel:     config.VisionModel,
	}
}

// Thumbnails exposes the thumbnail generator for background warm-up.
func (h *Handlers) Thumbnails() *media.ThumbnailGenerator {
	return h.thumbGen
}
