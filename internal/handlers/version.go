package handlers

import (
	"net/http"

	"shotforge/internal/startup"
	"shotforge/internal/vision"
)

// VersionResponse is build information plus the models in use.
type VersionResponse struct {
	startup.BuildInfo
	GenerationModel string `json:"generationModel,omitempty"`
	VisionModel     string `json:"visionModel,omitempty"`
}

// GetVersion returns build information and the configured model names.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	resp := VersionResponse{
		BuildInfo:       startup.GetBuildInfo(),
		GenerationModel: h.generationModel,
		VisionModel:     h.visionModel,
	}
	if resp.VisionModel == "" && resp.GenerationModel != "" {
		resp.VisionModel = vision.DefaultModel
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, resp)
}
