package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"shotforge/internal/logging"
	"shotforge/internal/middleware"
	"shotforge/internal/pipeline"
	"shotforge/internal/prompts"
	"shotforge/internal/sizing"
)

// GenerateRequest is the body of POST /api/generate. Either Prompt or
// Preset must be set; Prompt wins when both are.
type GenerateRequest struct {
	Prompt        string   `json:"prompt"`
	Preset        string   `json:"preset"`
	Style         string   `json:"style"`
	Extra         string   `json:"extra"`
	Size          string   `json:"size"`
	GuidanceScale *float64 `json:"guidanceScale"`
	Watermark     *bool    `json:"watermark"`
	Seed          *int64   `json:"seed"`
}

// GenerateResponse reports a finished manual generation.
type GenerateResponse struct {
	Name        string `json:"name"`
	Prompt      string `json:"prompt"`
	Size        string `json:"size"`
	SizeCoerced bool   `json:"sizeCoerced,omitempty"`
	DurationMs  int64  `json:"durationMs"`
}

var errNoPrompt = errors.New("prompt or preset is required")

func presetPrompt(key string) (string, bool) {
	for _, p := range prompts.Presets() {
		if p.Key == key {
			return p.Prompt, true
		}
	}
	return "", false
}

func (req GenerateRequest) build() (pipeline.ManualRequest, bool, error) {
	text := strings.TrimSpace(req.Prompt)
	if text == "" && req.Preset != "" {
		p, ok := presetPrompt(req.Preset)
		if !ok {
			return pipeline.ManualRequest{}, false, errors.New("unknown preset " + req.Preset)
		}
		text = p
	}
	if text == "" {
		return pipeline.ManualRequest{}, false, errNoPrompt
	}
	if req.Style != "" {
		text = prompts.CustomStyle(text, req.Style, req.Extra)
	}

	size, coerced := sizing.Default, false
	if req.Size != "" {
		var ok bool
		size, ok = sizing.Coerce(req.Size)
		coerced = !ok
	}

	return pipeline.ManualRequest{
		Prompt:        text,
		Size:          size,
		GuidanceScale: req.GuidanceScale,
		Watermark:     req.Watermark,
		Seed:          req.Seed,
	}, coerced, nil
}

// Generate renders a prompt straight into the outputs directory. The
// request blocks until the image has been downloaded.
func (h *Handlers) Generate(w http.ResponseWriter, r *http.Request) {
	if h.generator == nil {
		writeJSONError(w, "Image generation is not configured", http.StatusServiceUnavailable)
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	mr, coerced, err := req.build()
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if coerced {
		logging.Debug("Generate: size %q not supported, using %s", req.Size, mr.Size)
	}

	reqID := middleware.RequestID(r.Context())
	logging.Info("Generate [%s]: manual request, size %s", reqID, mr.Size)

	out, err := h.generator.Generate(r.Context(), mr)
	if err != nil {
		logging.Warn("Generate [%s]: %v", reqID, err)
		writeJSONError(w, "Generation failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, GenerateResponse{
		Name:        filepath.Base(out.OutputPath),
		Prompt:      mr.Prompt,
		Size:        mr.Size.String(),
		SizeCoerced: coerced,
		DurationMs:  out.FinishedAt.Sub(out.StartedAt).Milliseconds(),
	})
}

// ListPrompts returns the generation presets and vision instructions.
func (h *Handlers) ListPrompts(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"presets":  prompts.Presets(),
		"vision":   prompts.VisionInstructions(),
		"fallback": prompts.DefaultFallback(),
	})
}

// SizeInfo is one supported output size.
type SizeInfo struct {
	Size   string  `json:"size"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Ratio  float64 `json:"ratio"`
}

// ListSizes returns the supported output sizes in match order. With w and
// h query parameters it also reports the size a screenshot of those
// dimensions would be rendered at.
func (h *Handlers) ListSizes(w http.ResponseWriter, r *http.Request) {
	table := sizing.Supported()
	sizes := make([]SizeInfo, 0, len(table))
	for _, s := range table {
		sizes = append(sizes, SizeInfo{Size: s.String(), Width: s.Width, Height: s.Height, Ratio: s.Ratio()})
	}

	resp := map[string]interface{}{
		"sizes":   sizes,
		"default": sizing.Default.String(),
	}

	if r.URL.Query().Has("w") || r.URL.Query().Has("h") {
		best, err := sizing.BestSize(queryInt(r, "w", 0), queryInt(r, "h", 0))
		if err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp["best"] = best.String()
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, resp)
}

// History returns recorded generations, newest first.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	records, err := h.db.ListGenerations(r.Context(), limit, offset)
	if err != nil {
		logging.Error("History: %v", err)
		writeJSONError(w, "Failed to load history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"items":  records,
		"limit":  limit,
		"offset": offset,
	})
}

// Stats returns history totals together with the watcher counters.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	gen, err := h.db.GetGenerationStats(r.Context())
	if err != nil {
		logging.Error("Stats: %v", err)
		writeJSONError(w, "Failed to load stats", http.StatusInternalServerError)
		return
	}

	status := h.watcher.GetHealthStatus()

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"generations": gen,
		"watcher": map[string]interface{}{
			"processed": status.Processed,
			"deferred":  status.Deferred,
			"leftovers": status.Leftovers,
			"scans":     status.Scans,
		},
	})
}

// TriggerScan asks the watcher for an immediate scan.
func (h *Handlers) TriggerScan(w http.ResponseWriter, _ *http.Request) {
	h.watcher.TriggerScan()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]string{"status": "scan requested"})
}
