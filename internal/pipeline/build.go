package pipeline

import (
	"fmt"

	"shotforge/internal/filesystem"
	"shotforge/internal/imagegen"
	"shotforge/internal/prompts"
	"shotforge/internal/startup"
	"shotforge/internal/vision"
)

// Clients reports which API clients FromConfig built.
type Clients struct {
	VisionModel     string
	VisionErr       error
	GenerationModel string
}

// FromConfig builds the API clients and a Pipeline from application
// config. A vision client that cannot be built only disables descriptions;
// VisionErr says why.
func FromConfig(config *startup.Config, recorder Recorder, keepSource bool) (*Pipeline, Clients, error) {
	var clients Clients

	gen, err := imagegen.New(imagegen.Config{
		APIKey:        config.APIKey,
		URL:           config.APIURL,
		Model:         config.Model,
		GuidanceScale: config.GuidanceScale,
		Watermark:     config.Watermark,
		Seed:          config.Seed,
		Timeout:       config.APITimeout,
	})
	if err != nil {
		return nil, clients, fmt.Errorf("generation client: %w", err)
	}
	clients.GenerationModel = config.Model

	cfg := Config{
		Readiness: filesystem.ReadinessChecker{
			Timeout:  config.ReadyTimeout,
			Interval: config.ReadyInterval,
		},
		Generator:         gen,
		Recorder:          recorder,
		OutputDir:         config.OutputsDir,
		VisionInstruction: prompts.VisionInstruction(config.VisionInstruction),
		FallbackScene:     config.FallbackScene,
		Attempts:          config.GenerationAttempts,
		RetryBackoff:      config.RetryBackoff,
		KeepSource:        keepSource,
	}

	v, err := vision.New(vision.Config{
		APIKey:  config.APIKey,
		BaseURL: config.VisionAPIURL,
		Model:   config.VisionModel,
		Timeout: config.APITimeout,
	})
	if err != nil {
		clients.VisionErr = err
	} else {
		cfg.Vision = v
		clients.VisionModel = v.Model()
	}

	p, err := New(cfg)
	if err != nil {
		return nil, clients, err
	}
	return p, clients, nil
}
