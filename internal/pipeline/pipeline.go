package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"shotforge/internal/database"
	"shotforge/internal/filesystem"
	"shotforge/internal/imagegen"
	"shotforge/internal/logging"
	"shotforge/internal/media"
	"shotforge/internal/metrics"
	"shotforge/internal/prompts"
	"shotforge/internal/sizing"

	"github.com/google/uuid"
)

// DefaultRetryBackoff is the first wait between generation attempts. It
// doubles on every further attempt.
const DefaultRetryBackoff = 2 * time.Second

// ReadinessChecker decides whether a file has finished being written.
type ReadinessChecker interface {
	Ready(ctx context.Context, path string) bool
}

// Analyzer describes an image. An empty result means no description is
// available.
type Analyzer interface {
	Analyze(ctx context.Context, imagePath, instruction string) string
}

// Generator renders a prompt into an image and fetches it.
type Generator interface {
	NewRequest(prompt string, size sizing.SizeSpec) imagegen.Request
	Generate(ctx context.Context, req imagegen.Request) (*imagegen.Response, error)
	Download(ctx context.Context, url, dest string) error
}

// Recorder persists finished runs. Failures are logged and ignored.
type Recorder interface {
	RecordGeneration(ctx context.Context, g *database.Generation) error
}

// Config wires a Pipeline. Vision and Recorder may be nil.
type Config struct {
	Readiness ReadinessChecker
	Vision    Analyzer
	Generator Generator
	Recorder  Recorder

	OutputDir         string
	VisionInstruction string
	FallbackScene     string
	FallbackExtra     string

	// Attempts bounds generate+download tries per file. Values below 1
	// mean a single attempt.
	Attempts     int
	RetryBackoff time.Duration

	// KeepSource skips deletion of the source after a successful run.
	KeepSource bool

	Now         func() time.Time
	Remove      func(path string) error
	ForceRemove func(path string) bool
}

// Pipeline runs the per-file state machine.
type Pipeline struct {
	cfg Config
}

// New validates cfg and fills defaults.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Generator == nil {
		return nil, errors.New("pipeline: generator is required")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("pipeline: output directory is required")
	}
	if cfg.Readiness == nil {
		cfg.Readiness = filesystem.DefaultReadinessChecker()
	}
	if cfg.VisionInstruction == "" {
		cfg.VisionInstruction = prompts.VisionInstruction(prompts.VisionNoFace)
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Remove == nil {
		cfg.Remove = filesystem.RemoveVerified
	}
	if cfg.ForceRemove == nil {
		cfg.ForceRemove = filesystem.ForceRemove
	}
	return &Pipeline{cfg: cfg}, nil
}

// OutputDir is where generated images are written.
func (p *Pipeline) OutputDir() string {
	return p.cfg.OutputDir
}

// Process drives one source file from Detected to Done or Failed. A file
// that never becomes ready is returned in StageDetected with ErrNotReady and
// is neither recorded nor touched.
func (p *Pipeline) Process(ctx context.Context, path string) Outcome {
	metrics.PipelineInFlight.Inc()
	defer metrics.PipelineInFlight.Dec()

	name := filepath.Base(path)
	out := Outcome{Path: path, Stage: StageDetected, StartedAt: p.cfg.Now()}

	stageStart := time.Now()
	if !p.cfg.Readiness.Ready(ctx, path) {
		out.Err = ErrNotReady
		metrics.PipelineOutcomesTotal.WithLabelValues(StageDetected.String(), "deferred").Inc()
		logging.Warn("File not ready yet, will retry: %s", name)
		return out
	}
	observeStage(StageDetected, stageStart)
	enterStage(ctx, &out, StageReady)
	logging.Info("Processing new screenshot: %s", name)

	stageStart = time.Now()
	dims, err := media.GetImageDimensions(path)
	if err != nil {
		return p.fail(ctx, out, err)
	}
	size, err := sizing.BestSize(dims.Width, dims.Height)
	if err != nil {
		logging.Warn("Image %s reports %dx%d, using %s", name, dims.Width, dims.Height, size)
	}
	out.Size = size
	observeStage(StageReady, stageStart)
	logging.Debug("Image %s is %dx%d, generating at %s", name, dims.Width, dims.Height, size)

	enterStage(ctx, &out, StageAnalyzing)
	stageStart = time.Now()
	out.Prompt, out.UsedFallback = p.prompt(ctx, path)
	observeStage(StageAnalyzing, stageStart)

	dest := filepath.Join(p.cfg.OutputDir, OutputName(p.cfg.Now(), name))
	if out, err = p.render(ctx, out, p.cfg.Generator.NewRequest(out.Prompt, out.Size), dest); err != nil {
		return p.fail(ctx, out, err)
	}

	enterStage(ctx, &out, StageDeleting)
	stageStart = time.Now()
	if p.cfg.KeepSource {
		logging.Info("Keeping source %s", name)
	} else {
		out.SourceRemoved = p.removeSource(path)
	}
	observeStage(StageDeleting, stageStart)

	return p.finish(ctx, out)
}

// prompt asks the vision service for a description and falls back to the
// canned scene prompt when it has nothing to say.
func (p *Pipeline) prompt(ctx context.Context, path string) (string, bool) {
	var description string
	if p.cfg.Vision != nil {
		description = p.cfg.Vision.Analyze(ctx, path, p.cfg.VisionInstruction)
	}

	prompt, fallback := prompts.Combine(description, p.cfg.FallbackScene, p.cfg.FallbackExtra)
	if fallback {
		metrics.PipelineFallbackPromptsTotal.Inc()
		logging.Warn("Vision analysis returned nothing for %s, using fallback prompt", filepath.Base(path))
	} else {
		logging.Info("Generation prompt from vision analysis: %s", prompt)
	}
	return prompt, fallback
}

// render runs Generating and Downloading with the configured number of
// attempts. On return out.Stage names the last stage entered.
func (p *Pipeline) render(ctx context.Context, out Outcome, req imagegen.Request, dest string) (Outcome, error) {
	var lastErr error
	backoff := p.cfg.RetryBackoff

	for attempt := 1; attempt <= p.cfg.Attempts; attempt++ {
		if attempt > 1 {
			metrics.PipelineRetriesTotal.WithLabelValues(out.Stage.String()).Inc()
			logging.Warn("Attempt %d/%d for %s after: %v", attempt, p.cfg.Attempts, filepath.Base(out.Path), lastErr)
			if !sleepCtx(ctx, backoff) {
				return out, errors.Join(lastErr, ctx.Err())
			}
			backoff *= 2
		}

		enterStage(ctx, &out, StageGenerating)
		stageStart := time.Now()
		resp, err := p.cfg.Generator.Generate(ctx, req)
		if err != nil {
			lastErr = err
			continue
		}
		url, err := resp.URL()
		if err != nil {
			lastErr = err
			continue
		}
		observeStage(StageGenerating, stageStart)

		enterStage(ctx, &out, StageDownloading)
		stageStart = time.Now()
		if err := p.cfg.Generator.Download(ctx, url, dest); err != nil {
			lastErr = err
			continue
		}
		observeStage(StageDownloading, stageStart)

		out.OutputPath = dest
		return out, nil
	}
	return out, lastErr
}

// removeSource deletes the processed screenshot, escalating to a forced
// delete once. It reports whether the file is gone.
func (p *Pipeline) removeSource(path string) bool {
	name := filepath.Base(path)
	err := p.cfg.Remove(path)
	if err == nil {
		logging.Info("Deleted source screenshot: %s", name)
		return true
	}

	logging.Warn("Delete of %s failed (%v), forcing", name, err)
	if p.cfg.ForceRemove(path) {
		logging.Info("Forced delete succeeded: %s", name)
		return true
	}

	logging.Error("Could not delete source %s; it stays in place and will not be processed again", name)
	return false
}

func (p *Pipeline) fail(ctx context.Context, out Outcome, err error) Outcome {
	out.FailedAt = out.Stage
	out.Stage = StageFailed
	out.Err = &StageError{Stage: out.FailedAt, Path: out.Path, Err: err}
	logging.Error("Processing failed for %s at %s: %v", filepath.Base(out.Path), out.FailedAt, err)
	return p.finish(ctx, out)
}

func (p *Pipeline) finish(ctx context.Context, out Outcome) Outcome {
	if out.Stage != StageFailed {
		out.Stage = StageDone
	}
	out.FinishedAt = p.cfg.Now()

	label := out.Stage
	result := "done"
	if out.Stage == StageFailed {
		label = out.FailedAt
		result = "failed"
	}
	metrics.PipelineOutcomesTotal.WithLabelValues(label.String(), result).Inc()
	metrics.PipelineDuration.Observe(out.FinishedAt.Sub(out.StartedAt).Seconds())

	if out.Stage == StageDone {
		logging.Info("Finished %s -> %s", filepath.Base(out.Path), filepath.Base(out.OutputPath))
	}

	p.record(ctx, database.OriginWatcher, out)
	return out
}

func (p *Pipeline) record(ctx context.Context, origin string, out Outcome) {
	if p.cfg.Recorder == nil {
		return
	}

	g := &database.Generation{
		Origin:        origin,
		OutputPath:    out.OutputPath,
		Prompt:        out.Prompt,
		Size:          out.Size.String(),
		UsedFallback:  out.UsedFallback,
		Status:        database.StatusDone,
		Stage:         out.Stage.String(),
		SourceRemoved: out.SourceRemoved,
		StartedAt:     out.StartedAt,
		FinishedAt:    out.FinishedAt,
	}
	if out.Path != "" {
		g.SourceName = filepath.Base(out.Path)
	}
	if out.Stage == StageFailed {
		g.Status = database.StatusFailed
		g.Stage = out.FailedAt.String()
	}
	if out.Err != nil {
		g.Error = out.Err.Error()
	}

	if err := p.cfg.Recorder.RecordGeneration(ctx, g); err != nil {
		logging.Warn("Failed to record generation for %s: %v", g.SourceName, err)
	}
}

// ManualRequest is a dashboard generation that has no source file.
type ManualRequest struct {
	Prompt        string
	Size          sizing.SizeSpec
	GuidanceScale *float64
	Watermark     *bool
	Seed          *int64
}

// Generate renders a prompt straight into the outputs directory. The
// outcome is recorded with the manual origin.
func (p *Pipeline) Generate(ctx context.Context, mr ManualRequest) (Outcome, error) {
	if mr.Prompt == "" {
		return Outcome{}, errors.New("prompt is required")
	}

	metrics.PipelineInFlight.Inc()
	defer metrics.PipelineInFlight.Dec()

	if !mr.Size.IsSupported() {
		logging.Warn("Unsupported size %s, using %s", mr.Size, sizing.Default)
		mr.Size = sizing.Default
	}

	req := p.cfg.Generator.NewRequest(mr.Prompt, mr.Size)
	if mr.GuidanceScale != nil {
		req.GuidanceScale = *mr.GuidanceScale
	}
	if mr.Watermark != nil {
		req.Watermark = *mr.Watermark
	}
	if mr.Seed != nil {
		req.Seed = *mr.Seed
	}

	now := p.cfg.Now()
	out := Outcome{Stage: StageGenerating, Prompt: mr.Prompt, Size: mr.Size, StartedAt: now}
	id := uuid.NewString()
	dest := filepath.Join(p.cfg.OutputDir, ManualName(now, id, ".png"))

	out, err := p.render(ctx, out, req, dest)
	if err != nil {
		out.FailedAt = out.Stage
		out.Stage = StageFailed
		out.Err = &StageError{Stage: out.FailedAt, Path: "manual", Err: err}
	} else {
		out.OutputPath = fixExtension(dest)
		out.Stage = StageDone
	}
	out.FinishedAt = p.cfg.Now()

	p.record(ctx, database.OriginManual, out)
	if err != nil {
		logging.Error("Manual generation failed at %s: %v", out.FailedAt, err)
		return out, out.Err
	}
	logging.Info("Manual generation saved: %s", filepath.Base(out.OutputPath))
	return out, nil
}

// fixExtension renames a downloaded file whose extension disagrees with
// its content. The original path is returned if anything goes wrong.
func fixExtension(path string) string {
	format, err := media.DetectFormat(path)
	if err != nil || format == "unknown" {
		return path
	}
	want := media.ExtensionForFormat(format)
	if filepath.Ext(path) == want {
		return path
	}
	renamed := path[:len(path)-len(filepath.Ext(path))] + want
	if err := os.Rename(path, renamed); err != nil {
		logging.Warn("Could not rename %s to %s: %v", filepath.Base(path), filepath.Base(renamed), err)
		return path
	}
	return renamed
}

func observeStage(s Stage, start time.Time) {
	metrics.PipelineStageDuration.WithLabelValues(s.String()).Observe(time.Since(start).Seconds())
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Describe formats an outcome for CLI output.
func Describe(o Outcome) string {
	switch o.Stage {
	case StageDone:
		s := fmt.Sprintf("done: %s -> %s (size %s", filepath.Base(o.Path), o.OutputPath, o.Size)
		if o.UsedFallback {
			s += ", fallback prompt"
		}
		if !o.SourceRemoved {
			s += ", source kept"
		}
		return s + ")"
	case StageFailed:
		return fmt.Sprintf("failed at %s: %v", o.FailedAt, o.Err)
	default:
		return fmt.Sprintf("%s: %v", o.Stage, o.Err)
	}
}
