package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shotforge/internal/sizing"
)

// Stage is a step of the per-file state machine.
type Stage int

const (
	StageDetected Stage = iota
	StageReady
	StageAnalyzing
	StageGenerating
	StageDownloading
	StageDeleting
	StageDone
	StageFailed
)

var stageNames = [...]string{
	StageDetected:    "detected",
	StageReady:       "ready",
	StageAnalyzing:   "analyzing",
	StageGenerating:  "generating",
	StageDownloading: "downloading",
	StageDeleting:    "deleting",
	StageDone:        "done",
	StageFailed:      "failed",
}

func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// MarshalText lets stages appear by name in JSON.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether no further transition happens from s.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

type stageHookKey struct{}

// WithStageHook returns a context under which Process calls fn every time a
// run enters a new stage. fn runs on the processing goroutine.
func WithStageHook(ctx context.Context, fn func(Stage)) context.Context {
	return context.WithValue(ctx, stageHookKey{}, fn)
}

// ReportStage calls the hook installed by WithStageHook, if any.
func ReportStage(ctx context.Context, s Stage) {
	if fn, ok := ctx.Value(stageHookKey{}).(func(Stage)); ok && fn != nil {
		fn(s)
	}
}

func enterStage(ctx context.Context, out *Outcome, s Stage) {
	out.Stage = s
	ReportStage(ctx, s)
}

// ErrNotReady means the file did not settle within the readiness timeout.
// The file should be retried on a later pass.
var ErrNotReady = errors.New("file not ready")

// StageError records the stage a run failed in.
type StageError struct {
	Stage Stage
	Path  string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Path, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Outcome is the result of one pipeline run.
type Outcome struct {
	Path  string `json:"path"`
	Stage Stage  `json:"stage"`
	// FailedAt is the stage that was executing when the run failed. Only
	// meaningful when Stage is StageFailed.
	FailedAt      Stage           `json:"failedAt"`
	Size          sizing.SizeSpec `json:"-"`
	Prompt        string          `json:"prompt,omitempty"`
	UsedFallback  bool            `json:"usedFallback"`
	OutputPath    string          `json:"outputPath,omitempty"`
	SourceRemoved bool            `json:"sourceRemoved"`
	Err           error           `json:"-"`
	StartedAt     time.Time       `json:"startedAt"`
	FinishedAt    time.Time       `json:"finishedAt"`
}

// Terminal reports whether the run reached Done or Failed. A non-terminal
// outcome (Detected) means the file should be retried later.
func (o Outcome) Terminal() bool {
	return o.Stage.Terminal()
}
