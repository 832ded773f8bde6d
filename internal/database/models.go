package database

import "time"

// Origins of a generation record.
const (
	OriginWatcher = "watcher"
	OriginManual  = "manual"
)

// Statuses of a generation record.
const (
	StatusDone   = "done"
	StatusFailed = "failed"
)

// Generation is one finished pipeline run or manual generation.
type Generation struct {
	ID            int64     `json:"id"`
	Origin        string    `json:"origin"`
	SourceName    string    `json:"sourceName,omitempty"`
	OutputPath    string    `json:"outputPath,omitempty"`
	Prompt        string    `json:"prompt"`
	Size          string    `json:"size"`
	UsedFallback  bool      `json:"usedFallback"`
	Status        string    `json:"status"`
	Stage         string    `json:"stage"`
	Error         string    `json:"error,omitempty"`
	SourceRemoved bool      `json:"sourceRemoved"`
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt"`
}

// Duration is how long the run took.
func (g *Generation) Duration() time.Duration {
	if g.FinishedAt.Before(g.StartedAt) {
		return 0
	}
	return g.FinishedAt.Sub(g.StartedAt)
}

// GenerationStats summarizes the history table.
type GenerationStats struct {
	Total      int64     `json:"total"`
	Done       int64     `json:"done"`
	Failed     int64     `json:"failed"`
	Fallbacks  int64     `json:"fallbacks"`
	Manual     int64     `json:"manual"`
	Leftovers  int64     `json:"leftovers"`
	LastFinish time.Time `json:"lastFinish,omitempty"`
}
