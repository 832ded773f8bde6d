package watcher

import (
	"sort"
	"sync"
	"time"

	"shotforge/internal/pipeline"
)

// Entry is what the watcher remembers about a path it has submitted.
type Entry struct {
	Path          string         `json:"path"`
	Stage         pipeline.Stage `json:"stage"`
	FailedAt      pipeline.Stage `json:"failedAt,omitempty"`
	OutputPath    string         `json:"outputPath,omitempty"`
	SourceRemoved bool           `json:"sourceRemoved"`
	Error         string         `json:"error,omitempty"`
	FinishedAt    time.Time      `json:"finishedAt"`

	forced bool
}

// ProcessedSet records every path that reached a terminal pipeline outcome
// during this run. Entries are never removed, so a path is submitted at most
// once per process lifetime. The set is memory only.
type ProcessedSet struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewProcessedSet returns an empty set.
func NewProcessedSet() *ProcessedSet {
	return &ProcessedSet{entries: make(map[string]*Entry)}
}

// Mark records the outcome for its path. Marking the same path twice keeps
// the first outcome.
func (s *ProcessedSet) Mark(o pipeline.Outcome) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[o.Path]; ok {
		return false
	}

	e := &Entry{
		Path:          o.Path,
		Stage:         o.Stage,
		OutputPath:    o.OutputPath,
		SourceRemoved: o.SourceRemoved,
		FinishedAt:    o.FinishedAt,
	}
	if o.Stage == pipeline.StageFailed {
		e.FailedAt = o.FailedAt
	}
	if o.Err != nil {
		e.Error = o.Err.Error()
	}
	if e.FinishedAt.IsZero() {
		e.FinishedAt = time.Now()
	}
	s.entries[o.Path] = e
	return true
}

// Contains reports whether path has been marked.
func (s *ProcessedSet) Contains(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[path]
	return ok
}

// Lookup returns a copy of the entry for path.
func (s *ProcessedSet) Lookup(path string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[path]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Len returns the number of marked paths.
func (s *ProcessedSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot returns copies of all entries sorted by path.
func (s *ProcessedSet) Snapshot() []Entry {
	s.mu.RLock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// claimForcedDelete reports true the first time it is called for a marked
// path, and false on every later call or for unknown paths.
func (s *ProcessedSet) claimForcedDelete(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[path]
	if !ok || e.forced {
		return false
	}
	e.forced = true
	return true
}

func (s *ProcessedSet) setSourceRemoved(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[path]; ok {
		e.SourceRemoved = true
	}
}
