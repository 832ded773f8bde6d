package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"shotforge/internal/pipeline"
)

type fakeProcessor struct {
	mu    sync.Mutex
	calls map[string]int
	fn    func(path string, call int) pipeline.Outcome
	ctxFn func(ctx context.Context, path string) pipeline.Outcome
}

func newFakeProcessor(fn func(path string, call int) pipeline.Outcome) *fakeProcessor {
	return &fakeProcessor{calls: make(map[string]int), fn: fn}
}

func (f *fakeProcessor) Process(ctx context.Context, path string) pipeline.Outcome {
	f.mu.Lock()
	f.calls[path]++
	call := f.calls[path]
	f.mu.Unlock()

	if f.ctxFn != nil {
		return f.ctxFn(ctx, path)
	}
	if f.fn != nil {
		return f.fn(path, call)
	}
	return done(path)
}

func (f *fakeProcessor) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

// done removes the source and reports success.
func done(path string) pipeline.Outcome {
	_ = os.Remove(path)
	return pipeline.Outcome{Path: path, Stage: pipeline.StageDone, SourceRemoved: true}
}

func failed(path string) pipeline.Outcome {
	return pipeline.Outcome{
		Path:     path,
		Stage:    pipeline.StageFailed,
		FailedAt: pipeline.StageGenerating,
		Err:      errors.New("generation rejected"),
	}
}

type forceRecorder struct {
	mu     sync.Mutex
	calls  map[string]int
	remove bool
}

func (r *forceRecorder) ForceRemove(path string) bool {
	r.mu.Lock()
	r.calls[path]++
	r.mu.Unlock()
	if r.remove {
		return os.Remove(path) == nil
	}
	return false
}

func (r *forceRecorder) count(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[path]
}

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("image bytes"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func startWatcher(t *testing.T, dir string, proc Processor, opts Options) *Watcher {
	t.Helper()
	if opts.PollInterval == 0 {
		opts.PollInterval = 10 * time.Millisecond
	}
	w := New(dir, proc, opts)
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(w.Stop)
	return w
}

func TestBacklogProcessedOnce(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "a.png"),
		writeFile(t, dir, "b.jpg"),
		writeFile(t, dir, "c.webp"),
	}
	writeFile(t, dir, "notes.txt")

	proc := newFakeProcessor(nil)
	w := startWatcher(t, dir, proc, Options{DisableNotifier: true})

	waitFor(t, "backlog", func() bool { return w.Processed().Len() == 3 })
	time.Sleep(50 * time.Millisecond)

	for _, p := range paths {
		if got := proc.count(p); got != 1 {
			t.Errorf("%s processed %d times, want 1", filepath.Base(p), got)
		}
	}
	if proc.count(filepath.Join(dir, "notes.txt")) != 0 {
		t.Error("non-image file was processed")
	}
	if !w.IsReady() {
		t.Error("IsReady() = false after backlog")
	}
}

func TestPollingFindsNewFilesWithoutNotifier(t *testing.T) {
	dir := t.TempDir()
	proc := newFakeProcessor(nil)
	w := startWatcher(t, dir, proc, Options{DisableNotifier: true})

	waitFor(t, "backlog", w.IsReady)

	path := writeFile(t, dir, "late.png")
	waitFor(t, "late file", func() bool { return w.Processed().Contains(path) })

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("source still present after processing: %v", err)
	}
	if w.GetHealthStatus().Notifier {
		t.Error("Notifier = true with notifier disabled")
	}
}

func TestHoldPostponesFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "held.png")

	var held sync.Mutex
	holding := true
	hold := func() bool {
		held.Lock()
		defer held.Unlock()
		return holding
	}

	proc := newFakeProcessor(nil)
	w := startWatcher(t, dir, proc, Options{DisableNotifier: true, Hold: hold})

	waitFor(t, "backlog", w.IsReady)
	time.Sleep(50 * time.Millisecond)
	if got := proc.count(path); got != 0 {
		t.Fatalf("file processed %d times while held", got)
	}

	held.Lock()
	holding = false
	held.Unlock()

	waitFor(t, "release", func() bool { return w.Processed().Contains(path) })
	if got := proc.count(path); got != 1 {
		t.Errorf("file processed %d times after release, want 1", got)
	}
}

func TestFailureIsolation(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "1.png")
	second := writeFile(t, dir, "2.png")
	third := writeFile(t, dir, "3.png")

	proc := newFakeProcessor(func(path string, _ int) pipeline.Outcome {
		if path == second {
			return failed(path)
		}
		return done(path)
	})
	force := &forceRecorder{calls: make(map[string]int), remove: true}
	w := startWatcher(t, dir, proc, Options{DisableNotifier: true, ForceRemove: force.ForceRemove})

	waitFor(t, "all files", func() bool { return w.Processed().Len() == 3 })

	for _, p := range []string{first, third} {
		e, _ := w.Processed().Lookup(p)
		if e.Stage != pipeline.StageDone {
			t.Errorf("%s stage = %v, want done", filepath.Base(p), e.Stage)
		}
	}

	e, _ := w.Processed().Lookup(second)
	if e.Stage != pipeline.StageFailed || e.FailedAt != pipeline.StageGenerating {
		t.Errorf("second = %+v, want failed at generating", e)
	}
	if e.Error == "" {
		t.Error("failed entry has no error text")
	}

	waitFor(t, "failed source removed", func() bool { return !fileExists(second) })
	time.Sleep(50 * time.Millisecond)
	if got := proc.count(second); got != 1 {
		t.Errorf("failed file processed %d times, want 1", got)
	}
	if got := force.count(second); got != 1 {
		t.Errorf("forced delete on failed source attempted %d times, want 1", got)
	}
}

func TestFailedUndeletableSourceForcedOnce(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.png")

	proc := newFakeProcessor(func(path string, _ int) pipeline.Outcome { return failed(path) })
	force := &forceRecorder{calls: make(map[string]int)}
	w := startWatcher(t, dir, proc, Options{DisableNotifier: true, ForceRemove: force.ForceRemove})

	waitFor(t, "processed", func() bool { return w.Processed().Contains(path) })
	waitFor(t, "several polls", func() bool { return w.GetHealthStatus().Scans >= 5 })

	if got := force.count(path); got != 1 {
		t.Errorf("forced delete attempted %d times, want 1", got)
	}
	if got := proc.count(path); got != 1 {
		t.Errorf("processed %d times, want 1", got)
	}
	if got := w.GetHealthStatus().Leftovers; got != 1 {
		t.Errorf("Leftovers = %d, want 1", got)
	}

	files, err := w.Files()
	if err != nil {
		t.Fatalf("Files() error = %v", err)
	}
	if len(files) != 1 || files[0].Status != FileFailed || files[0].Error == "" {
		t.Errorf("Files() = %+v, want one failed file with its error", files)
	}
}

func TestDoneWithUndeletableSourceIsNotReprocessed(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "stuck.png")

	proc := newFakeProcessor(func(path string, _ int) pipeline.Outcome {
		return pipeline.Outcome{Path: path, Stage: pipeline.StageDone, SourceRemoved: false}
	})
	force := &forceRecorder{calls: make(map[string]int)}
	w := startWatcher(t, dir, proc, Options{DisableNotifier: true, ForceRemove: force.ForceRemove})

	waitFor(t, "processed", func() bool { return w.Processed().Contains(path) })
	waitFor(t, "several polls", func() bool { return w.GetHealthStatus().Scans >= 5 })

	if got := proc.count(path); got != 1 {
		t.Errorf("processed %d times, want 1", got)
	}
	if got := force.count(path); got != 1 {
		t.Errorf("forced delete attempted %d times, want 1", got)
	}
	if got := w.GetHealthStatus().Leftovers; got != 1 {
		t.Errorf("Leftovers = %d, want 1", got)
	}

	files, err := w.Files()
	if err != nil {
		t.Fatalf("Files() error = %v", err)
	}
	if len(files) != 1 || files[0].Status != FileLeftover {
		t.Errorf("Files() = %+v, want one leftover", files)
	}
}

func TestLeftoverForcedDeleteSucceeds(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sticky.png")

	proc := newFakeProcessor(func(path string, _ int) pipeline.Outcome {
		return pipeline.Outcome{Path: path, Stage: pipeline.StageDone}
	})
	force := &forceRecorder{calls: make(map[string]int), remove: true}
	w := startWatcher(t, dir, proc, Options{DisableNotifier: true, ForceRemove: force.ForceRemove})

	waitFor(t, "forced delete", func() bool {
		e, ok := w.Processed().Lookup(path)
		return ok && e.SourceRemoved
	})

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("leftover still present: %v", err)
	}
	if got := force.count(path); got != 1 {
		t.Errorf("forced delete attempted %d times, want 1", got)
	}
}

func TestPanicIsRecoveredAndMarked(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "a.png")
	good := writeFile(t, dir, "b.png")

	proc := newFakeProcessor(nil)
	proc.ctxFn = func(ctx context.Context, path string) pipeline.Outcome {
		if path == bad {
			pipeline.ReportStage(ctx, pipeline.StageReady)
			pipeline.ReportStage(ctx, pipeline.StageAnalyzing)
			panic("decoder exploded")
		}
		return done(path)
	}
	w := startWatcher(t, dir, proc, Options{DisableNotifier: true})

	waitFor(t, "both files", func() bool { return w.Processed().Len() == 2 })

	e, _ := w.Processed().Lookup(bad)
	if e.Stage != pipeline.StageFailed || e.FailedAt != pipeline.StageAnalyzing {
		t.Errorf("panicking file = %+v, want failed at analyzing", e)
	}
	if !strings.Contains(e.Error, "decoder exploded") {
		t.Errorf("Error = %q", e.Error)
	}
	if e, _ := w.Processed().Lookup(good); e.Stage != pipeline.StageDone {
		t.Errorf("next file stage = %v, want done", e.Stage)
	}

	time.Sleep(50 * time.Millisecond)
	if got := proc.count(bad); got != 1 {
		t.Errorf("panicking file processed %d times, want 1", got)
	}
	if !w.IsRunning() {
		t.Error("watcher stopped after a panic")
	}
}

func TestNotReadyIsRetried(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "growing.png")

	proc := newFakeProcessor(func(path string, call int) pipeline.Outcome {
		if call < 3 {
			return pipeline.Outcome{Path: path, Stage: pipeline.StageDetected, Err: pipeline.ErrNotReady}
		}
		return done(path)
	})
	w := startWatcher(t, dir, proc, Options{DisableNotifier: true})

	waitFor(t, "eventual success", func() bool { return w.Processed().Contains(path) })

	if got := proc.count(path); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
	if got := w.GetHealthStatus().Deferred; got != 0 {
		t.Errorf("Deferred = %d, want 0 after success", got)
	}
}

func TestTriggerScan(t *testing.T) {
	dir := t.TempDir()
	proc := newFakeProcessor(nil)
	w := startWatcher(t, dir, proc, Options{DisableNotifier: true, PollInterval: time.Hour})

	waitFor(t, "backlog", w.IsReady)

	path := writeFile(t, dir, "manual.png")
	w.TriggerScan()

	waitFor(t, "manual scan", func() bool { return w.Processed().Contains(path) })
}

func TestNotifierHint(t *testing.T) {
	dir := t.TempDir()
	proc := newFakeProcessor(nil)
	w := startWatcher(t, dir, proc, Options{PollInterval: time.Hour})

	if !w.GetHealthStatus().Notifier {
		t.Skip("filesystem notifications unavailable")
	}
	waitFor(t, "backlog", w.IsReady)

	path := writeFile(t, dir, "event.png")
	waitFor(t, "event scan", func() bool { return w.Processed().Contains(path) })
}

func TestNotifierAndPollingProcessOnce(t *testing.T) {
	dir := t.TempDir()
	proc := newFakeProcessor(func(path string, _ int) pipeline.Outcome {
		return pipeline.Outcome{Path: path, Stage: pipeline.StageDone}
	})
	force := &forceRecorder{calls: make(map[string]int)}
	w := startWatcher(t, dir, proc, Options{PollInterval: 10 * time.Millisecond, ForceRemove: force.ForceRemove})

	if !w.GetHealthStatus().Notifier {
		t.Skip("filesystem notifications unavailable")
	}
	waitFor(t, "backlog", w.IsReady)

	path := writeFile(t, dir, "busy.png")
	waitFor(t, "first run", func() bool { return w.Processed().Contains(path) })

	for i := 0; i < 20; i++ {
		if err := os.WriteFile(path, []byte(strings.Repeat("x", i+1)), 0o644); err != nil {
			t.Fatalf("rewrite: %v", err)
		}
		now := time.Now()
		if err := os.Chtimes(path, now, now); err != nil {
			t.Fatalf("touch: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	scans := w.GetHealthStatus().Scans
	waitFor(t, "more scans", func() bool { return w.GetHealthStatus().Scans >= scans+5 })

	if got := proc.count(path); got != 1 {
		t.Errorf("processed %d times, want 1", got)
	}
	if got := force.count(path); got != 1 {
		t.Errorf("forced delete attempted %d times, want 1", got)
	}
}

func TestStopWaitsForInFlightFile(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "a.png")
	second := writeFile(t, dir, "b.png")

	entered := make(chan struct{})
	release := make(chan struct{})
	proc := newFakeProcessor(func(path string, _ int) pipeline.Outcome {
		if path == first {
			close(entered)
			<-release
		}
		return done(path)
	})

	w := New(dir, proc, Options{DisableNotifier: true, PollInterval: 10 * time.Millisecond})
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	<-entered

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a file was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}

	if !w.Processed().Contains(first) {
		t.Error("in-flight file was not marked")
	}
	if got := proc.count(second); got != 0 {
		t.Errorf("second file processed %d times after Stop, want 0", got)
	}
	if w.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
}

func TestStartErrors(t *testing.T) {
	w := New(t.TempDir(), newFakeProcessor(nil), Options{DisableNotifier: true})
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := w.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() = %v, want ErrAlreadyRunning", err)
	}
	w.Stop()
	w.Stop()
	if err := w.Start(); !errors.Is(err, ErrStopped) {
		t.Errorf("Start() after Stop = %v, want ErrStopped", err)
	}

	unstarted := New(t.TempDir(), newFakeProcessor(nil), Options{})
	unstarted.Stop()
}

func TestFilesStatuses(t *testing.T) {
	dir := t.TempDir()
	failedPath := writeFile(t, dir, "failed.png")
	deferredPath := writeFile(t, dir, "deferred.png")
	writeFile(t, dir, "pending.png")

	proc := newFakeProcessor(func(path string, _ int) pipeline.Outcome {
		if path == deferredPath {
			return pipeline.Outcome{Path: path, Stage: pipeline.StageDetected, Err: pipeline.ErrNotReady}
		}
		return failed(path)
	})
	w := New(dir, proc, Options{DisableNotifier: true})
	w.handle(failedPath)
	w.handle(deferredPath)

	files, err := w.Files()
	if err != nil {
		t.Fatalf("Files() error = %v", err)
	}

	want := map[string]string{
		"deferred.png": FileDeferred,
		"failed.png":   FileFailed,
		"pending.png":  FilePending,
	}
	if len(files) != len(want) {
		t.Fatalf("Files() returned %d entries, want %d", len(files), len(want))
	}
	for _, f := range files {
		if f.Status != want[f.Name] {
			t.Errorf("%s status = %q, want %q", f.Name, f.Status, want[f.Name])
		}
	}
	if got := w.GetHealthStatus().Deferred; got != 1 {
		t.Errorf("Deferred = %d, want 1", got)
	}
}

func TestProcessedSet(t *testing.T) {
	s := NewProcessedSet()

	if !s.Mark(pipeline.Outcome{Path: "/w/a.png", Stage: pipeline.StageDone}) {
		t.Fatal("first Mark() = false")
	}
	if s.Mark(pipeline.Outcome{Path: "/w/a.png", Stage: pipeline.StageFailed}) {
		t.Error("second Mark() = true")
	}
	if e, _ := s.Lookup("/w/a.png"); e.Stage != pipeline.StageDone {
		t.Errorf("stage = %v, want first outcome kept", e.Stage)
	}

	s.Mark(pipeline.Outcome{Path: "/w/b.png", Stage: pipeline.StageFailed})

	if !s.claimForcedDelete("/w/a.png") {
		t.Error("first claim on done path = false")
	}
	if s.claimForcedDelete("/w/a.png") {
		t.Error("second claim on done path = true")
	}
	if !s.claimForcedDelete("/w/b.png") {
		t.Error("first claim on failed path = false")
	}
	if s.claimForcedDelete("/w/b.png") {
		t.Error("second claim on failed path = true")
	}
	if s.claimForcedDelete("/w/missing.png") {
		t.Error("claim on unknown path = true")
	}

	snap := s.Snapshot()
	if len(snap) != 2 || snap[0].Path != "/w/a.png" || snap[1].Path != "/w/b.png" {
		t.Errorf("Snapshot() = %+v", snap)
	}
}
