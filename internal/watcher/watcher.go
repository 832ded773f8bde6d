package watcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"shotforge/internal/filesystem"
	"shotforge/internal/logging"
	"shotforge/internal/mediatypes"
	"shotforge/internal/metrics"
	"shotforge/internal/pipeline"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is how often the directory is enumerated when no
// notification arrives.
const DefaultPollInterval = time.Second

// Scan triggers, used as metric labels.
const (
	triggerBacklog = "backlog"
	triggerPoll    = "poll"
	triggerEvent   = "event"
	triggerManual  = "manual"
)

var (
	// ErrAlreadyRunning is returned by Start on a watcher that is running.
	ErrAlreadyRunning = errors.New("watcher already running")
	// ErrStopped is returned by Start once Stop has been called.
	ErrStopped = errors.New("watcher stopped")
)

// Processor runs one file through the pipeline.
type Processor interface {
	Process(ctx context.Context, path string) pipeline.Outcome
}

// Options tune a Watcher. Zero values select the defaults.
type Options struct {
	PollInterval time.Duration
	// DisableNotifier skips the fsnotify subscription and relies on polling.
	DisableNotifier bool
	// ForceRemove is used for the leftover pass. Defaults to
	// filesystem.ForceRemove.
	ForceRemove func(path string) bool
	// Hold, when set and true, postpones new files to a later scan.
	Hold func() bool
}

// Watcher polls a directory and feeds every unprocessed image to a
// Processor, one file at a time, on a single goroutine.
type Watcher struct {
	dir          string
	proc         Processor
	pollInterval time.Duration
	forceRemove  func(path string) bool
	hold         func() bool
	useNotifier  bool

	processed *ProcessedSet

	running  atomic.Bool
	started  atomic.Bool
	stopChan chan struct{}
	done     chan struct{}
	hint     chan string
	stopOnce sync.Once
	notifier *fsnotify.Watcher

	mu            sync.Mutex
	startTime     time.Time
	lastScan      time.Time
	current       string
	backlogDone   bool
	notifierError string
	deferred      map[string]int

	scans     atomic.Int64
	leftovers atomic.Int64
}

// New creates a watcher for dir. Start must be called to begin watching.
func New(dir string, proc Processor, opts Options) *Watcher {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.ForceRemove == nil {
		opts.ForceRemove = filesystem.ForceRemove
	}

	return &Watcher{
		dir:          dir,
		proc:         proc,
		pollInterval: opts.PollInterval,
		forceRemove:  opts.ForceRemove,
		hold:         opts.Hold,
		useNotifier:  !opts.DisableNotifier,
		processed:    NewProcessedSet(),
		stopChan:     make(chan struct{}),
		done:         make(chan struct{}),
		hint:         make(chan string, 1),
		deferred:     make(map[string]int),
	}
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Processed exposes the set of paths handled during this run.
func (w *Watcher) Processed() *ProcessedSet {
	return w.processed
}

// Start subscribes to directory notifications and launches the loop. The
// backlog of files already present is processed first.
func (w *Watcher) Start() error {
	select {
	case <-w.stopChan:
		return ErrStopped
	default:
	}
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	w.mu.Lock()
	w.startTime = time.Now()
	w.mu.Unlock()

	if w.useNotifier {
		if err := w.subscribe(); err != nil {
			logging.Warn("Watcher: filesystem notifications unavailable, polling only: %v", err)
			w.mu.Lock()
			w.notifierError = err.Error()
			w.mu.Unlock()
		}
	}

	w.running.Store(true)
	metrics.WatcherRunning.Set(1)
	logging.Info("Watcher: watching %s (poll interval %v)", w.dir, w.pollInterval)

	go w.loop()
	return nil
}

func (w *Watcher) subscribe() error {
	n, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create notifier: %w", err)
	}
	if err := n.Add(w.dir); err != nil {
		_ = n.Close()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.mu.Lock()
	w.notifier = n
	w.mu.Unlock()
	go w.forwardEvents(n)
	return nil
}

// forwardEvents turns notifications into scan hints. It never touches the
// pipeline; the loop goroutine re-enumerates the directory on every hint.
func (w *Watcher) forwardEvents(n *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-n.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !mediatypes.IsImageFile(event.Name) {
				continue
			}
			metrics.WatcherNotifierEventsTotal.WithLabelValues(opName(event.Op)).Inc()
			logging.Debug("Watcher: %s %s", opName(event.Op), filepath.Base(event.Name))
			w.post(triggerEvent)
		case err, ok := <-n.Errors:
			if !ok {
				return
			}
			metrics.WatcherNotifierErrorsTotal.Inc()
			logging.Warn("Watcher: notifier error: %v", err)
		}
	}
}

func opName(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Rename):
		return "rename"
	default:
		return "other"
	}
}

// post queues a scan without blocking. A pending hint already covers any
// number of later ones.
func (w *Watcher) post(trigger string) {
	select {
	case w.hint <- trigger:
	default:
	}
}

// TriggerScan asks the loop to enumerate the directory now rather than at
// the next tick.
func (w *Watcher) TriggerScan() {
	if !w.running.Load() {
		return
	}
	w.post(triggerManual)
}

// Stop halts the loop and waits for the file in flight to finish. Stop is
// safe to call more than once and before Start.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.running.Store(false)
		close(w.stopChan)
		w.mu.Lock()
		n := w.notifier
		w.mu.Unlock()
		if n != nil {
			if err := n.Close(); err != nil {
				logging.Warn("Watcher: failed to close notifier: %v", err)
			}
		}
		if w.started.Load() {
			<-w.done
		}
		metrics.WatcherRunning.Set(0)
		logging.Info("Watcher: stopped")
	})
}

// Done is closed once the loop goroutine has returned.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) loop() {
	defer close(w.done)

	w.scan(triggerBacklog)
	w.mu.Lock()
	w.backlogDone = true
	w.mu.Unlock()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.scan(triggerPoll)
		case trigger := <-w.hint:
			w.scan(trigger)
		}
	}
}

// scan enumerates the directory once, processes every image not yet in the
// processed set, then sweeps leftovers.
func (w *Watcher) scan(trigger string) {
	if !w.running.Load() {
		return
	}

	start := time.Now()
	metrics.WatcherScansTotal.WithLabelValues(trigger).Inc()
	w.scans.Add(1)

	defer func() {
		metrics.WatcherScanDuration.Observe(time.Since(start).Seconds())
		metrics.WatcherLastScanTimestamp.Set(float64(time.Now().Unix()))
		w.mu.Lock()
		w.lastScan = time.Now()
		w.mu.Unlock()
	}()

	files, err := filesystem.ListImages(w.dir)
	if err != nil {
		logging.Error("Watcher: scan failed: %v", err)
		return
	}

	w.pruneDeferred(files)

	var pending []filesystem.FileEntry
	for _, f := range files {
		if !w.processed.Contains(f.Path) {
			pending = append(pending, f)
		}
	}

	if len(pending) > 0 {
		logging.Info("Watcher: %d new image(s) in %s (%s)", len(pending), w.dir, trigger)
	}

	for i, f := range pending {
		if !w.running.Load() {
			logging.Debug("Watcher: stop requested, leaving %d file(s) for next run", len(pending)-i)
			return
		}
		if w.hold != nil && w.hold() {
			metrics.WatcherScansSkippedTotal.Inc()
			logging.Debug("Watcher: holding %d file(s) until memory recovers", len(pending)-i)
			return
		}
		metrics.WatcherFilesDiscovered.Inc()
		w.handle(f.Path)
	}

	if len(pending) > 0 || len(files) > 0 {
		w.sweepLeftovers()
	}
}

// handle runs one file and records the result. Non-terminal outcomes are
// left unmarked so the next pass retries them.
func (w *Watcher) handle(path string) {
	w.setCurrent(path)
	out := w.run(path)
	w.setCurrent("")

	if !out.Terminal() {
		metrics.WatcherNotReadyTotal.Inc()
		w.mu.Lock()
		w.deferred[path]++
		w.mu.Unlock()
		logging.Info("Watcher: %s not ready, will retry", filepath.Base(path))
		return
	}

	w.mu.Lock()
	delete(w.deferred, path)
	w.mu.Unlock()

	w.processed.Mark(out)
	metrics.WatcherProcessedSetSize.Set(float64(w.processed.Len()))
}

// run invokes the processor with a context that is not tied to Stop, so an
// in-flight API call completes. A panic is converted into an outcome that
// failed at the last stage the run entered.
func (w *Watcher) run(path string) (out pipeline.Outcome) {
	stage := pipeline.StageDetected
	ctx := pipeline.WithStageHook(context.Background(), func(s pipeline.Stage) { stage = s })

	defer func() {
		if r := recover(); r != nil {
			metrics.WatcherPanicsTotal.Inc()
			logging.Error("Watcher: panic processing %s in %s: %v\n%s", path, stage, r, debug.Stack())
			out = pipeline.Outcome{
				Path:       path,
				Stage:      pipeline.StageFailed,
				FailedAt:   stage,
				Err:        &pipeline.StageError{Stage: stage, Path: path, Err: fmt.Errorf("panic: %v", r)},
				FinishedAt: time.Now(),
			}
		}
	}()

	return w.proc.Process(ctx, path)
}

// sweepLeftovers finds processed files, done or failed, that are still in
// the watched directory and makes one forced delete attempt per path.
func (w *Watcher) sweepLeftovers() {
	var count int64
	for _, e := range w.processed.Snapshot() {
		if !filesystem.Exists(e.Path) {
			continue
		}

		if !w.processed.claimForcedDelete(e.Path) {
			logging.Debug("Watcher: leftover %s still present", filepath.Base(e.Path))
			count++
			continue
		}

		logging.Warn("Watcher: processed file still present, forcing delete: %s", e.Path)
		if w.forceRemove(e.Path) {
			metrics.WatcherForcedDeletesTotal.WithLabelValues("removed").Inc()
			w.processed.setSourceRemoved(e.Path)
			logging.Info("Watcher: forced delete removed %s", filepath.Base(e.Path))
			continue
		}

		metrics.WatcherForcedDeletesTotal.WithLabelValues("failed").Inc()
		logging.Error("Watcher: forced delete failed, leaving %s in place", e.Path)
		count++
	}

	w.leftovers.Store(count)
	metrics.WatcherLeftovers.Set(float64(count))
}

// pruneDeferred forgets deferred files that are no longer in the directory.
func (w *Watcher) pruneDeferred(files []filesystem.FileEntry) {
	present := make(map[string]struct{}, len(files))
	for _, f := range files {
		present[f.Path] = struct{}{}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for path := range w.deferred {
		if _, ok := present[path]; !ok {
			delete(w.deferred, path)
		}
	}
}

func (w *Watcher) setCurrent(path string) {
	w.mu.Lock()
	w.current = path
	w.mu.Unlock()
}

// IsReady reports whether the backlog pass has completed.
func (w *Watcher) IsReady() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.backlogDone
}

// IsRunning reports whether the loop accepts work.
func (w *Watcher) IsRunning() bool {
	return w.running.Load()
}

// HealthStatus contains health check information.
type HealthStatus struct {
	Ready         bool      `json:"ready"`
	Running       bool      `json:"running"`
	Notifier      bool      `json:"notifier"`
	NotifierError string    `json:"notifierError,omitempty"`
	Dir           string    `json:"dir"`
	StartTime     time.Time `json:"startTime"`
	Uptime        string    `json:"uptime"`
	LastScan      time.Time `json:"lastScan,omitempty"`
	Scans         int64     `json:"scans"`
	Processing    string    `json:"processing,omitempty"`
	Processed     int       `json:"processed"`
	Deferred      int       `json:"deferred"`
	Leftovers     int64     `json:"leftovers"`
}

// GetHealthStatus returns a snapshot of the watcher state.
func (w *Watcher) GetHealthStatus() HealthStatus {
	w.mu.Lock()
	defer w.mu.Unlock()

	status := HealthStatus{
		Ready:         w.backlogDone,
		Running:       w.running.Load(),
		Notifier:      w.notifier != nil,
		NotifierError: w.notifierError,
		Dir:           w.dir,
		StartTime:     w.startTime,
		LastScan:      w.lastScan,
		Scans:         w.scans.Load(),
		Processed:     w.processed.Len(),
		Deferred:      len(w.deferred),
		Leftovers:     w.leftovers.Load(),
	}
	if !w.startTime.IsZero() {
		status.Uptime = time.Since(w.startTime).Round(time.Second).String()
	}
	if w.current != "" {
		status.Processing = filepath.Base(w.current)
	}
	return status
}

// File states reported by Files.
const (
	FilePending    = "pending"
	FileProcessing = "processing"
	FileDeferred   = "deferred"
	FileFailed     = "failed"
	FileLeftover   = "leftover"
)

// WatchedFile is an image in the watched directory annotated with what the
// watcher knows about it.
type WatchedFile struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"modTime"`
	Status   string    `json:"status"`
	Attempts int       `json:"attempts,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Files lists the images currently in the watched directory.
func (w *Watcher) Files() ([]WatchedFile, error) {
	files, err := filesystem.ListImages(w.dir)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	current := w.current
	deferred := make(map[string]int, len(w.deferred))
	for k, v := range w.deferred {
		deferred[k] = v
	}
	w.mu.Unlock()

	out := make([]WatchedFile, 0, len(files))
	for _, f := range files {
		wf := WatchedFile{Name: f.Name, Size: f.Size, ModTime: f.ModTime, Status: FilePending}

		switch e, ok := w.processed.Lookup(f.Path); {
		case f.Path == current:
			wf.Status = FileProcessing
		case ok && e.Stage == pipeline.StageFailed:
			wf.Status = FileFailed
			wf.Error = e.Error
		case ok:
			wf.Status = FileLeftover
		case deferred[f.Path] > 0:
			wf.Status = FileDeferred
			wf.Attempts = deferred[f.Path]
		}
		out = append(out, wf)
	}
	return out, nil
}
