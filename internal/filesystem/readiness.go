package filesystem

import (
	"context"
	"os"
	"time"

	"shotforge/internal/logging"
)

const (
	// DefaultReadyTimeout bounds how long a single readiness check may wait.
	DefaultReadyTimeout = 5 * time.Second
	// DefaultReadyInterval is the gap between the two size samples.
	DefaultReadyInterval = 100 * time.Millisecond
)

// ReadinessChecker decides whether a file has finished being written. A file
// is ready once it can be opened for reading and two size samples taken
// Interval apart are equal and non-zero.
type ReadinessChecker struct {
	Timeout  time.Duration
	Interval time.Duration
}

// DefaultReadinessChecker returns a checker with a 5s timeout and 100ms interval.
func DefaultReadinessChecker() ReadinessChecker {
	return ReadinessChecker{
		Timeout:  DefaultReadyTimeout,
		Interval: DefaultReadyInterval,
	}
}

// Ready blocks until path is stable, the timeout elapses, or ctx is done.
// Only size stability is checked; content validity is the caller's concern.
func (c ReadinessChecker) Ready(ctx context.Context, path string) bool {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}
	interval := c.Interval
	if interval <= 0 {
		interval = DefaultReadyInterval
	}

	start := time.Now()
	deadline := start.Add(timeout)
	volume := resolveVolume(path)

	for {
		if c.stable(ctx, path, interval) {
			observeOperation(volume, "readiness", time.Since(start).Seconds(), nil)
			return true
		}

		if time.Now().Add(interval).After(deadline) {
			logging.Debug("File %s not ready after %v", path, timeout)
			observeOperation(volume, "readiness", time.Since(start).Seconds(), context.DeadlineExceeded)
			return false
		}

		if !sleepCtx(ctx, interval) {
			observeOperation(volume, "readiness", time.Since(start).Seconds(), ctx.Err())
			return false
		}
	}
}

// stable takes one pair of samples.
func (c ReadinessChecker) stable(ctx context.Context, path string, interval time.Duration) bool {
	f, err := os.Open(path)
	if err != nil {
		// Missing, or still locked by the writer on platforms that lock.
		return false
	}
	info, err := f.Stat()
	_ = f.Close()
	if err != nil {
		return false
	}
	first := info.Size()

	if !sleepCtx(ctx, interval) {
		return false
	}

	info, err = os.Stat(path)
	if err != nil {
		return false
	}

	return first > 0 && info.Size() == first
}

// WaitForStable is shorthand for ReadinessChecker{timeout, interval}.Ready.
func WaitForStable(ctx context.Context, path string, timeout, interval time.Duration) bool {
	return ReadinessChecker{Timeout: timeout, Interval: interval}.Ready(ctx, path)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
