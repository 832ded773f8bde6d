package filesystem

// Observer records filesystem operation metrics. Implementations are provided
// by the metrics package to break the import cycle between filesystem and metrics.
type Observer interface {
	// ObserveOperation records duration and error status for a filesystem operation.
	// volume is the resolved directory label (e.g., "screenshots", "outputs").
	// operation is the fs operation type: "stat", "readdir", "remove", "readiness".
	ObserveOperation(volume, operation string, durationSeconds float64, err error)

	// Retry-specific metrics for network filesystem resilience.
	// retryOp is the retry operation: "stat", "open".
	ObserveRetryAttempt(retryOp, volume string)
	ObserveRetrySuccess(retryOp, volume string)
	ObserveRetryFailure(retryOp, volume string)
	ObserveStaleError(retryOp, volume string)

	// ObserveForceRemove records the result of a forced delete.
	ObserveForceRemove(volume string, removed bool)
}

// defaultObserver is the package-level observer set at startup.
// If nil, metric recording is silently skipped (safe for tests).
var defaultObserver Observer

// SetObserver sets the package-level metrics observer.
// Call this once at startup after creating the observer implementation.
func SetObserver(o Observer) {
	defaultObserver = o
}

func observeOperation(volume, operation string, durationSeconds float64, err error) {
	if defaultObserver != nil {
		defaultObserver.ObserveOperation(volume, operation, durationSeconds, err)
	}
}

func observeRetryAttempt(op, volume string) {
	if defaultObserver != nil {
		defaultObserver.ObserveRetryAttempt(op, volume)
	}
}

func observeRetrySuccess(op, volume string) {
	if defaultObserver != nil {
		defaultObserver.ObserveRetrySuccess(op, volume)
	}
}

func observeRetryFailure(op, volume string) {
	if defaultObserver != nil {
		defaultObserver.ObserveRetryFailure(op, volume)
	}
}

func observeStaleError(op, volume string) {
	if defaultObserver != nil {
		defaultObserver.ObserveStaleError(op, volume)
	}
}

func observeForceRemove(volume string, removed bool) {
	if defaultObserver != nil {
		defaultObserver.ObserveForceRemove(volume, removed)
	}
}
