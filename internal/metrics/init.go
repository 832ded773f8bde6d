package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, trigger := range []string{"backlog", "poll", "event", "manual"} {
		WatcherScansTotal.WithLabelValues(trigger)
	}
	for _, result := range []string{"removed", "failed"} {
		WatcherForcedDeletesTotal.WithLabelValues(result)
	}

	// Stage labels mirror pipeline.Stage.String().
	stages := []string{"detected", "ready", "analyzing", "generating", "downloading", "deleting", "done", "failed"}
	for _, stage := range stages {
		PipelineStageDuration.WithLabelValues(stage)
	}
	PipelineOutcomesTotal.WithLabelValues("done", "done")
	PipelineOutcomesTotal.WithLabelValues("detected", "deferred")
	for _, stage := range []string{"ready", "generating", "downloading", "deleting"} {
		PipelineOutcomesTotal.WithLabelValues(stage, "failed")
	}
	for _, stage := range []string{"generating", "downloading"} {
		PipelineRetriesTotal.WithLabelValues(stage)
	}

	for _, client := range []string{"vision", "generation", "download"} {
		APIRequestDuration.WithLabelValues(client)
		for _, status := range []string{"success", "error"} {
			APIRequestsTotal.WithLabelValues(client, status)
		}
	}
	APITokensTotal.WithLabelValues("prompt")
	APITokensTotal.WithLabelValues("completion")

	volumes := []string{"screenshots", "outputs", "cache", "database", "unknown"}
	for _, vol := range volumes {
		for _, op := range []string{"stat", "readdir", "remove", "readiness"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
		}
		for _, op := range []string{"stat", "open"} {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
		}
		FilesystemForceRemoveTotal.WithLabelValues(vol, "removed")
		FilesystemForceRemoveTotal.WithLabelValues(vol, "failed")
	}

	for _, result := range []string{"success", "error"} {
		ThumbnailGenerationsTotal.WithLabelValues(result)
		UploadsTotal.WithLabelValues(result)
		AuthAttemptsTotal.WithLabelValues(result)
	}
	UploadsTotal.WithLabelValues("rejected")

	for _, kind := range []string{"done", "failed", "manual", "fallback", "leftover"} {
		GenerationsRecorded.WithLabelValues(kind)
	}
}

// SetAppInfo publishes build information as a constant gauge.
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
