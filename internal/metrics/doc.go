// Package metrics provides Prometheus instrumentation for shotforge.
//
// All metrics are prefixed with "shotforge_" and registered on the default
// registry through promauto, so importing the package is enough to export
// them on /metrics.
//
// # Metric Categories
//
// ## HTTP Metrics
//
// Request counts, latency, response sizes and in-flight requests for the
// dashboard API, recorded by the middleware package.
//
// ## Database Metrics
//
// Query counts and latency for the generation history and auth tables.
//
// ## Watcher Metrics
//
// Scans by trigger (backlog, poll, event, manual), notifier events, the size
// of the processed set, deferred (not yet ready) files, and leftover
// screenshots with their forced delete results.
//
// ## Pipeline Metrics
//
// Outcomes by final stage, per-stage latency, fallback prompt usage and
// retries.
//
// ## Remote API Metrics
//
// Requests and latency per client (vision, generation, download), vision
// token usage, and downloaded bytes.
//
// ## Filesystem Metrics
//
// Operation latency and errors per directory, stale handle retries, and
// forced deletes. Recorded through the filesystem.Observer implementation
// returned by NewFilesystemObserver.
//
// ## Memory Metrics
//
// Heap usage against the Go memory limit, whether scans are held back, and
// how many were skipped. Set by the memory package.
//
// # Collector
//
// Collector polls a StatsProvider on an interval and publishes library gauges
// (output images and bytes, pending screenshots, history totals):
//
//	collector := metrics.NewCollector(provider, time.Minute)
//	g.Go(func() error { return collector.Run(ctx) })
package metrics
