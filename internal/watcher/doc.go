// Package watcher drives the screenshot pipeline from directory changes.
//
// A single loop goroutine enumerates the watched directory and runs every
// image it has not seen before through a Processor, one file at a time.
// Scans happen:
//   - Once at startup, for files that were already present (backlog)
//   - On every poll tick (default 1s)
//   - When fsnotify reports a create, write or rename of an image file
//   - When TriggerScan is called
//
// Notifications only wake the loop early. Polling alone is enough for every
// file to be picked up, so the watcher keeps working when fsnotify cannot be
// set up.
//
// Every path that reaches Done or Failed is recorded in a ProcessedSet and
// is never submitted again during the process lifetime. Files that were not
// ready yet stay unrecorded and are retried on the next pass. After each
// scan, processed files that are still present, whether done or failed, get
// a single forced delete attempt.
package watcher
