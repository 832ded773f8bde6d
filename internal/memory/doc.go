// Package memory keeps shotforge inside a container memory limit.
//
// [ConfigureFromEnv] derives GOMEMLIMIT from the container limit exposed
// through the Kubernetes Downward API:
//
//   - GOMEMLIMIT: used as is when set.
//   - MEMORY_LIMIT: container limit in bytes.
//   - MEMORY_RATIO: share of MEMORY_LIMIT given to the Go heap (default 0.85).
//     The remainder covers image decoding buffers and SQLite.
//
// Example deployment snippet:
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//
// A [Monitor] samples heap usage against that limit. Once usage crosses the
// critical mark it reports [Monitor.Paused] until usage falls back below the
// high mark, and the watcher skips scans in between. Downloads and decodes
// for a single screenshot are short lived, so holding back the next file is
// enough to let the collector catch up.
package memory
