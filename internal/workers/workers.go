package workers

import (
	"os"
	"runtime"
	"strconv"
)

// OverrideEnv names the environment variable that pins the worker count for
// every pool regardless of workload type.
const OverrideEnv = "SHOTFORGE_WORKERS"

// Count returns the number of workers for a task, scaling GOMAXPROCS by
// multiplier and capping the result at limit (0 means no cap).
//
// GOMAXPROCS follows the container CPU quota, so pools sized here shrink with
// the pod rather than with the host.
func Count(multiplier float64, limit int) int {
	if n, ok := override(); ok {
		return capAt(n, limit)
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if workers < 1 {
		workers = 1
	}
	return capAt(workers, limit)
}

func override() (int, bool) {
	raw := os.Getenv(OverrideEnv)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func capAt(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}

// ForIO sizes pools that mostly wait on disk or network (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// ForMixed sizes pools that read a file, decode it and write a result
// (1.5 per CPU), such as thumbnail warm-up.
func ForMixed(limit int) int {
	return Count(1.5, limit)
}
