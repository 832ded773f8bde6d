/*
Package workers sizes goroutine pools from GOMAXPROCS.

runtime.NumCPU reports the host's CPUs even inside a container limited to a
fraction of them, while GOMAXPROCS tracks the cgroup quota. Pools sized with
this package therefore stay proportional to the CPU actually available.

	// thumbnail warm-up: decode + resize + write
	g.SetLimit(workers.ForMixed(4))

	// header reads across the outputs directory
	g.SetLimit(workers.ForIO(8))

Setting SHOTFORGE_WORKERS to a positive integer pins every pool to that size,
still subject to each caller's limit.
*/
package workers
