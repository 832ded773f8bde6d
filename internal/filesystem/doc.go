/*
Package filesystem provides the file operations shotforge's pipeline relies on.

# Readiness

Screenshot tools write files in several steps, so a file that appears in the
watched directory is not necessarily complete. ReadinessChecker opens the
file, samples its size, waits, and samples again:

	checker := filesystem.DefaultReadinessChecker() // 5s timeout, 100ms interval
	if !checker.Ready(ctx, path) {
	    // still being written; try again on the next poll
	}

A file is ready when both samples are equal and non-zero. Readiness does not
mean the content decodes.

# Removal

RemoveVerified deletes a file and confirms with a second stat that it is
really gone. ForceRemove is the escalation path for files that survive a
normal delete:

  - Unix: add write permission to the file and its directory, then unlink
  - Windows: clear the read-only attribute, then retry for up to a second
    while sharing locks are released

# Listing

ListImages returns the qualifying images directly inside a directory, sorted
by name, skipping hidden and temporary files.

# Retry Behavior

StatWithRetry and OpenWithRetry retry stale file handle errors (ESTALE) with
exponential backoff, for watched directories that live on NFS or SMB mounts.
Defaults:
  - MaxRetries: 3 attempts
  - InitialBackoff: 50ms
  - MaxBackoff: 500ms

All other errors fail immediately.

# Metrics

Operations report through the Observer set with SetObserver, labeled by the
directory name resolved by the VolumeResolver ("screenshots", "outputs",
"cache", "database"). With no observer set nothing is recorded.
*/
package filesystem
