package filesystem

import (
	"errors"
	"fmt"
	"os"
	"time"

	"shotforge/internal/logging"
)

// ErrStillPresent is returned when a delete reported success but the file
// is still visible afterwards.
var ErrStillPresent = errors.New("file still present after delete")

// Exists reports whether path can be stat'ed. Errors other than
// not-exist count as present so callers never assume a delete succeeded.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// RemoveVerified deletes path and confirms it is gone. A path that is
// already missing counts as removed.
func RemoveVerified(path string) error {
	start := time.Now()
	volume := resolveVolume(path)

	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		observeOperation(volume, "remove", time.Since(start).Seconds(), err)
		return fmt.Errorf("remove %s: %w", path, err)
	}

	if Exists(path) {
		observeOperation(volume, "remove", time.Since(start).Seconds(), ErrStillPresent)
		return fmt.Errorf("remove %s: %w", path, ErrStillPresent)
	}

	observeOperation(volume, "remove", time.Since(start).Seconds(), nil)
	return nil
}

// ForceRemove makes one platform-specific escalated attempt to delete path
// and reports whether the file is gone afterwards.
func ForceRemove(path string) bool {
	if !Exists(path) {
		return true
	}

	if err := forceRemove(path); err != nil {
		logging.Debug("Forced delete of %s returned: %v", path, err)
	}

	removed := !Exists(path)
	observeForceRemove(resolveVolume(path), removed)
	return removed
}
