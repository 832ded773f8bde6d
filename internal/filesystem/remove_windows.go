//go:build windows

package filesystem

import (
	"os"
	"time"
)

const (
	windowsRemoveAttempts = 5
	windowsRemoveDelay    = 200 * time.Millisecond
)

// forceRemove clears the read-only attribute and retries for a short while.
// Screenshot tools and virus scanners often hold a sharing lock for a moment
// after the file is written.
func forceRemove(path string) error {
	// os.Chmod with a write bit clears FILE_ATTRIBUTE_READONLY on Windows.
	_ = os.Chmod(path, 0o666)

	var err error
	for attempt := 0; attempt < windowsRemoveAttempts; attempt++ {
		err = os.Remove(path)
		if err == nil || os.IsNotExist(err) {
			return nil
		}
		time.Sleep(windowsRemoveDelay)
	}
	return err
}
