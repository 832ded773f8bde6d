//go:build !windows

package filesystem

import (
	"os"
	"path/filepath"
)

// forceRemove grants write permission on the file and its directory, then
// retries the unlink. Unlinking depends on the directory, not the file, so
// the parent is the one that usually matters.
func forceRemove(path string) error {
	dir := filepath.Dir(path)
	if info, err := os.Stat(dir); err == nil && info.Mode().Perm()&0o200 == 0 {
		_ = os.Chmod(dir, info.Mode().Perm()|0o200)
	}
	if info, err := os.Lstat(path); err == nil && info.Mode().Perm()&0o200 == 0 {
		_ = os.Chmod(path, info.Mode().Perm()|0o200)
	}

	return os.Remove(path)
}
