package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"shotforge/internal/mediatypes"
)

// FileEntry describes an image found in a directory listing.
type FileEntry struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// ListImages returns the qualifying image files directly inside dir, sorted
// by name. Subdirectories are not descended into. Entries that disappear
// between the listing and the stat are skipped.
func ListImages(dir string) ([]FileEntry, error) {
	start := time.Now()
	volume := resolveVolume(dir)

	entries, err := os.ReadDir(dir)
	observeOperation(volume, "readdir", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	files := make([]FileEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !mediatypes.IsImageFile(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		files = append(files, FileEntry{
			Path:    filepath.Join(dir, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}
