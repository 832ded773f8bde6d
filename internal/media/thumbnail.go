package media

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"shotforge/internal/logging"
	"shotforge/internal/metrics"
	"shotforge/internal/workers"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
)

// DefaultThumbnailSize is the bounding box for dashboard thumbnails.
const DefaultThumbnailSize = 400

// ThumbnailGenerator renders and caches JPEG thumbnails.
type ThumbnailGenerator struct {
	cacheDir string
	enabled  bool
	size     int
	mu       sync.Mutex
}

// NewThumbnailGenerator creates a generator caching into cacheDir. A disabled
// generator returns errors for every request.
func NewThumbnailGenerator(cacheDir string, enabled bool) *ThumbnailGenerator {
	if enabled {
		logging.Debug("ThumbnailGenerator: enabled, cache dir: %s", cacheDir)
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			logging.Warn("ThumbnailGenerator: failed to create cache dir: %v", err)
		}
	} else {
		logging.Debug("ThumbnailGenerator: disabled")
	}
	return &ThumbnailGenerator{
		cacheDir: cacheDir,
		enabled:  enabled,
		size:     DefaultThumbnailSize,
	}
}

func (t *ThumbnailGenerator) IsEnabled() bool {
	return t.enabled
}

// cachePath keys on path, size and mtime so a replaced file gets a fresh
// thumbnail.
func (t *ThumbnailGenerator) cachePath(filePath string, info os.FileInfo) string {
	key := fmt.Sprintf("%s|%d|%d|%d", filePath, info.Size(), info.ModTime().UnixNano(), t.size)
	return filepath.Join(t.cacheDir, fmt.Sprintf("%x.jpg", md5.Sum([]byte(key))))
}

// GetThumbnail returns JPEG thumbnail bytes for filePath.
func (t *ThumbnailGenerator) GetThumbnail(filePath string) ([]byte, error) {
	if !t.enabled {
		return nil, fmt.Errorf("thumbnails disabled")
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("file not accessible: %w", err)
	}

	cachePath := t.cachePath(filePath, info)
	if data, err := os.ReadFile(cachePath); err == nil {
		metrics.ThumbnailCacheHits.Inc()
		return data, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if data, err := os.ReadFile(cachePath); err == nil {
		metrics.ThumbnailCacheHits.Inc()
		return data, nil
	}
	metrics.ThumbnailCacheMisses.Inc()

	start := time.Now()
	data, err := t.render(filePath)
	metrics.ThumbnailGenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ThumbnailGenerationsTotal.WithLabelValues("success").Inc()

	if err := os.WriteFile(cachePath, data, 0o644); err != nil {
		logging.Warn("Failed to cache thumbnail %s: %v", cachePath, err)
	} else {
		logging.Debug("Thumbnail cached: %s", cachePath)
	}

	return data, nil
}

func (t *ThumbnailGenerator) render(filePath string) ([]byte, error) {
	img, err := LoadImageConstrained(filePath, MaxImageDimension, MaxImagePixels)
	if err != nil {
		return nil, fmt.Errorf("thumbnail generation failed: %w", err)
	}

	thumb := imaging.Fit(img, t.size, t.size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// Warm pre-generates thumbnails for paths on a bounded worker pool.
// Individual failures are logged and do not stop the batch; the returned
// count is the number of thumbnails that are available afterwards.
func (t *ThumbnailGenerator) Warm(ctx context.Context, paths []string) (int, error) {
	if !t.enabled || len(paths) == 0 {
		return 0, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers.ForMixed(4))

	var mu sync.Mutex
	ok := 0

	for _, p := range paths {
		p := p
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if _, err := t.GetThumbnail(p); err != nil {
				logging.Debug("Thumbnail warm-up skipped %s: %v", p, err)
				return nil
			}
			mu.Lock()
			ok++
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	return ok, err
}
