package imagegen

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"shotforge/internal/logging"
	"shotforge/internal/metrics"
)

// Download streams url into dest. Bytes land in a hidden temp file next to
// dest and are renamed into place only after a non-empty, complete copy, so
// a failed download never leaves a partial file under dest's name.
func (c *Client) Download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues("download", "error").Inc()
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.APIRequestsTotal.WithLabelValues("download", "error").Inc()
		return readAPIError(resp)
	}

	n, err := writeAtomic(dest, resp.Body)
	metrics.APIRequestDuration.WithLabelValues("download").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues("download", "error").Inc()
		return err
	}

	metrics.APIRequestsTotal.WithLabelValues("download", "success").Inc()
	metrics.DownloadBytesTotal.Add(float64(n))
	logging.Info("Image downloaded: %s (%d bytes)", dest, n)
	return nil
}

func writeAtomic(dest string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		if err := os.Remove(tmpName); err != nil && !os.IsNotExist(err) {
			logging.Warn("Failed to remove partial download %s: %v", tmpName, err)
		}
	}

	n, err := io.Copy(tmp, r)
	if err != nil {
		cleanup()
		return n, fmt.Errorf("write download: %w", err)
	}
	if n == 0 {
		cleanup()
		return 0, ErrEmptyDownload
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return n, fmt.Errorf("close download: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		cleanup()
		return n, fmt.Errorf("move download into place: %w", err)
	}
	return n, nil
}
