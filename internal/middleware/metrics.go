package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"shotforge/internal/metrics"
)

// MetricsConfig controls the Prometheus middleware.
type MetricsConfig struct {
	// SkipPaths are path prefixes that are not recorded.
	SkipPaths []string
}

// DefaultMetricsConfig skips the scrape endpoint and probes.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		SkipPaths: []string{"/metrics", "/health", "/healthz", "/livez", "/readyz"},
	}
}

// Metrics records request counts, latency and response size per route.
func Metrics(config MetricsConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hasAnyPrefix(r.URL.Path, config.SkipPaths) {
				next.ServeHTTP(w, r)
				return
			}

			metrics.HTTPRequestsInFlight.Inc()
			defer metrics.HTTPRequestsInFlight.Dec()

			wrapped := newResponseWriter(w)
			start := time.Now()
			next.ServeHTTP(wrapped, r)

			route := normalizePath(r.URL.Path)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			metrics.HTTPResponseSize.WithLabelValues(route).Observe(float64(wrapped.bytesWritten))
		})
	}
}

// nameRoutes take a single {name} segment after the prefix.
var nameRoutes = []string{"/api/file/", "/api/thumbnail/", "/api/image-info/"}

// fixedRoutes are recorded as is.
var fixedRoutes = map[string]bool{
	"/version": true,
}

// normalizePath maps request paths onto a bounded label set. Paths outside
// the API collapse to "other" so scanners cannot grow the series count.
func normalizePath(path string) string {
	for _, prefix := range nameRoutes {
		if strings.HasPrefix(path, prefix) {
			return prefix + "{name}"
		}
	}

	if fixedRoutes[path] {
		return path
	}
	if !strings.HasPrefix(path, "/api/") {
		return "other"
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) > 3 {
		return "/" + strings.Join(parts[:3], "/") + "/{path}"
	}
	return "/" + strings.Join(parts, "/")
}
