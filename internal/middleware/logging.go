package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"shotforge/internal/logging"

	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request ID in both directions.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestID returns the ID the Logger middleware attached to ctx, or "-".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return "-"
}

// responseWriter records status and size for the access log and metrics.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// LoggingConfig controls the access log.
type LoggingConfig struct {
	SkipPaths []string
	// LogFileRequests logs image byte routes (files and thumbnails). The
	// gallery issues one per tile so they are noisy.
	LogFileRequests bool
	LogHealthChecks bool
	// SlowThreshold promotes slower requests to a warning. Zero disables it.
	SlowThreshold time.Duration
	// SlowExempt prefixes are expected to be slow (manual generation waits
	// on the remote model).
	SlowExempt []string
}

// DefaultLoggingConfig returns the access log settings used by the server.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:       []string{"/metrics"},
		LogHealthChecks: true,
		SlowThreshold:   5 * time.Second,
		SlowExempt:      []string{"/api/generate"},
	}
}

var healthCheckPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
}

var fileRoutePrefixes = []string{"/api/file/", "/api/thumbnail/"}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// sanitizeLogField strips control characters so a client cannot forge log lines.
func sanitizeLogField(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r':
			return ' '
		case r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
}

// Logger tags each request with an ID and writes one access line per
// request through the application logger, so lines land in the log file.
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := incomingRequestID(r)
			w.Header().Set(RequestIDHeader, id)
			r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

			if shouldSkip(r.URL.Path, config) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)
			elapsed := time.Since(start)

			line := formatAccessLine(r, wrapped, elapsed)
			if isSlow(r.URL.Path, elapsed, config) {
				logging.Warn("%s slow", line)
				return
			}
			logging.Info("%s", line)
		})
	}
}

// incomingRequestID reuses a sane client-supplied ID or makes a short one.
func incomingRequestID(r *http.Request) string {
	if id := sanitizeLogField(r.Header.Get(RequestIDHeader)); id != "" && len(id) <= 64 && !strings.ContainsAny(id, " \t") {
		return id
	}
	return uuid.NewString()[:8]
}

func isSlow(path string, elapsed time.Duration, config LoggingConfig) bool {
	return config.SlowThreshold > 0 && elapsed >= config.SlowThreshold && !hasAnyPrefix(path, config.SlowExempt)
}

// formatAccessLine renders the W3C extended fields
// c-ip cs-method cs-uri-stem cs-uri-query sc-status sc-bytes time-taken
// cs(Content-Encoding) cs(User-Agent) followed by the request ID.
func formatAccessLine(r *http.Request, rw *responseWriter, duration time.Duration) string {
	return fmt.Sprintf("HTTP %s %s %s %s %d %d %d %s %s %s",
		orDash(sanitizeLogField(clientIP(r))),
		sanitizeLogField(r.Method),
		sanitizeLogField(r.URL.Path),
		orDash(sanitizeLogField(r.URL.RawQuery)),
		rw.statusCode,
		rw.bytesWritten,
		duration.Milliseconds(),
		orDash(rw.Header().Get("Content-Encoding")),
		orDash(escapeW3CField(sanitizeLogField(r.Header.Get("User-Agent")))),
		RequestID(r.Context()),
	)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func shouldSkip(path string, config LoggingConfig) bool {
	switch {
	case hasAnyPrefix(path, config.SkipPaths):
		return true
	case !config.LogHealthChecks && healthCheckPaths[path]:
		return true
	case !config.LogFileRequests && hasAnyPrefix(path, fileRoutePrefixes):
		return true
	}
	return false
}

// clientIP prefers proxy headers, then the connection address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// escapeW3CField quotes a value containing spaces, doubling inner quotes.
func escapeW3CField(s string) string {
	if !strings.ContainsAny(s, " \t\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
