// Package middleware provides HTTP middleware for the shotforge dashboard.
//
// It includes:
//   - Access logging in W3C extended field order, tagged with an
//     X-Request-ID that handlers can read back with RequestID
//   - Prometheus request metrics with bounded path labels
//   - gzip compression of JSON responses
package middleware
