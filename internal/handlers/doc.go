// Package handlers provides the JSON API of the shotforge dashboard.
//
// It includes handlers for:
//   - The gallery of generated and uploaded images
//   - The watched screenshot directory and manual scans
//   - File serving, thumbnails, image info and uploads
//   - Manual generation from a prompt or preset
//   - Generation history and statistics
//   - Optional password authentication and sessions
//   - Health checks and version information
//
// Every route that takes a {name} resolves it against a single directory
// and rejects names that could escape it.
package handlers
