// Package media reads and re-encodes screenshot images.
//
// It covers the three image jobs the rest of the program needs: reading
// dimensions from a header without decoding pixels, turning a screenshot
// into a base64 data URL the vision service accepts, and rendering cached
// JPEG thumbnails for the dashboard.
//
// Decoders for JPEG, PNG, GIF, WebP, BMP and TIFF are registered on import.
package media
