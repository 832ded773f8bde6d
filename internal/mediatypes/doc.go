// Package mediatypes provides shared type definitions for image file handling
// across shotforge.
//
// This package exists as a dependency-free foundation that can be imported by
// the filesystem, watcher and handler packages without creating import
// cycles. It contains primitive types, constants, and pure helpers.
//
// # Extension Detection
//
// IsImageFile decides which files in the screenshot directory qualify for
// processing:
//
//	mediatypes.IsImageFile("shot.PNG")       // true
//	mediatypes.IsImageFile(".shot.png.swp")  // false
//	mediatypes.IsImageFile("notes.txt")      // false
//
// GetMimeType and FormatName map extensions onto HTTP content types and the
// short format names used in data URLs.
package mediatypes
