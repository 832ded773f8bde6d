// Package sizing maps source image dimensions onto the fixed set of output
// resolutions the image-generation service accepts.
//
// The table is ordered and matching keeps the first entry on ties, so
// square and near-square inputs resolve to 1024x1024:
//
//	size, err := sizing.BestSize(1920, 1080) // 1280x720
//	if err != nil {
//	    size = sizing.Default
//	}
package sizing
