package sizing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SizeSpec is an output resolution accepted by the generation service.
type SizeSpec struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ErrInvalidDimensions is returned when an image has a non-positive side.
var ErrInvalidDimensions = errors.New("invalid image dimensions")

// Default is used whenever no better match can be computed.
var Default = SizeSpec{Width: 1024, Height: 1024}

// supported is ordered; the first entry wins ratio ties.
var supported = [...]SizeSpec{
	{1024, 1024},
	{1152, 864},
	{864, 1152},
	{1280, 720},
	{720, 1280},
	{1248, 832},
	{832, 1248},
	{1512, 648},
}

// Supported returns a copy of the size table in match order.
func Supported() []SizeSpec {
	out := make([]SizeSpec, len(supported))
	copy(out, supported[:])
	return out
}

// String renders the size as WIDTHxHEIGHT, the form the API expects.
func (s SizeSpec) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Ratio returns width divided by height.
func (s SizeSpec) Ratio() float64 {
	return float64(s.Width) / float64(s.Height)
}

// IsSupported reports whether s is one of the table entries.
func (s SizeSpec) IsSupported() bool {
	for _, c := range supported {
		if c == s {
			return true
		}
	}
	return false
}

// BestSize returns the table entry whose aspect ratio is closest to
// width/height.
func BestSize(width, height int) (SizeSpec, error) {
	if width <= 0 || height <= 0 {
		return Default, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	ratio := float64(width) / float64(height)
	best := supported[0]
	bestDiff := math.Abs(ratio - best.Ratio())

	for _, candidate := range supported[1:] {
		diff := math.Abs(ratio - candidate.Ratio())
		if diff < bestDiff {
			best = candidate
			bestDiff = diff
		}
	}

	return best, nil
}

// Parse reads a WIDTHxHEIGHT string. It does not check the table.
func Parse(s string) (SizeSpec, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return SizeSpec{}, fmt.Errorf("size %q: expected WIDTHxHEIGHT", s)
	}

	width, err := strconv.Atoi(w)
	if err != nil {
		return SizeSpec{}, fmt.Errorf("size %q: bad width: %w", s, err)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return SizeSpec{}, fmt.Errorf("size %q: bad height: %w", s, err)
	}
	if width <= 0 || height <= 0 {
		return SizeSpec{}, fmt.Errorf("size %q: %w", s, ErrInvalidDimensions)
	}

	return SizeSpec{Width: width, Height: height}, nil
}

// Coerce parses s and returns it when it is a supported size. Anything else
// yields Default and false.
func Coerce(s string) (SizeSpec, bool) {
	size, err := Parse(s)
	if err != nil || !size.IsSupported() {
		return Default, false
	}
	return size, true
}
