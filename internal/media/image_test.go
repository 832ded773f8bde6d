package media

import (
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"shotforge/internal/filesystem"
)

// createTestImage writes a gradient image so resizes are observable.
func createTestImage(t *testing.T, path string, width, height int, format string) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / width),
				G: uint8((y * 255) / height),
				B: 128,
				A: 255,
			})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test image file: %v", err)
	}
	defer f.Close()

	switch format {
	case "jpeg", "jpg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
	case "png":
		err = png.Encode(f, img)
	default:
		t.Fatalf("Unsupported test image format: %s", format)
	}
	if err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
}

func TestGetImageDimensions(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name   string
		file   string
		width  int
		height int
		format string
	}{
		{"landscape jpeg", "wide.jpg", 192, 108, "jpeg"},
		{"portrait png", "tall.png", 108, 192, "png"},
		{"square png", "square.png", 64, 64, "png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			createTestImage(t, path, tt.width, tt.height, tt.format)

			dims, err := GetImageDimensions(path)
			if err != nil {
				t.Fatalf("GetImageDimensions() error = %v", err)
			}
			if dims.Width != tt.width || dims.Height != tt.height {
				t.Errorf("dimensions = %dx%d, want %dx%d", dims.Width, dims.Height, tt.width, tt.height)
			}
			if dims.Format != tt.format {
				t.Errorf("format = %q, want %q", dims.Format, tt.format)
			}
		})
	}
}

func TestGetImageDimensionsErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := GetImageDimensions(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}

	junk := filepath.Join(dir, "junk.png")
	if err := os.WriteFile(junk, []byte("definitely not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := GetImageDimensions(junk); err == nil {
		t.Error("expected error for undecodable file")
	}
}

func TestConstrain(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		maxDim, maxPx int
		wantW, wantH  int
	}{
		{"within limits", 1920, 1080, 4096, 20_000_000, 1920, 1080},
		{"wide over dimension", 8192, 4096, 4096, 20_000_000, 4096, 2048},
		{"tall over dimension", 1000, 8000, 4096, 20_000_000, 512, 4096},
		{"over pixel budget", 4000, 4000, 4096, 4_000_000, 2000, 2000},
		{"degenerate strip", 100000, 1, 4096, 20_000_000, 4096, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := constrain(tt.width, tt.height, tt.maxDim, tt.maxPx)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("constrain() = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestLoadImageConstrained(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.png")
	createTestImage(t, path, 400, 200, "png")

	img, err := LoadImageConstrained(path, 100, 1_000_000)
	if err != nil {
		t.Fatalf("LoadImageConstrained() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("bounds = %dx%d, want 100x50", b.Dx(), b.Dy())
	}
}

func TestDetectFormat(t *testing.T) {
	dir := t.TempDir()

	jpg := filepath.Join(dir, "a.png") // extension lies on purpose
	createTestImage(t, jpg, 8, 8, "jpeg")
	pngPath := filepath.Join(dir, "b.jpg")
	createTestImage(t, pngPath, 8, 8, "png")
	empty := filepath.Join(dir, "empty.png")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	text := filepath.Join(dir, "c.txt")
	if err := os.WriteFile(text, []byte("hello world, plain text"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		want string
	}{
		{jpg, "jpeg"},
		{pngPath, "png"},
		{empty, "unknown"},
		{text, "unknown"},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.path)
		if err != nil {
			t.Fatalf("DetectFormat(%s) error = %v", tt.path, err)
		}
		if got != tt.want {
			t.Errorf("DetectFormat(%s) = %q, want %q", filepath.Base(tt.path), got, tt.want)
		}
	}
}

func TestSniff(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"GIF89a", "gif"},
		{"RIFF\x00\x00\x00\x00WEBP", "webp"},
		{"BM\x00\x00", "bmp"},
		{"II*\x00", "tiff"},
		{"MM\x00*", "tiff"},
		{"", "unknown"},
	}
	for _, tt := range tests {
		if got := sniff([]byte(tt.header)); got != tt.want {
			t.Errorf("sniff(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestExtensionForFormat(t *testing.T) {
	tests := map[string]string{
		"jpeg":    ".jpg",
		"png":     ".png",
		"webp":    ".webp",
		"unknown": ".png",
	}
	for format, want := range tests {
		if got := ExtensionForFormat(format); got != want {
			t.Errorf("ExtensionForFormat(%q) = %q, want %q", format, got, want)
		}
	}
}

type openRecorder struct {
	mu    sync.Mutex
	opens []error
}

func (r *openRecorder) ObserveOperation(_, operation string, _ float64, err error) {
	if operation != "open" {
		return
	}
	r.mu.Lock()
	r.opens = append(r.opens, err)
	r.mu.Unlock()
}

func (r *openRecorder) ObserveRetryAttempt(string, string) {}
func (r *openRecorder) ObserveRetrySuccess(string, string) {}
func (r *openRecorder) ObserveRetryFailure(string, string) {}
func (r *openRecorder) ObserveStaleError(string, string) {}
func (r *openRecorder) ObserveForceRemove(string, bool) {}

func TestOpensGoThroughRetryLayer(t *testing.T) {
	rec := &openRecorder{}
	filesystem.SetObserver(rec)
	t.Cleanup(func() { filesystem.SetObserver(nil) })

	dir := t.TempDir()
	path := filepath.Join(dir, "shot.png")
	createTestImage(t, path, 4, 4, "png")
	missing := filepath.Join(dir, "missing.png")

	if _, err := GetImageDimensions(path); err != nil {
		t.Fatalf("GetImageDimensions() error = %v", err)
	}
	if _, err := DetectFormat(path); err != nil {
		t.Fatalf("DetectFormat() error = %v", err)
	}
	if _, err := GetImageDimensions(missing); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want not-exist", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.opens) != 3 {
		t.Fatalf("observed %d opens, want 3", len(rec.opens))
	}
	if rec.opens[0] != nil || rec.opens[1] != nil || rec.opens[2] == nil {
		t.Errorf("open results = %v", rec.opens)
	}
}
