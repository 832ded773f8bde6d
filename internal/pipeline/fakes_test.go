package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"shotforge/internal/database"
	"shotforge/internal/imagegen"
	"shotforge/internal/sizing"
)

type readyFunc func(ctx context.Context, path string) bool

func (f readyFunc) Ready(ctx context.Context, path string) bool { return f(ctx, path) }

func alwaysReady() ReadinessChecker {
	return readyFunc(func(context.Context, string) bool { return true })
}

type fakeVision struct {
	mu           sync.Mutex
	result       string
	calls        int
	instructions []string
}

func (v *fakeVision) Analyze(_ context.Context, _ string, instruction string) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls++
	v.instructions = append(v.instructions, instruction)
	return v.result
}

type fakeGenerator struct {
	mu sync.Mutex

	// generateErrs are returned by successive Generate calls; nil entries
	// and calls past the end succeed.
	generateErrs []error
	noURL        bool
	downloadErr  error
	payload      []byte

	requests  []imagegen.Request
	downloads []string
}

func (g *fakeGenerator) NewRequest(prompt string, size sizing.SizeSpec) imagegen.Request {
	return imagegen.Request{
		Model:          "test-model",
		Prompt:         prompt,
		ResponseFormat: "url",
		Size:           size.String(),
		GuidanceScale:  2.5,
		Watermark:      true,
		Seed:           -1,
		N:              1,
	}
}

func (g *fakeGenerator) Generate(_ context.Context, req imagegen.Request) (*imagegen.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := len(g.requests)
	g.requests = append(g.requests, req)
	if n < len(g.generateErrs) && g.generateErrs[n] != nil {
		return nil, g.generateErrs[n]
	}
	if g.noURL {
		return &imagegen.Response{}, nil
	}
	return &imagegen.Response{Data: []imagegen.ImageData{{URL: "https://cdn.example/result.png"}}}, nil
}

func (g *fakeGenerator) Download(_ context.Context, _ string, dest string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.downloads = append(g.downloads, dest)
	if g.downloadErr != nil {
		return g.downloadErr
	}
	payload := g.payload
	if payload == nil {
		payload = []byte("generated image bytes")
	}
	return os.WriteFile(dest, payload, 0o644)
}

func (g *fakeGenerator) requestCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []database.Generation
	err     error
}

func (r *fakeRecorder) RecordGeneration(_ context.Context, g *database.Generation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *g)
	return r.err
}

func writeImage(t *testing.T, dir, name string, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, height/2, color.RGBA{G: 180, A: 255})
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if filepath.Ext(name) == ".jpg" {
		err = jpeg.Encode(f, img, nil)
	} else {
		err = png.Encode(f, img)
	}
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func encodePNG(t *testing.T) []byte {
	t.Helper()
	path := writeImage(t, t.TempDir(), "x.png", 4, 4)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func encodeJPEG(t *testing.T) []byte {
	t.Helper()
	path := writeImage(t, t.TempDir(), "x.jpg", 4, 4)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

var fixedNow = time.Date(2026, 4, 2, 9, 30, 15, 0, time.UTC)

type harness struct {
	t              *testing.T
	srcDir, outDir string
	vision         *fakeVision
	gen            *fakeGenerator
	rec            *fakeRecorder
	cfg            Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		srcDir: t.TempDir(),
		outDir: t.TempDir(),
		vision: &fakeVision{result: "A bench under a tree."},
		gen:    &fakeGenerator{},
		rec:    &fakeRecorder{},
	}
	h.cfg = Config{
		Readiness:    alwaysReady(),
		Vision:       h.vision,
		Generator:    h.gen,
		Recorder:     h.rec,
		OutputDir:    h.outDir,
		RetryBackoff: time.Millisecond,
		Now:          func() time.Time { return fixedNow },
	}
	return h
}

func (h *harness) pipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := New(h.cfg)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

var errBoom = errors.New("boom")
