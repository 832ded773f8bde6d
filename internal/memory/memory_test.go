package memory

import (
	"context"
	"runtime/debug"
	"testing"
	"time"
)

func TestMonitorHysteresis(t *testing.T) {
	m := NewMonitor(Config{LimitBytes: 1000, HighWaterMark: 0.7, CriticalMark: 0.85, CheckInterval: time.Hour})

	steps := []struct {
		alloc      uint64
		wantPaused bool
	}{
		{500, false},
		{800, false},
		{900, true},
		{800, true},
		{700, true},
		{600, false},
		{849, false},
		{850, true},
	}

	for i, s := range steps {
		m.observe(s.alloc)
		if m.Paused() != s.wantPaused {
			t.Errorf("step %d (alloc %d): paused = %v, want %v", i, s.alloc, m.Paused(), s.wantPaused)
		}
	}

	if got := m.Usage(); got != 0.85 {
		t.Errorf("Usage = %v, want 0.85", got)
	}
}

func TestMonitorWithoutLimit(t *testing.T) {
	prev := debug.SetMemoryLimit(-1)
	debug.SetMemoryLimit(1<<63 - 1)
	t.Cleanup(func() { debug.SetMemoryLimit(prev) })

	m := NewMonitor(DefaultConfig())
	if m.Enabled() {
		t.Fatal("monitor should be disabled without a limit")
	}
	m.observe(1 << 40)
	if m.Paused() || m.Usage() != 0 {
		t.Error("disabled monitor must never pause")
	}
	if err := m.Run(context.Background()); err != nil {
		t.Errorf("Run: %v", err)
	}
}

func TestMonitorRunSamples(t *testing.T) {
	m := NewMonitor(Config{LimitBytes: 100, HighWaterMark: 0.5, CriticalMark: 0.9, CheckInterval: time.Millisecond})
	m.readMem = func() uint64 { return 95 }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for !m.Paused() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run: %v", err)
	}
	if !m.Paused() {
		t.Error("monitor should pause on a sample above the critical mark")
	}
}

func TestConfigure(t *testing.T) {
	prev := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(prev) })

	tests := []struct {
		name       string
		env        map[string]string
		wantSource string
		wantLimit  int64
		wantRatio  float64
	}{
		{"nothing set", nil, SourceNone, 0, 0},
		{"invalid limit", map[string]string{"MEMORY_LIMIT": "lots"}, SourceNone, 0, 0},
		{"negative limit", map[string]string{"MEMORY_LIMIT": "-5"}, SourceNone, 0, 0},
		{"default ratio", map[string]string{"MEMORY_LIMIT": "1000000000"}, SourceMemoryLimit, 850000000, 0.85},
		{"custom ratio", map[string]string{"MEMORY_LIMIT": "1000000000", "MEMORY_RATIO": "0.5"}, SourceMemoryLimit, 500000000, 0.5},
		{"ratio out of range", map[string]string{"MEMORY_LIMIT": "1000000000", "MEMORY_RATIO": "1.5"}, SourceMemoryLimit, 850000000, 0.85},
		{"ratio unparsable", map[string]string{"MEMORY_LIMIT": "1000000000", "MEMORY_RATIO": "half"}, SourceMemoryLimit, 850000000, 0.85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := configure(func(k string) string { return tt.env[k] })
			if got.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", got.Source, tt.wantSource)
			}
			if got.GoMemLimit != tt.wantLimit {
				t.Errorf("GoMemLimit = %d, want %d", got.GoMemLimit, tt.wantLimit)
			}
			if got.Ratio != tt.wantRatio {
				t.Errorf("Ratio = %v, want %v", got.Ratio, tt.wantRatio)
			}
			if tt.wantLimit > 0 && debug.SetMemoryLimit(-1) != tt.wantLimit {
				t.Errorf("runtime limit = %d, want %d", debug.SetMemoryLimit(-1), tt.wantLimit)
			}
		})
	}
}

func TestConfigureRespectsGOMEMLIMIT(t *testing.T) {
	prev := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(prev) })
	debug.SetMemoryLimit(256 << 20)

	got := configure(func(k string) string {
		if k == "GOMEMLIMIT" {
			return "256MiB"
		}
		return "999"
	})
	if got.Source != SourceGoMemLimit || !got.Configured || got.GoMemLimit != 256<<20 {
		t.Errorf("unexpected result %+v", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		0:         "0 B",
		1023:      "1023 B",
		1024:      "1.0 KiB",
		1536:      "1.5 KiB",
		512 << 20: "512.0 MiB",
		3 << 30:   "3.0 GiB",
	}
	for in, want := range tests {
		if got := FormatBytes(in); got != want {
			t.Errorf("FormatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
