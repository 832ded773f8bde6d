package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type mockStatsProvider struct {
	mu    sync.Mutex
	stats Stats
	calls int
}

func (m *mockStatsProvider) GetStats(ctx context.Context) Stats {
	if _, ok := ctx.Deadline(); !ok {
		panic("collector must bound provider calls")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.stats
}

func (m *mockStatsProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestCollectorCollect(t *testing.T) {
	provider := &mockStatsProvider{stats: Stats{
		OutputImages:       12,
		OutputBytes:        4096,
		PendingScreenshots: 3,
		GenerationsDone:    10,
		GenerationsFailed:  2,
		Fallbacks:          4,
		LastFinish:         time.Unix(1700000000, 0),
	}}

	c := NewCollector(provider, time.Hour)
	c.collect(context.Background())

	if got := testutil.ToFloat64(OutputImagesTotal); got != 12 {
		t.Errorf("OutputImagesTotal = %v, want 12", got)
	}
	if got := testutil.ToFloat64(OutputBytesTotal); got != 4096 {
		t.Errorf("OutputBytesTotal = %v, want 4096", got)
	}
	if got := testutil.ToFloat64(PendingScreenshots); got != 3 {
		t.Errorf("PendingScreenshots = %v, want 3", got)
	}
	if got := testutil.ToFloat64(GenerationsRecorded.WithLabelValues("failed")); got != 2 {
		t.Errorf("GenerationsRecorded{failed} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(GenerationsRecorded.WithLabelValues("fallback")); got != 4 {
		t.Errorf("GenerationsRecorded{fallback} = %v, want 4", got)
	}
	if got := testutil.ToFloat64(LastGenerationTimestamp); got != 1700000000 {
		t.Errorf("LastGenerationTimestamp = %v", got)
	}
}

func TestCollectorNilProvider(t *testing.T) {
	c := NewCollector(nil, time.Hour)
	c.collect(context.Background()) // must not panic
}

func TestCollectorRun(t *testing.T) {
	provider := &mockStatsProvider{}
	c := NewCollector(provider, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for provider.callCount() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if provider.callCount() < 3 {
		t.Fatalf("collector ran %d times, want at least 3", provider.callCount())
	}

	settled := provider.callCount()
	time.Sleep(50 * time.Millisecond)
	if provider.callCount() != settled {
		t.Errorf("collector kept running after cancel: %d -> %d", settled, provider.callCount())
	}
}

func TestFilesystemObserver(t *testing.T) {
	o := NewFilesystemObserver()

	before := testutil.ToFloat64(FilesystemOperationErrors.WithLabelValues("outputs", "remove"))
	o.ObserveOperation("outputs", "remove", 0.01, errors.New("boom"))
	o.ObserveOperation("outputs", "remove", 0.01, nil)
	if got := testutil.ToFloat64(FilesystemOperationErrors.WithLabelValues("outputs", "remove")); got != before+1 {
		t.Errorf("errors = %v, want %v", got, before+1)
	}

	beforeRemoved := testutil.ToFloat64(FilesystemForceRemoveTotal.WithLabelValues("screenshots", "removed"))
	beforeFailed := testutil.ToFloat64(FilesystemForceRemoveTotal.WithLabelValues("screenshots", "failed"))
	o.ObserveForceRemove("screenshots", true)
	o.ObserveForceRemove("screenshots", false)
	o.ObserveForceRemove("screenshots", false)
	if got := testutil.ToFloat64(FilesystemForceRemoveTotal.WithLabelValues("screenshots", "removed")); got != beforeRemoved+1 {
		t.Errorf("removed = %v, want %v", got, beforeRemoved+1)
	}
	if got := testutil.ToFloat64(FilesystemForceRemoveTotal.WithLabelValues("screenshots", "failed")); got != beforeFailed+2 {
		t.Errorf("failed = %v, want %v", got, beforeFailed+2)
	}
}

func TestInitializeMetrics(t *testing.T) {
	InitializeMetrics()

	if n := testutil.CollectAndCount(GenerationsRecorded); n != 5 {
		t.Errorf("GenerationsRecorded series = %d, want 5", n)
	}
	if n := testutil.CollectAndCount(WatcherScansTotal); n != 4 {
		t.Errorf("WatcherScansTotal series = %d, want 4", n)
	}
	if n := testutil.CollectAndCount(APIRequestsTotal); n != 6 {
		t.Errorf("APIRequestsTotal series = %d, want 6", n)
	}
}

func TestSetAppInfo(t *testing.T) {
	SetAppInfo("1.2.3", "abc", "go1.25")
	if got := testutil.ToFloat64(AppInfo.WithLabelValues("1.2.3", "abc", "go1.25")); got != 1 {
		t.Errorf("AppInfo = %v, want 1", got)
	}
}
