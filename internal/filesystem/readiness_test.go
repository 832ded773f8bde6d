package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func fastChecker() ReadinessChecker {
	return ReadinessChecker{Timeout: 300 * time.Millisecond, Interval: 20 * time.Millisecond}
}

func TestReadinessChecker_StableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(path, []byte("complete image bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !fastChecker().Ready(context.Background(), path) {
		t.Error("Ready() = false for a stable non-empty file")
	}
}

func TestReadinessChecker_EmptyFileNeverReady(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	if fastChecker().Ready(context.Background(), path) {
		t.Fatal("Ready() = true for an empty file")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Ready() should give up near its timeout, took %v", elapsed)
	}
}

func TestReadinessChecker_MissingFile(t *testing.T) {
	if fastChecker().Ready(context.Background(), filepath.Join(t.TempDir(), "nope.png")) {
		t.Error("Ready() = true for a missing file")
	}
}

func TestReadinessChecker_GrowingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	// Keep appending faster than the sample interval for a while, then stop.
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer f.Close()
		for i := 0; i < 20; i++ {
			_, _ = f.Write([]byte("chunk"))
			time.Sleep(5 * time.Millisecond)
		}
	}()

	checker := ReadinessChecker{Timeout: 2 * time.Second, Interval: 30 * time.Millisecond}
	if !checker.Ready(context.Background(), path) {
		t.Fatal("Ready() = false once the writer finished")
	}
	<-done

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 100 {
		t.Errorf("file size = %d, want 100; readiness returned before the writer finished", info.Size())
	}
}

func TestReadinessChecker_WhileWriting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(2 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_, _ = f.Write([]byte("x"))
			case <-stop:
				return
			}
		}
	}()

	if fastChecker().Ready(context.Background(), path) {
		t.Error("Ready() = true for a file that keeps growing")
	}
}

func TestReadinessChecker_ContextCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	checker := ReadinessChecker{Timeout: 10 * time.Second, Interval: 50 * time.Millisecond}
	start := time.Now()
	if checker.Ready(ctx, path) {
		t.Fatal("Ready() = true with a cancelled context")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Ready() ignored cancellation, took %v", elapsed)
	}
}

func TestReadinessChecker_ZeroValueUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !(ReadinessChecker{}).Ready(context.Background(), path) {
		t.Error("zero-value checker should fall back to defaults and succeed")
	}
}

func TestWaitForStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !WaitForStable(context.Background(), path, time.Second, 10*time.Millisecond) {
		t.Error("WaitForStable() = false for a stable file")
	}
}
