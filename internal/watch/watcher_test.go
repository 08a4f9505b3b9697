package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewRejectsRelativePath(t *testing.T) {
	if _, err := New(Options{Path: "config.yml"}); err == nil {
		t.Fatalf("expected error for relative path")
	}
}

func TestWatcherReportsOnlyTargetFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "config.yml")

	w, err := New(Options{Path: target, Debounce: 50 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := w.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := w.Start(ctx); err == nil {
		t.Fatalf("second start should fail")
	}

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case ev := <-events:
		t.Fatalf("unexpected event for %s", ev.Path)
	case <-time.After(300 * time.Millisecond):
	}

	// atomic replace: write temp then rename over the target
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, []byte("a: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, target); err != nil {
		t.Fatal(err)
	}
	select {
	case ev := <-events:
		if ev.Path != target {
			t.Fatalf("unexpected path %s", ev.Path)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no event for target file")
	}

	w.Close()
	select {
	case _, ok := <-events:
		for ok {
			_, ok = <-events
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("channel not closed after Close")
	}
}
