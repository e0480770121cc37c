package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.RefreshInterval = 10 * time.Millisecond
	cfg.HistoryEnabled = true
	cfg.DatabasePath = filepath.Join(t.TempDir(), "history.db")
	cfg.SnapshotDir = filepath.Join(t.TempDir(), "snapshots")

	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		if e.store != nil {
			e.store.Close()
		}
	})
	return e
}

func TestTickPublishesSnapshot(t *testing.T) {
	e := newTestEngine(t)
	if _, ok := e.Snapshot(); ok {
		t.Fatal("expected no snapshot before the first tick")
	}
	e.tick()
	snap, ok := e.Snapshot()
	if !ok {
		t.Fatal("expected a snapshot after tick")
	}
	if len(snap.Processes) == 0 {
		t.Error("expected at least one process (this test itself, if nothing else)")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
