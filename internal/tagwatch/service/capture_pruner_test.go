package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sohamk/tagwatch/internal/tagwatch/service"
)

// writeAged creates a file in dir with its mtime pushed back by age.
func writeAged(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	old := time.Now().Add(-age)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
	return path
}

func TestCapturePruner_DisabledWhenRetentionZero(t *testing.T) {
	pruner := service.NewCapturePruner(t.TempDir(), service.PrunerConfig{
		RetentionDays: 0,
		IntervalHours: 1,
	}, silentLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pruner.Start(ctx)
	// Stop should return immediately without error.
	pruner.Stop()
}

func TestCapturePruner_PrunesOldCaptures(t *testing.T) {
	dir := t.TempDir()

	old := writeAged(t, dir, "image_20250101-120000_aabbccdd.jpg", 40*24*time.Hour)
	recent := writeAged(t, dir, "image_20260829-120000_11223344.jpg", 24*time.Hour)
	other := writeAged(t, dir, "notes.txt", 40*24*time.Hour)

	pruner := service.NewCapturePruner(dir, service.PrunerConfig{
		RetentionDays: 30,
		IntervalHours: 1,
	}, silentLogger())

	cutoff := time.Now().UTC().AddDate(0, 0, -30)
	deleted, err := pruner.Prune(cutoff)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 pruned, got %d", deleted)
	}

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("old capture should be gone")
	}
	if _, err := os.Stat(recent); err != nil {
		t.Error("recent capture should survive")
	}
	// Non-capture files are never touched, whatever their age.
	if _, err := os.Stat(other); err != nil {
		t.Error("unrelated file should survive")
	}
}

func TestCapturePruner_StopIsIdempotent(t *testing.T) {
	pruner := service.NewCapturePruner(t.TempDir(), service.PrunerConfig{
		RetentionDays: 30,
		IntervalHours: 1,
	}, silentLogger())

	ctx, cancel := context.WithCancel(context.Background())
	pruner.Start(ctx)

	cancel()
	// Multiple stops should not panic.
	pruner.Stop()
	pruner.Stop()
}
