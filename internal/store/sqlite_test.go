package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/LesCam/barstock-sub005/internal/store"
)

func openTestStore(t *testing.T) *store.SQLite {
	t.Helper()
	s, err := store.OpenPath(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLoadReportsAbsentSnapshot(t *testing.T) {
	s := openTestStore(t)

	_, found, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if found {
		t.Fatal("expected no snapshot in a fresh database")
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	payload := []byte(`{"version":1,"entries":[]}`)
	if err := s.Save(ctx, payload); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, found, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !found {
		t.Fatal("expected snapshot after save")
	}
	if string(loaded) != string(payload) {
		t.Fatalf("round trip mismatch: %q", loaded)
	}
}

func TestSaveReplacesPriorSnapshot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, []byte("first")); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if err := s.Save(ctx, []byte("second")); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	loaded, _, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(loaded) != "second" {
		t.Fatalf("expected latest snapshot, got %q", loaded)
	}
}

func TestReopenPreservesSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "queue.db")
	ctx := context.Background()

	s, err := store.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	if err := s.Save(ctx, []byte("persisted")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := store.OpenPath(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	loaded, found, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load after reopen failed: %v", err)
	}
	if !found || string(loaded) != "persisted" {
		t.Fatalf("snapshot lost across reopen: found=%v payload=%q", found, loaded)
	}
}
