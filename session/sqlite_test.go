package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newSQLiteTier(t *testing.T, scopeID string) *SQLiteStorage {
	t.Helper()

	storage, err := OpenSQLite(":memory:", scopeID)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func TestSQLiteStorageRoundTrip(t *testing.T) {
	storage := newSQLiteTier(t, "desktop")
	ctx := context.Background()

	if _, err := storage.Read(ctx); !errors.Is(err, ErrNoRecord) {
		t.Fatalf("expected ErrNoRecord on an empty tier, got %v", err)
	}

	if err := storage.Write(ctx, []byte("first")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	// Write is an upsert; a second write replaces, never duplicates.
	if err := storage.Write(ctx, []byte("second")); err != nil {
		t.Fatalf("second Write failed: %v", err)
	}

	got, err := storage.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != "second" {
		t.Fatalf("expected the upserted record, got %q", got)
	}

	if err := storage.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := storage.Read(ctx); !errors.Is(err, ErrNoRecord) {
		t.Fatalf("expected ErrNoRecord after Clear, got %v", err)
	}
	if err := storage.Clear(ctx); err != nil {
		t.Fatalf("clearing an empty tier failed: %v", err)
	}
}

func TestSQLiteStorageSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	ctx := context.Background()

	first, err := OpenSQLite(path, "desktop")
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	if err := first.Write(ctx, []byte("persisted")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second, err := OpenSQLite(path, "desktop")
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer second.Close()

	got, err := second.Read(ctx)
	if err != nil {
		t.Fatalf("Read after reopen failed: %v", err)
	}
	if string(got) != "persisted" {
		t.Fatalf("expected the record to survive reopen, got %q", got)
	}
}

func TestSQLiteStorageScopeIsolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	ctx := context.Background()

	first, err := OpenSQLite(path, "profile-a")
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer first.Close()
	second, err := OpenSQLite(path, "profile-b")
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer second.Close()

	if err := first.Write(ctx, []byte("a")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := second.Read(ctx); !errors.Is(err, ErrNoRecord) {
		t.Fatalf("expected scopes to be isolated, got %v", err)
	}
}

func TestSQLiteStorageWorksAsStoreTier(t *testing.T) {
	storage := newSQLiteTier(t, "desktop")
	ctx := context.Background()

	store := NewStore(nil, storage)
	if err := store.SetAuth(ctx, testIdentity(), "access-1", "refresh-1", true); err != nil {
		t.Fatalf("SetAuth failed: %v", err)
	}

	reader := NewStore(nil, storage)
	snap, err := reader.Hydrate(ctx)
	if err != nil {
		t.Fatalf("Hydrate failed: %v", err)
	}
	if snap.User == nil || snap.User.ID != "u-1001" || snap.Tier != TierDurable {
		t.Fatalf("unexpected hydrated snapshot: %+v", snap)
	}
}
