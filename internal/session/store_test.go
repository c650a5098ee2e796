package session

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateGet(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, "report.hwp", "HWP", []byte("doc"), []byte(`{"tables":[]}`))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("empty session id")
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Filename != "report.hwp" || got.Format != "HWP" {
		t.Errorf("got %q/%q", got.Filename, got.Format)
	}
	if !bytes.Equal(got.Original, []byte("doc")) {
		t.Errorf("original = %q", got.Original)
	}
}

func TestGetMissing(t *testing.T) {
	store := openStore(t)
	if _, err := store.Get(context.Background(), "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestUpdateTables(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, "a.hwp", "HWP", []byte("doc"), []byte("v1"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.UpdateTables(ctx, sess.ID, []byte("v2")); err != nil {
		t.Fatalf("UpdateTables: %v", err)
	}
	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got.Tables) != "v2" {
		t.Errorf("tables = %q", got.Tables)
	}

	if err := store.UpdateTables(ctx, "no-such-id", []byte("x")); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, "a.hwp", "HWP", nil, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestSweep(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, "a.hwp", "HWP", nil, nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	n, err := store.Sweep(ctx, time.Hour)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 0 {
		t.Errorf("fresh session swept")
	}
	// A zero TTL treats everything older than now as idle.
	time.Sleep(1100 * time.Millisecond)
	n, err = store.Sweep(ctx, 0)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 1 {
		t.Errorf("swept %d sessions, want 1", n)
	}
}
