package file

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fleetbot/internal/security/secretbox"
	"fleetbot/internal/session"
)

func TestSaveLoadDelete(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	ctx := context.Background()

	snapshot := []byte(`{"token":"abc"}`)
	if err := store.Save(ctx, "alpha", snapshot); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx, "alpha")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !bytes.Equal(got, snapshot) {
		t.Fatalf("loaded %q, want %q", got, snapshot)
	}

	if err := store.Delete(ctx, "alpha"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(ctx, "alpha"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestLoadMissingAccount(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	if _, err := store.Load(context.Background(), "ghost"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteMissingIsNoop(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	if err := store.Delete(context.Background(), "ghost"); err != nil {
		t.Fatalf("delete of missing snapshot should be a no-op, got %v", err)
	}
}

func TestRejectsUnsafeAccountIDs(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	for _, id := range []string{"", "..", "a/b", `a\b`} {
		if err := store.Save(context.Background(), id, []byte("x")); err == nil {
			t.Fatalf("expected error for account id %q", id)
		}
	}
}

func TestEncryptedAtRest(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	box, err := secretbox.New(base64.StdEncoding.EncodeToString(key))
	if err != nil {
		t.Fatalf("secretbox: %v", err)
	}
	dir := t.TempDir()
	store := NewStore(dir, box)
	ctx := context.Background()

	snapshot := []byte(`{"token":"super-secret-token"}`)
	if err := store.Save(ctx, "alpha", snapshot); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "alpha.session"))
	if err != nil {
		t.Fatalf("read raw file: %v", err)
	}
	if bytes.Contains(raw, []byte("super-secret-token")) {
		t.Fatalf("snapshot stored in the clear despite encryption key")
	}

	got, err := store.Load(ctx, "alpha")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !bytes.Equal(got, snapshot) {
		t.Fatalf("roundtrip mismatch: %q", got)
	}
}
