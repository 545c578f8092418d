package secretbox

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func testKey() string {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i + 1)
	}
	return base64.StdEncoding.EncodeToString(key)
}

func TestSealOpenRoundtrip(t *testing.T) {
	box, err := New(testKey())
	if err != nil {
		t.Fatalf("failed to create box: %v", err)
	}
	snapshot := []byte(`{"username":"acct-1","token":"abc"}`)
	sealed, err := box.Seal(snapshot)
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	if bytes.Contains(sealed, []byte("acct-1")) {
		t.Fatalf("sealed payload leaks plaintext")
	}
	opened, err := box.Open(sealed)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if !bytes.Equal(opened, snapshot) {
		t.Fatalf("roundtrip mismatch: %q", opened)
	}
}

func TestNewRejectsBadKeys(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if _, err := New("not-base64!!"); err == nil {
		t.Fatalf("expected error for invalid base64")
	}
	short := base64.StdEncoding.EncodeToString([]byte("short"))
	if _, err := New(short); err == nil {
		t.Fatalf("expected error for short key")
	}
}

func TestOpenRejectsTamperedPayload(t *testing.T) {
	box, err := New(testKey())
	if err != nil {
		t.Fatalf("failed to create box: %v", err)
	}
	sealed, err := box.Seal([]byte("payload"))
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	sealed[len(sealed)-1] ^= 0xff
	if _, err := box.Open(sealed); err == nil {
		t.Fatalf("expected error for tampered payload")
	}
}
