package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no snapshot exists for the account.
var ErrNotFound = errors.New("session snapshot not found")

// Store persists per-account session snapshots: the serialized auth state
// of a client handle. Written after every successful fresh login, read
// before every login attempt. Safe to overwrite in place per account.
type Store interface {
	Load(ctx context.Context, accountID string) ([]byte, error)
	Save(ctx context.Context, accountID string, snapshot []byte) error
	Delete(ctx context.Context, accountID string) error
}
