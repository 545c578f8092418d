// Package file stores session snapshots as one file per account under a
// private directory, optionally sealed with secretbox.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"fleetbot/internal/security/secretbox"
	"fleetbot/internal/session"
)

const (
	dirMode  = 0o700
	fileMode = 0o600
)

type Store struct {
	root string
	box  *secretbox.Box // nil means snapshots are stored in the clear
	mu   sync.RWMutex
}

var _ session.Store = (*Store)(nil)

func NewStore(root string, box *secretbox.Box) *Store {
	return &Store{root: filepath.Clean(root), box: box}
}

func (s *Store) Load(ctx context.Context, accountID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.pathFor(accountID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("read session snapshot %q: %w", accountID, err)
	}
	if s.box == nil {
		return raw, nil
	}
	opened, err := s.box.Open(raw)
	if err != nil {
		return nil, fmt.Errorf("unseal session snapshot %q: %w", accountID, err)
	}
	return opened, nil
}

func (s *Store) Save(ctx context.Context, accountID string, snapshot []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.pathFor(accountID)
	if err != nil {
		return err
	}
	payload := snapshot
	if s.box != nil {
		payload, err = s.box.Seal(snapshot)
		if err != nil {
			return fmt.Errorf("seal session snapshot %q: %w", accountID, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.root, dirMode); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	if err := os.WriteFile(path, payload, fileMode); err != nil {
		return fmt.Errorf("write session snapshot %q: %w", accountID, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, accountID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.pathFor(accountID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete session snapshot %q: %w", accountID, err)
	}
	return nil
}

func (s *Store) pathFor(accountID string) (string, error) {
	cleaned := strings.TrimSpace(accountID)
	if cleaned == "" {
		return "", errors.New("empty account id")
	}
	if strings.ContainsAny(cleaned, `/\`) || cleaned == "." || cleaned == ".." {
		return "", fmt.Errorf("unsafe account id %q", accountID)
	}
	return filepath.Join(s.root, cleaned+".session"), nil
}
