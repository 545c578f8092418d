// Package postgres stores session snapshots in a single upsert-in-place
// table, optionally sealed with secretbox.
package postgres

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"fleetbot/internal/security/secretbox"
	"fleetbot/internal/session"
)

type Store struct {
	db  *sql.DB
	box *secretbox.Box // nil means snapshots are stored in the clear
}

var _ session.Store = (*Store)(nil)

func NewStore(databaseURL string, box *secretbox.Box) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx,
		`create table if not exists session_snapshots(
			account_id text primary key,
			snapshot   text not null,
			updated_at timestamptz not null default now()
		)`,
	); err != nil {
		return nil, fmt.Errorf("ensure session_snapshots table: %w", err)
	}
	return &Store{db: db, box: box}, nil
}

func (s *Store) Load(ctx context.Context, accountID string) ([]byte, error) {
	var encoded string
	err := s.db.QueryRowContext(ctx,
		`select snapshot from session_snapshots where account_id = $1`,
		accountID,
	).Scan(&encoded)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("load session snapshot %q: %w", accountID, err)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode session snapshot %q: %w", accountID, err)
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
	payload := snapshot
	if s.box != nil {
		sealed, err := s.box.Seal(snapshot)
		if err != nil {
			return fmt.Errorf("seal session snapshot %q: %w", accountID, err)
		}
		payload = sealed
	}
	_, err := s.db.ExecContext(ctx,
		`insert into session_snapshots(account_id, snapshot, updated_at)
		 values ($1, $2, now())
		 on conflict (account_id) do update
		 set snapshot = excluded.snapshot,
		     updated_at = now()`,
		accountID, base64.StdEncoding.EncodeToString(payload),
	)
	if err != nil {
		return fmt.Errorf("save session snapshot %q: %w", accountID, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, accountID string) error {
	if _, err := s.db.ExecContext(ctx,
		`delete from session_snapshots where account_id = $1`,
		accountID,
	); err != nil {
		return fmt.Errorf("delete session snapshot %q: %w", accountID, err)
	}
	return nil
}
