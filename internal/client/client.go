// Package client defines the per-session remote capability the
// orchestrator drives. The wire protocol lives behind the Client
// interface; the orchestrator only sees typed errors from
// internal/domain.
package client

import "context"

// Client is one account's handle to the remote service. Every remote call
// blocks and returns an error wrapping one of the domain sentinels when
// the failure is classifiable.
type Client interface {
	// Login authenticates with fresh credentials.
	Login(ctx context.Context, username, password string) error
	// RestoreSession loads previously exported auth material into the
	// handle. It does not validate the session; use VerifySession.
	RestoreSession(ctx context.Context, snapshot []byte) error
	// SessionSnapshot exports the handle's auth material for persistence.
	SessionSnapshot() ([]byte, error)
	// VerifySession performs a lightweight authenticated probe.
	VerifySession(ctx context.Context) error

	UserIDFromUsername(ctx context.Context, username string) (string, error)
	MediaIDFromURL(ctx context.Context, mediaURL string) (string, error)
	MediaExists(ctx context.Context, mediaID string) error

	Follow(ctx context.Context, userID string) error
	Unfollow(ctx context.Context, userID string) error
	Like(ctx context.Context, mediaID string) error
	Unlike(ctx context.Context, mediaID string) error
	Comment(ctx context.Context, mediaID, text string) error
	Save(ctx context.Context, mediaID string) error
	Unsave(ctx context.Context, mediaID string) error

	// Following lists the user IDs this session currently follows. Used
	// for best-effort pre-checks and advisory verification.
	Following(ctx context.Context) ([]string, error)

	Logout(ctx context.Context) error
}

// Factory builds a fresh, unauthenticated handle for one account.
type Factory func(accountID string) Client
