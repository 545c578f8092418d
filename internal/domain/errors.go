package domain

import "errors"

// Remote failures are classified into a fixed taxonomy. The per-session
// client wraps everything it returns in one of these sentinels; the
// orchestrator only ever branches on the sentinel, never on message text.
var (
	// ErrIncompleteCredential marks an account entry missing its username
	// or password. Fatal for the fleet login sequence.
	ErrIncompleteCredential = errors.New("incomplete credential")

	// ErrInvalidCredential means the remote service rejected the
	// username/password pair.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrVerificationRequired means the service demands an interactive
	// challenge that cannot be completed automatically.
	ErrVerificationRequired = errors.New("verification required")

	// ErrAccountRestricted means the acting account itself has been
	// limited or blocked. During an action it aborts the whole fleet.
	ErrAccountRestricted = errors.New("account restricted")

	// ErrRateLimited means the service signalled throughput abuse.
	ErrRateLimited = errors.New("rate limited")

	// ErrTargetNotFound means the referenced user or content does not
	// exist.
	ErrTargetNotFound = errors.New("target not found")

	// ErrAlreadyInState means the target is already in the desired end
	// state (already following, already liked, ...). Benign.
	ErrAlreadyInState = errors.New("already in desired state")

	// ErrNoActiveSessions means the pool is empty.
	ErrNoActiveSessions = errors.New("no active sessions")

	// ErrBusy means a login sequence or action is already running.
	ErrBusy = errors.New("another operation is in progress")
)

// IsBenign reports whether the error is tolerated during an action: the
// account is already in the state the action would produce.
func IsBenign(err error) bool {
	return errors.Is(err, ErrAlreadyInState)
}

// IsEscalation reports whether the error signals that the acting account is
// being penalised by the service, which mandates an immediate fleet-wide
// abort.
func IsEscalation(err error) bool {
	return errors.Is(err, ErrAccountRestricted) || errors.Is(err, ErrRateLimited)
}
