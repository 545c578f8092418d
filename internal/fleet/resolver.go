package fleet

import (
	"context"
	"fmt"

	"fleetbot/internal/domain"
)

// resolveTarget canonicalizes a user-facing reference and probes that the
// target exists, using exactly one session so validation does not spend
// every account's rate budget. Committing an irreversible action against a
// bad target across N sessions is expensive to undo; this single cheap
// check catches that class of error up front.
func (m *Manager) resolveTarget(ctx context.Context, action domain.Action, ref string) (string, error) {
	probe, ok := m.firstMember()
	if !ok {
		return "", domain.ErrNoActiveSessions
	}

	if action.TargetsUser() {
		userID, err := probe.handle.UserIDFromUsername(ctx, ref)
		if err != nil {
			m.emit(probe.username, domain.ActionResolve, domain.SeverityError,
				fmt.Sprintf("user %q did not resolve: %v", ref, err))
			return "", fmt.Errorf("resolve user %q: %w", ref, err)
		}
		return userID, nil
	}

	mediaID, err := probe.handle.MediaIDFromURL(ctx, ref)
	if err != nil {
		m.emit(probe.username, domain.ActionResolve, domain.SeverityError,
			fmt.Sprintf("content url %q did not resolve: %v", ref, err))
		return "", fmt.Errorf("resolve content url %q: %w", ref, err)
	}
	if err := probe.handle.MediaExists(ctx, mediaID); err != nil {
		m.emit(probe.username, domain.ActionResolve, domain.SeverityError,
			fmt.Sprintf("content %q existence probe failed: %v", mediaID, err))
		return "", fmt.Errorf("probe content %q: %w", mediaID, err)
	}
	return mediaID, nil
}
