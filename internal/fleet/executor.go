package fleet

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"fleetbot/internal/domain"
)

// Follow subscribes every session to the given username.
func (m *Manager) Follow(ctx context.Context, username string) (bool, string) {
	return m.run(ctx, domain.ActionFollow, username, "")
}

// Unfollow unsubscribes every session from the given username.
func (m *Manager) Unfollow(ctx context.Context, username string) (bool, string) {
	return m.run(ctx, domain.ActionUnfollow, username, "")
}

// Like likes the content behind the given URL from every session.
func (m *Manager) Like(ctx context.Context, mediaURL string) (bool, string) {
	return m.run(ctx, domain.ActionLike, mediaURL, "")
}

// Unlike removes every session's like from the content behind the URL.
func (m *Manager) Unlike(ctx context.Context, mediaURL string) (bool, string) {
	return m.run(ctx, domain.ActionUnlike, mediaURL, "")
}

// Comment posts a per-account variation of text under the content behind
// the URL.
func (m *Manager) Comment(ctx context.Context, mediaURL, text string) (bool, string) {
	if strings.TrimSpace(text) == "" {
		m.emit(systemAccount, domain.ActionComment, domain.SeverityError, "comment text must not be empty")
		return false, "comment text must not be empty"
	}
	return m.run(ctx, domain.ActionComment, mediaURL, text)
}

// Save bookmarks the content behind the URL on every session.
func (m *Manager) Save(ctx context.Context, mediaURL string) (bool, string) {
	return m.run(ctx, domain.ActionSave, mediaURL, "")
}

// Unsave removes the bookmark on every session.
func (m *Manager) Unsave(ctx context.Context, mediaURL string) (bool, string) {
	return m.run(ctx, domain.ActionUnsave, mediaURL, "")
}

func (m *Manager) run(ctx context.Context, action domain.Action, ref, payload string) (bool, string) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		m.emit(systemAccount, action, domain.SeverityError, "target reference must not be empty")
		return false, "target reference must not be empty"
	}
	if !m.runMu.TryLock() {
		m.emit(systemAccount, action, domain.SeverityError, "rejected: "+domain.ErrBusy.Error())
		return false, domain.ErrBusy.Error()
	}
	defer m.runMu.Unlock()

	m.emit(systemAccount, action, domain.SeverityInfo, fmt.Sprintf("starting for %s", ref))

	targetID, err := m.resolveTarget(ctx, action, ref)
	if err != nil {
		m.emit(systemAccount, action, domain.SeverityError, "cancelled: "+err.Error())
		return false, err.Error()
	}
	return m.execute(ctx, action, targetID, payload)
}

// execute applies one resolved action to a fixed snapshot of the pool, in
// enumeration order. A benign conflict is tolerated; anything else aborts
// the remaining sessions: once the service starts penalising one account,
// pushing on risks the accounts already processed and leaves the fleet
// half-acted anyway.
func (m *Manager) execute(ctx context.Context, action domain.Action, targetID, payload string) (bool, string) {
	members := m.members()
	if len(members) == 0 {
		m.emit(systemAccount, action, domain.SeverityError, domain.ErrNoActiveSessions.Error())
		return false, domain.ErrNoActiveSessions.Error()
	}

	var texts map[string]string
	if action == domain.ActionComment {
		texts = m.prepareComments(ctx, members, payload)
	}

	for _, mem := range members {
		m.pacer.Pace(mem.username)

		if action.Toggle() && m.alreadyApplied(ctx, mem, action, targetID) {
			m.emit(mem.username, action, domain.SeverityWarning, "already in the desired state, skipping")
			continue
		}

		err := m.apply(ctx, mem, action, targetID, texts[mem.username])
		switch {
		case err == nil:
			m.emit(mem.username, action, domain.SeveritySuccess, fmt.Sprintf("applied to target %s", targetID))
			m.verifyOutcome(ctx, mem, action, targetID)
		case domain.IsBenign(err):
			m.emit(mem.username, action, domain.SeverityWarning, err.Error())
		case domain.IsEscalation(err):
			m.emit(mem.username, action, domain.SeverityError, err.Error())
			message := fmt.Sprintf("aborted: account %s is being penalised by the service", mem.username)
			m.emit(systemAccount, action, domain.SeverityError, message)
			m.notify(ctx, "fleetbot: "+message)
			return false, fmt.Sprintf("account %s: %v", mem.username, err)
		default:
			m.emit(mem.username, action, domain.SeverityError, err.Error())
			m.emit(systemAccount, action, domain.SeverityError,
				fmt.Sprintf("aborted on account %s", mem.username))
			return false, fmt.Sprintf("account %s: %v", mem.username, err)
		}
	}

	m.emit(systemAccount, action, domain.SeveritySuccess, "completed on all accounts")
	return true, "completed on all accounts"
}

func (m *Manager) apply(ctx context.Context, mem member, action domain.Action, targetID, text string) error {
	switch action {
	case domain.ActionFollow:
		return mem.handle.Follow(ctx, targetID)
	case domain.ActionUnfollow:
		return mem.handle.Unfollow(ctx, targetID)
	case domain.ActionLike:
		return mem.handle.Like(ctx, targetID)
	case domain.ActionUnlike:
		return mem.handle.Unlike(ctx, targetID)
	case domain.ActionComment:
		return mem.handle.Comment(ctx, targetID, text)
	case domain.ActionSave:
		return mem.handle.Save(ctx, targetID)
	case domain.ActionUnsave:
		return mem.handle.Unsave(ctx, targetID)
	}
	return fmt.Errorf("unsupported action %s", action)
}

// alreadyApplied pre-checks a toggle's current state where the client
// exposes one. Best effort: a failed check never blocks the action, it
// only loses the chance to skip a redundant call.
func (m *Manager) alreadyApplied(ctx context.Context, mem member, action domain.Action, targetID string) bool {
	switch action {
	case domain.ActionFollow, domain.ActionUnfollow:
		following, err := mem.handle.Following(ctx)
		if err != nil {
			return false
		}
		follows := slices.Contains(following, targetID)
		if action == domain.ActionFollow {
			return follows
		}
		return !follows
	default:
		// No cheap state listing for likes and bookmarks; the mutating
		// call reports the benign conflict instead.
		return false
	}
}

// verifyOutcome re-checks the post-condition where one is observable. The
// result is advisory: it is logged and never flips the action's outcome.
func (m *Manager) verifyOutcome(ctx context.Context, mem member, action domain.Action, targetID string) {
	if action != domain.ActionFollow && action != domain.ActionUnfollow {
		return
	}
	m.sleep(m.cfg.VerifyDelay)

	result := domain.VerificationUnavailable
	if following, err := mem.handle.Following(ctx); err == nil {
		follows := slices.Contains(following, targetID)
		if follows == (action == domain.ActionFollow) {
			result = domain.VerificationConfirmed
		} else {
			result = domain.VerificationUnconfirmed
		}
	}

	severity := domain.SeverityInfo
	if result == domain.VerificationUnconfirmed {
		severity = domain.SeverityWarning
	}
	m.emit(mem.username, domain.ActionVerify, severity,
		fmt.Sprintf("%s post-condition %s for target %s", action, result, targetID))
}

// prepareComments produces one text variation per account before the first
// mutating call, so a rewrite failure can never abort a half-applied fleet
// action.
func (m *Manager) prepareComments(ctx context.Context, members []member, text string) map[string]string {
	texts := make(map[string]string, len(members))
	for _, mem := range members {
		rewritten, err := m.rewriter.Rewrite(ctx, text)
		if err == nil {
			texts[mem.username] = rewritten
			continue
		}
		m.emit(mem.username, domain.ActionComment, domain.SeverityWarning,
			fmt.Sprintf("paraphrase unavailable, decorating original: %v", err))
		decorated, _ := m.fallback.Rewrite(ctx, text)
		texts[mem.username] = decorated
	}
	return texts
}
