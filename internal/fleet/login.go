package fleet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fleetbot/internal/client"
	"fleetbot/internal/domain"
	"fleetbot/internal/session"
)

// LoginFleet authenticates every configured account in order. The fleet is
// all-or-nothing: if any account fails, every session that did succeed is
// logged out again and the fleet stays not ready. Persisted snapshots are
// kept on disk for a later retry.
func (m *Manager) LoginFleet(ctx context.Context) (bool, []domain.LoginOutcome, error) {
	if !m.runMu.TryLock() {
		return false, nil, domain.ErrBusy
	}
	defer m.runMu.Unlock()

	if len(m.accounts) == 0 {
		m.emit(systemAccount, domain.ActionLogin, domain.SeverityError, "no accounts configured")
		return false, nil, errors.New("no accounts configured")
	}

	outcomes := make([]domain.LoginOutcome, 0, len(m.accounts))
	allOK := true
	for i, account := range m.accounts {
		outcome := m.loginAccount(ctx, account)
		outcomes = append(outcomes, outcome)
		if outcome.Status != "success" {
			allOK = false
			continue
		}
		if i < len(m.accounts)-1 {
			m.sleep(m.loginDelay())
		}
	}

	if !allOK {
		m.emit(systemAccount, domain.ActionLogin, domain.SeverityError,
			"fleet login failed: not every account authenticated, logging out the rest")
		m.logoutAll(ctx)
		m.notify(ctx, "fleetbot: fleet login failed, fleet is not ready")
		return false, outcomes, nil
	}

	m.emit(systemAccount, domain.ActionLogin, domain.SeveritySuccess,
		fmt.Sprintf("all %d accounts authenticated", len(m.accounts)))
	return true, outcomes, nil
}

func (m *Manager) loginAccount(ctx context.Context, account domain.Account) domain.LoginOutcome {
	username := account.Username
	if strings.TrimSpace(username) == "" || strings.TrimSpace(account.Password) == "" {
		m.emit(systemAccount, domain.ActionLogin, domain.SeverityError,
			fmt.Sprintf("incomplete credentials for account %q", username))
		return domain.LoginOutcome{
			Username: username,
			Status:   "error",
			Message:  domain.ErrIncompleteCredential.Error(),
		}
	}

	if handle, ok := m.restoreSession(ctx, username); ok {
		m.addSession(username, handle)
		m.pacer.Track(username)
		m.emit(username, domain.ActionLogin, domain.SeveritySuccess, "session restored from snapshot")
		return domain.LoginOutcome{Username: username, Status: "success", Message: "session restored"}
	}

	m.emit(username, domain.ActionLogin, domain.SeverityInfo, "attempting fresh login")
	handle := m.newClient(username)
	if err := handle.Login(ctx, username, account.Password); err != nil {
		message := loginFailureMessage(err)
		m.emit(username, domain.ActionLogin, domain.SeverityError, message)
		return domain.LoginOutcome{Username: username, Status: "error", Message: message}
	}

	if snapshot, err := handle.SessionSnapshot(); err == nil {
		if err := m.snapshots.Save(ctx, username, snapshot); err != nil {
			m.emit(username, domain.ActionLogin, domain.SeverityWarning,
				fmt.Sprintf("session snapshot not persisted: %v", err))
		}
	}

	m.addSession(username, handle)
	m.pacer.Track(username)
	m.emit(username, domain.ActionLogin, domain.SeveritySuccess, "logged in")
	return domain.LoginOutcome{Username: username, Status: "success", Message: "logged in"}
}

// restoreSession tries to bring a persisted snapshot back to life in a
// fresh handle. A snapshot that fails to restore or validate is discarded
// so the next attempt goes straight to credentials.
func (m *Manager) restoreSession(ctx context.Context, username string) (client.Client, bool) {
	snapshot, err := m.snapshots.Load(ctx, username)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			m.emit(username, domain.ActionLogin, domain.SeverityWarning,
				fmt.Sprintf("session snapshot unreadable: %v", err))
		}
		return nil, false
	}

	handle := m.newClient(username)
	if err := handle.RestoreSession(ctx, snapshot); err == nil {
		if err := handle.VerifySession(ctx); err == nil {
			return handle, true
		}
	}

	m.emit(username, domain.ActionLogin, domain.SeverityWarning,
		"stale session snapshot, falling back to fresh login")
	_ = m.snapshots.Delete(ctx, username)
	return nil, false
}

// logoutAll revokes every pooled session. Persisted snapshots are left in
// place: a snapshot that is still valid server-side can be reused on the
// next login sequence.
func (m *Manager) logoutAll(ctx context.Context) {
	for _, mem := range m.members() {
		if err := mem.handle.Logout(ctx); err != nil {
			m.emit(mem.username, domain.ActionLogout, domain.SeverityError,
				fmt.Sprintf("logout failed: %v", err))
		} else {
			m.emit(mem.username, domain.ActionLogout, domain.SeveritySuccess, "logged out")
		}
	}
	m.clearSessions()
	m.pacer.Reset()
}

func (m *Manager) loginDelay() time.Duration {
	min, max := m.cfg.LoginDelayMin, m.cfg.LoginDelayMax
	if max <= min {
		return min
	}
	return min + time.Duration(m.rng.Int63n(int64(max-min)))
}

func loginFailureMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredential):
		return "invalid username or password"
	case errors.Is(err, domain.ErrVerificationRequired):
		return "account requires interactive verification"
	case errors.Is(err, domain.ErrAccountRestricted):
		return "account is blocked or restricted"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate limited, retry later"
	default:
		return fmt.Sprintf("unexpected login failure: %v", err)
	}
}
