// Package fleet coordinates one action across every managed account's
// session, all-or-nothing: a target is probed before any session commits,
// each per-session call is paced, and the first non-benign failure aborts
// the remaining sessions.
package fleet

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"fleetbot/internal/client"
	"fleetbot/internal/domain"
	"fleetbot/internal/logsink"
	"fleetbot/internal/rewrite"
	"fleetbot/internal/session"
)

// systemAccount tags fleet-level log entries that belong to no single
// account.
const systemAccount = "SYSTEM"

// Pacer spaces remote calls per account. Satisfied by pacing.Governor.
type Pacer interface {
	Track(accountID string)
	Pace(accountID string)
	Forget(accountID string)
	Reset()
}

// Notifier pushes operator alerts. Satisfied by telegram.Notifier.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type Config struct {
	// LoginDelayMin/Max bound the randomized pause between consecutive
	// account logins.
	LoginDelayMin time.Duration
	LoginDelayMax time.Duration
	// VerifyDelay is the pause before an advisory post-condition check.
	VerifyDelay time.Duration
}

type Deps struct {
	Accounts  []domain.Account
	NewClient client.Factory
	Snapshots session.Store
	Pacer     Pacer
	Sink      logsink.Sink
	Rewriter  rewrite.Rewriter
	Notifier  Notifier
}

// Manager owns the session pool and pacing state. One login sequence or
// action runs at a time; status reads never wait on an in-flight run.
type Manager struct {
	cfg       Config
	accounts  []domain.Account
	newClient client.Factory
	snapshots session.Store
	pacer     Pacer
	sink      logsink.Sink
	rewriter  rewrite.Rewriter
	fallback  *rewrite.SuffixDecorator
	notifier  Notifier

	runMu  sync.Mutex // held for the whole of a login sequence or action
	poolMu sync.RWMutex
	pool   map[string]client.Client
	order  []string

	sleep func(time.Duration)
	rng   *rand.Rand
}

func New(cfg Config, deps Deps) *Manager {
	sink := deps.Sink
	if sink == nil {
		sink = logsink.Discard{}
	}
	fallback := rewrite.NewSuffixDecorator()
	rewriter := deps.Rewriter
	if rewriter == nil {
		rewriter = fallback
	}
	return &Manager{
		cfg:       cfg,
		accounts:  deps.Accounts,
		newClient: deps.NewClient,
		snapshots: deps.Snapshots,
		pacer:     deps.Pacer,
		sink:      sink,
		rewriter:  rewriter,
		fallback:  fallback,
		notifier:  deps.Notifier,
		pool:      make(map[string]client.Client),
		sleep:     time.Sleep,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Status reports which configured accounts hold a live session. Safe to
// call while a login or action is in flight.
func (m *Manager) Status() []domain.AccountStatus {
	m.poolMu.RLock()
	defer m.poolMu.RUnlock()

	out := make([]domain.AccountStatus, 0, len(m.accounts))
	for _, account := range m.accounts {
		_, live := m.pool[account.Username]
		out = append(out, domain.AccountStatus{Username: account.Username, Live: live})
	}
	return out
}

// Ready reports whether every configured account holds a live session.
func (m *Manager) Ready() bool {
	m.poolMu.RLock()
	defer m.poolMu.RUnlock()
	return len(m.accounts) > 0 && len(m.pool) == len(m.accounts)
}

// Shutdown waits for any in-flight run and logs every session out.
func (m *Manager) Shutdown(ctx context.Context) {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	m.logoutAll(ctx)
}

type member struct {
	username string
	handle   client.Client
}

// members snapshots the pool in enumeration order. An action iterates this
// snapshot; the pool cannot change underneath it because the run lock is
// held.
func (m *Manager) members() []member {
	m.poolMu.RLock()
	defer m.poolMu.RUnlock()

	out := make([]member, 0, len(m.order))
	for _, username := range m.order {
		if handle, ok := m.pool[username]; ok {
			out = append(out, member{username: username, handle: handle})
		}
	}
	return out
}

func (m *Manager) firstMember() (member, bool) {
	members := m.members()
	if len(members) == 0 {
		return member{}, false
	}
	return members[0], true
}

func (m *Manager) addSession(username string, handle client.Client) {
	m.poolMu.Lock()
	defer m.poolMu.Unlock()
	if _, ok := m.pool[username]; !ok {
		m.order = append(m.order, username)
	}
	m.pool[username] = handle
}

func (m *Manager) clearSessions() {
	m.poolMu.Lock()
	defer m.poolMu.Unlock()
	m.pool = make(map[string]client.Client)
	m.order = nil
}

func (m *Manager) emit(accountID string, action domain.Action, severity domain.Severity, message string) {
	m.sink.Emit(accountID, string(action), severity, message)
}

func (m *Manager) notify(ctx context.Context, text string) {
	if m.notifier == nil {
		return
	}
	_ = m.notifier.Notify(ctx, text)
}
