// Package pacing spaces remote calls per account so consecutive requests
// never look machine-timed: a hard minimum gap, random jitter on top, and a
// long cool-down pause every Nth call.
package pacing

import (
	"math/rand"
	"sync"
	"time"
)

type Config struct {
	// MinSpacing is the floor between two remote calls for one account.
	MinSpacing time.Duration
	// JitterMax bounds the random delay added on top of the floor, and the
	// base wait when the floor has already elapsed.
	JitterMax time.Duration
	// CooldownEvery inserts a long pause after every Nth call per account.
	CooldownEvery int
	// CooldownMin and CooldownMax bound the long pause.
	CooldownMin time.Duration
	CooldownMax time.Duration
}

type accountState struct {
	count int
	last  time.Time
}

type Governor struct {
	cfg Config

	mu     sync.Mutex
	states map[string]*accountState

	now   func() time.Time
	sleep func(time.Duration)
	rng   *rand.Rand
}

func New(cfg Config) *Governor {
	if cfg.CooldownEvery <= 0 {
		cfg.CooldownEvery = 10
	}
	if cfg.CooldownMax < cfg.CooldownMin {
		cfg.CooldownMax = cfg.CooldownMin
	}
	return &Governor{
		cfg:    cfg,
		states: make(map[string]*accountState),
		now:    time.Now,
		sleep:  time.Sleep,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Track starts pacing state for an account, typically at login success.
func (g *Governor) Track(accountID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.states[accountID] = &accountState{last: g.now()}
}

// Forget drops an account's pacing state.
func (g *Governor) Forget(accountID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.states, accountID)
}

// Reset drops all pacing state.
func (g *Governor) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.states = make(map[string]*accountState)
}

// Pace blocks until the account is allowed to issue its next remote call,
// then records the call. Called immediately before every remote action.
func (g *Governor) Pace(accountID string) {
	wait, cooldown := g.plan(accountID)
	if wait > 0 {
		g.sleep(wait)
	}
	if cooldown > 0 {
		g.sleep(cooldown)
	}
}

func (g *Governor) plan(accountID string) (wait, cooldown time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	state, ok := g.states[accountID]
	if !ok {
		state = &accountState{last: g.now()}
		g.states[accountID] = state
	}

	elapsed := g.now().Sub(state.last)
	if elapsed < g.cfg.MinSpacing {
		wait = g.cfg.MinSpacing - elapsed + g.jitter(g.cfg.JitterMax)
	} else {
		wait = g.jitter(g.cfg.JitterMax)
	}

	state.count++
	// The call goes out once the wait has elapsed.
	state.last = g.now().Add(wait)
	if state.count%g.cfg.CooldownEvery == 0 {
		cooldown = g.cfg.CooldownMin + g.jitter(g.cfg.CooldownMax-g.cfg.CooldownMin)
	}
	return wait, cooldown
}

func (g *Governor) jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(g.rng.Int63n(int64(max)))
}
