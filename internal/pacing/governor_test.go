package pacing

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances time only when the governor sleeps, so tests run
// without real waiting.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func newTestGovernor(cfg Config) (*Governor, *fakeClock) {
	g := New(cfg)
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	g.now = clock.Now
	g.sleep = clock.Sleep
	g.rng = rand.New(rand.NewSource(42))
	return g, clock
}

func TestPaceEnforcesMinimumSpacing(t *testing.T) {
	cfg := Config{
		MinSpacing:    5 * time.Second,
		JitterMax:     2 * time.Second,
		CooldownEvery: 10,
		CooldownMin:   20 * time.Second,
		CooldownMax:   60 * time.Second,
	}
	g, clock := newTestGovernor(cfg)
	g.Track("alpha")

	var last time.Time
	for i := 0; i < 9; i++ {
		g.Pace("alpha")
		at := clock.now
		if i > 0 {
			gap := at.Sub(last)
			require.GreaterOrEqualf(t, gap, cfg.MinSpacing, "call %d fired %v after previous", i, gap)
		}
		last = at
	}
}

func TestPaceNthCallTriggersCooldown(t *testing.T) {
	cfg := Config{
		MinSpacing:    5 * time.Second,
		JitterMax:     time.Second,
		CooldownEvery: 3,
		CooldownMin:   30 * time.Second,
		CooldownMax:   40 * time.Second,
	}
	g, clock := newTestGovernor(cfg)
	g.Track("alpha")

	for i := 0; i < 2; i++ {
		g.Pace("alpha")
	}
	for _, d := range clock.sleeps {
		assert.Less(t, d, cfg.CooldownMin, "no cooldown expected before the 3rd call")
	}

	before := len(clock.sleeps)
	g.Pace("alpha")
	cooldowns := 0
	for _, d := range clock.sleeps[before:] {
		if d >= cfg.CooldownMin {
			require.LessOrEqual(t, d, cfg.CooldownMax)
			cooldowns++
		}
	}
	require.Equal(t, 1, cooldowns, "3rd call must add exactly one cooldown pause")
}

func TestPaceAccountsAreIndependent(t *testing.T) {
	cfg := Config{MinSpacing: 5 * time.Second, JitterMax: time.Second, CooldownEvery: 10}
	g, clock := newTestGovernor(cfg)
	g.Track("alpha")
	g.Track("bravo")

	g.Pace("alpha")
	slept := len(clock.sleeps)
	g.Pace("bravo")
	// bravo's first pace right after tracking still waits its own floor,
	// not alpha's.
	for _, d := range clock.sleeps[slept:] {
		assert.LessOrEqual(t, d, cfg.MinSpacing+cfg.JitterMax)
	}
}

func TestForgetAndReset(t *testing.T) {
	g, _ := newTestGovernor(Config{MinSpacing: time.Second, CooldownEvery: 10})
	g.Track("alpha")
	g.Forget("alpha")
	g.mu.Lock()
	require.Empty(t, g.states)
	g.mu.Unlock()

	g.Track("alpha")
	g.Track("bravo")
	g.Reset()
	g.mu.Lock()
	require.Empty(t, g.states)
	g.mu.Unlock()
}
