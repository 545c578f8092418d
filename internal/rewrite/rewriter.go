// Package rewrite diversifies comment text across accounts so the fleet
// does not post N identical strings.
package rewrite

import (
	"context"
	"math/rand"
	"strings"
	"time"
)

// Rewriter produces a variation of the given text. Implementations may
// fail; callers are expected to degrade to the original text.
type Rewriter interface {
	Rewrite(ctx context.Context, text string) (string, error)
}

var defaultSuffixes = []string{"🔥", "👏", "💯", "✨", "🙌", "!!", "🤩"}

// SuffixDecorator is the trivial default: the original text plus one random
// decorative suffix. It never fails.
type SuffixDecorator struct {
	suffixes []string
	rng      *rand.Rand
}

func NewSuffixDecorator() *SuffixDecorator {
	return &SuffixDecorator{
		suffixes: defaultSuffixes,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (d *SuffixDecorator) Rewrite(_ context.Context, text string) (string, error) {
	suffix := d.suffixes[d.rng.Intn(len(d.suffixes))]
	return strings.TrimRight(text, " ") + " " + suffix, nil
}
