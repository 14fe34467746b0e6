package adaptive

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
)

// ErrNoItems signals that the pool holds nothing at the requested difficulty.
// This is an expected, recoverable condition: the caller decides whether to
// relax the difficulty constraint or end the session.
var ErrNoItems = errors.New("no items at requested difficulty")

// ItemPool is the reservoir of not-yet-administered items, partitioned by
// difficulty tier. Implementations must keep a stable candidate order between
// Remaining and Take within one selection, and Take must remove the item in
// the same step it returns it so no item is ever handed out twice. Shared
// pools serialize the Remaining+Take pair per selection (the session layer
// holds a lock around the whole select call).
type ItemPool interface {
	// Remaining reports how many items are left at the given difficulty.
	Remaining(ctx context.Context, difficulty int) (int, error)
	// Take removes and returns the idx-th remaining item at the given
	// difficulty, 0 <= idx < Remaining.
	Take(ctx context.Context, difficulty int, idx int) (*Item, error)
}

// Selector draws one item uniformly at random from a pool tier and removes
// it. The random source is injected so tests (and replayable sessions) can
// pin the draw order; uniform selection keeps item ordering unlearnable by
// repeat test-takers.
type Selector struct {
	rng *rand.Rand
}

// NewSelector builds a selector around the given random source.
func NewSelector(rng *rand.Rand) *Selector {
	return &Selector{rng: rng}
}

// Pick returns one item at the target difficulty, removed from the pool.
// Returns ErrNoItems when the tier is empty.
func (s *Selector) Pick(ctx context.Context, pool ItemPool, difficulty int) (*Item, error) {
	n, err := pool.Remaining(ctx, difficulty)
	if err != nil {
		return nil, fmt.Errorf("count pool tier %d: %w", difficulty, err)
	}
	if n == 0 {
		return nil, ErrNoItems
	}
	item, err := pool.Take(ctx, difficulty, s.rng.Intn(n))
	if err != nil {
		return nil, fmt.Errorf("take from pool tier %d: %w", difficulty, err)
	}
	return item, nil
}
