package itembank

import (
	"context"
	"fmt"
	"sync"

	"github.com/skandaka/neuravia-adaptive-cognitive-test/internal/adaptive"
)

// Pool is an in-memory item pool for a single session, partitioned by
// difficulty tier. The mutex serializes pick-and-remove so a pool shared by
// accident still never hands out an item twice; the intended use is one pool
// per session.
type Pool struct {
	mu    sync.Mutex
	tiers map[int][]adaptive.Item
}

var _ adaptive.ItemPool = (*Pool)(nil)

// NewPool partitions the given items by difficulty.
func NewPool(items []adaptive.Item) *Pool {
	tiers := make(map[int][]adaptive.Item)
	for _, it := range items {
		tiers[it.Difficulty] = append(tiers[it.Difficulty], it)
	}
	return &Pool{tiers: tiers}
}

// Remaining reports how many items are left at the given difficulty.
func (p *Pool) Remaining(_ context.Context, difficulty int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tiers[difficulty]), nil
}

// Take removes and returns the idx-th remaining item at the given difficulty.
func (p *Pool) Take(_ context.Context, difficulty int, idx int) (*adaptive.Item, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tier := p.tiers[difficulty]
	if idx < 0 || idx >= len(tier) {
		return nil, fmt.Errorf("pool tier %d: index %d out of range (%d remaining)", difficulty, idx, len(tier))
	}
	item := tier[idx]
	p.tiers[difficulty] = append(tier[:idx], tier[idx+1:]...)
	return &item, nil
}

// Size reports the total number of items left across all tiers.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, tier := range p.tiers {
		total += len(tier)
	}
	return total
}
