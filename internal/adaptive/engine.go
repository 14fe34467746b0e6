package adaptive

import (
	"context"
	"fmt"
	"math/rand"
)

// Config holds engine construction parameters.
type Config struct {
	WindowSize int // recency window length, default: 3
	Tuning     Tuning
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		WindowSize: 3,
		Tuning:     DefaultTuning(),
	}
}

// State is a serializable snapshot of one engine, used by the session layer
// to persist progress between requests.
type State struct {
	Window    []ResponseRecord `json:"window"`
	Aggregate AggregateState   `json:"aggregate"`
}

// Engine runs the adaptive loop for a single test session: it owns the
// performance window and the session aggregate, adapts difficulty from recent
// performance, and draws items from the pool. One engine per session; calls
// are strictly ordered (UpdatePerformanceModel before the next
// SelectNextQuestion), so the engine itself carries no lock.
type Engine struct {
	cfg      Config
	window   *PerformanceWindow
	agg      *Aggregator
	selector *Selector
}

// NewEngine validates the configuration and builds a fresh engine.
// Invalid window size or difficulty bounds fail here, not on first use.
func NewEngine(cfg Config, rng *rand.Rand) (*Engine, error) {
	if cfg.WindowSize <= 0 {
		return nil, fmt.Errorf("engine config: window size must be positive, got %d", cfg.WindowSize)
	}
	if err := cfg.Tuning.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	if rng == nil {
		return nil, fmt.Errorf("engine config: nil random source")
	}
	return &Engine{
		cfg:      cfg,
		window:   NewPerformanceWindow(cfg.WindowSize),
		agg:      NewAggregatorFromState(AggregateState{}),
		selector: NewSelector(rng),
	}, nil
}

// NewEngineFromState rebuilds an engine from a persisted snapshot. Window
// records beyond the configured size keep only the most recent ones.
func NewEngineFromState(cfg Config, rng *rand.Rand, state State) (*Engine, error) {
	e, err := NewEngine(cfg, rng)
	if err != nil {
		return nil, err
	}
	for _, rec := range state.Window {
		e.window.Push(rec)
	}
	e.agg = NewAggregatorFromState(state.Aggregate)
	return e, nil
}

// SelectNextQuestion adapts difficulty from the recent window and draws one
// item at the new tier, removing it from the pool. When the tier is empty it
// returns (nil, nextDifficulty, ErrNoItems): the difficulty decision stands,
// and the caller chooses whether to relax the constraint or stop.
func (e *Engine) SelectNextQuestion(ctx context.Context, currentDifficulty int, pool ItemPool) (*Item, int, error) {
	next := NextDifficulty(e.cfg.Tuning, e.cfg.Tuning.Clamp(currentDifficulty), e.window.Signal())

	item, err := e.selector.Pick(ctx, pool, next)
	if err != nil {
		return nil, next, err
	}
	return item, next, nil
}

// UpdatePerformanceModel folds one administered item's outcome into both the
// recency window and the session aggregate. Call exactly once per item,
// before the next SelectNextQuestion. Out-of-range records are rejected
// whole: neither the window nor the aggregate sees them.
func (e *Engine) UpdatePerformanceModel(rec ResponseRecord) error {
	if err := rec.Validate(e.cfg.Tuning); err != nil {
		return err
	}
	e.window.Push(rec)
	e.agg.Record(rec)
	return nil
}

// Summary reports whole-session statistics. Safe to call at any point,
// including before the first response.
func (e *Engine) Summary() Summary {
	return e.agg.Summary()
}

// Snapshot captures the engine state for persistence.
func (e *Engine) Snapshot() State {
	return State{
		Window:    e.window.Snapshot(),
		Aggregate: e.agg.State(),
	}
}

// Tuning exposes the validated tuning in effect, for callers that surface
// bounds (e.g. the session API reporting the exhausted tier).
func (e *Engine) Tuning() Tuning {
	return e.cfg.Tuning
}
