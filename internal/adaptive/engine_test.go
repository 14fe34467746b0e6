package adaptive

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	return e
}

func TestNewEngineRejectsBadConfig(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	cfg := DefaultConfig()
	cfg.WindowSize = 0
	_, err := NewEngine(cfg, rng)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Tuning.MinDifficulty = 4
	_, err = NewEngine(cfg, rng)
	assert.Error(t, err)

	_, err = NewEngine(DefaultConfig(), nil)
	assert.Error(t, err)
}

func TestFreshEngineSummaryIsZero(t *testing.T) {
	e := testEngine(t)

	s := e.Summary()
	assert.Equal(t, 0, s.TotalQuestions)
	assert.Equal(t, 0.0, s.OverallAccuracy)
	assert.Equal(t, 0.0, s.AverageDifficulty)
	assert.Equal(t, 0.0, s.AverageTime)
}

func TestUpdatePerformanceModelRejectsInvalidRecords(t *testing.T) {
	e := testEngine(t)

	assert.Error(t, e.UpdatePerformanceModel(rec("q1", true, 4, 10)), "difficulty above max")
	assert.Error(t, e.UpdatePerformanceModel(rec("q2", true, 0, 10)), "difficulty below min")
	assert.Error(t, e.UpdatePerformanceModel(rec("q3", true, 1, 0)), "non-positive time")
	assert.Error(t, e.UpdatePerformanceModel(rec("", true, 1, 10)), "empty id")

	// Rejected records touch neither window nor aggregate.
	assert.Equal(t, 0, e.Summary().TotalQuestions)
	assert.Empty(t, e.Snapshot().Window)
}

func TestAggregateMonotonicityAndRecount(t *testing.T) {
	e := testEngine(t)

	records := []ResponseRecord{
		rec("q1", true, 1, 20),
		rec("q2", false, 1, 35),
		rec("q3", true, 2, 18),
		rec("q4", true, 2, 22),
		rec("q5", false, 3, 50),
	}

	prevTotal, prevCorrect := 0, 0
	for _, r := range records {
		require.NoError(t, e.UpdatePerformanceModel(r))
		state := e.Snapshot().Aggregate
		assert.GreaterOrEqual(t, state.TotalQuestions, prevTotal)
		assert.GreaterOrEqual(t, state.TotalCorrect, prevCorrect)
		prevTotal, prevCorrect = state.TotalQuestions, state.TotalCorrect
	}

	// Independent recount matches the running sums.
	correct, sumDiff, sumTime := 0, 0, 0.0
	for _, r := range records {
		if r.Correct {
			correct++
		}
		sumDiff += r.Difficulty
		sumTime += r.TimeSeconds
	}

	s := e.Summary()
	assert.Equal(t, len(records), s.TotalQuestions)
	assert.InDelta(t, float64(correct)/float64(len(records)), s.OverallAccuracy, 1e-9)
	assert.InDelta(t, float64(sumDiff)/float64(len(records)), s.AverageDifficulty, 1e-9)
	assert.InDelta(t, sumTime/float64(len(records)), s.AverageTime, 1e-9)
}

func TestSelectNextQuestionAdaptsAndDraws(t *testing.T) {
	e := testEngine(t)
	pool := newStubPool(map[int]int{1: 5, 2: 5, 3: 5})
	ctx := context.Background()

	// Empty window: hold at tier 1.
	item, next, err := e.SelectNextQuestion(ctx, 1, pool)
	require.NoError(t, err)
	assert.Equal(t, 1, next)
	assert.Equal(t, 1, item.Difficulty)

	// Three fast correct answers push the session up a tier.
	for _, id := range []string{"q1", "q2", "q3"} {
		require.NoError(t, e.UpdatePerformanceModel(rec(id, true, 1, 12)))
	}
	item, next, err = e.SelectNextQuestion(ctx, 1, pool)
	require.NoError(t, err)
	assert.Equal(t, 2, next)
	assert.Equal(t, 2, item.Difficulty)
}

func TestSelectNextQuestionExhaustedTier(t *testing.T) {
	e := testEngine(t)
	pool := newStubPool(map[int]int{1: 1, 2: 1}) // nothing at tier 3
	ctx := context.Background()

	// Window full of correct answers at tier 2 forces a raise to 3.
	for _, id := range []string{"q1", "q2", "q3"} {
		require.NoError(t, e.UpdatePerformanceModel(rec(id, true, 2, 10)))
	}

	item, next, err := e.SelectNextQuestion(ctx, 2, pool)
	assert.Nil(t, item)
	assert.Equal(t, 3, next, "difficulty decision is reported even without an item")
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestEngineAtMostOnceAcrossSession(t *testing.T) {
	e := testEngine(t)
	pool := newStubPool(map[int]int{1: 12, 2: 12, 3: 12})
	ctx := context.Background()

	seen := make(map[string]bool)
	current := 1
	for i := 0; i < 12; i++ {
		item, next, err := e.SelectNextQuestion(ctx, current, pool)
		require.NoError(t, err)
		assert.False(t, seen[item.ID], "item %s served twice", item.ID)
		seen[item.ID] = true
		current = next

		// Alternate outcomes so the session wanders between tiers.
		require.NoError(t, e.UpdatePerformanceModel(rec(item.ID, i%2 == 0, next, 15)))
	}
	assert.Len(t, seen, 12)
}

func TestEngineSnapshotRoundTrip(t *testing.T) {
	e := testEngine(t)
	for _, id := range []string{"q1", "q2", "q3", "q4"} {
		require.NoError(t, e.UpdatePerformanceModel(rec(id, id != "q2", 2, 20)))
	}

	restored, err := NewEngineFromState(DefaultConfig(), rand.New(rand.NewSource(1)), e.Snapshot())
	require.NoError(t, err)

	assert.Equal(t, e.Summary(), restored.Summary())
	assert.Equal(t, e.Snapshot().Window, restored.Snapshot().Window)
}
