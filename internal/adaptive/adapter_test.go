package adaptive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextDifficultyDecisionTable(t *testing.T) {
	tuning := DefaultTuning()

	cases := []struct {
		name    string
		current int
		signal  Signal
		want    int
	}{
		{"fast and accurate raises", 1, Signal{Accuracy: 0.9, MeanTimeSeconds: 10, SampleCount: 3}, 2},
		{"accurate but slow still raises", 1, Signal{Accuracy: 0.9, MeanTimeSeconds: 45, SampleCount: 3}, 2},
		{"accuracy at high threshold raises", 2, Signal{Accuracy: 0.8, MeanTimeSeconds: 30, SampleCount: 3}, 3},
		{"middling accuracy holds", 2, Signal{Accuracy: 0.67, MeanTimeSeconds: 10, SampleCount: 3}, 2},
		{"just above low threshold holds", 2, Signal{Accuracy: 0.5, MeanTimeSeconds: 10, SampleCount: 3}, 2},
		{"accuracy at low threshold lowers", 2, Signal{Accuracy: 0.4, MeanTimeSeconds: 10, SampleCount: 3}, 1},
		{"poor accuracy lowers", 3, Signal{Accuracy: 0.1, MeanTimeSeconds: 60, SampleCount: 3}, 2},
		{"empty window holds", 2, Signal{Accuracy: 0.5, MeanTimeSeconds: 0, SampleCount: 0}, 2},
		{"partial window is used as is", 1, Signal{Accuracy: 1.0, MeanTimeSeconds: 12, SampleCount: 1}, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NextDifficulty(tuning, tc.current, tc.signal))
		})
	}
}

func TestNextDifficultySaturatesAtBounds(t *testing.T) {
	tuning := DefaultTuning()

	raise := Signal{Accuracy: 1.0, MeanTimeSeconds: 5, SampleCount: 3}
	lower := Signal{Accuracy: 0.0, MeanTimeSeconds: 60, SampleCount: 3}

	// Idempotent at the boundary: stepping out saturates.
	assert.Equal(t, tuning.MaxDifficulty, NextDifficulty(tuning, tuning.MaxDifficulty, raise))
	assert.Equal(t, tuning.MinDifficulty, NextDifficulty(tuning, tuning.MinDifficulty, lower))

	// Out-of-range inputs clamp before stepping.
	assert.Equal(t, tuning.MaxDifficulty, NextDifficulty(tuning, tuning.MaxDifficulty+5, raise))
	assert.Equal(t, tuning.MinDifficulty, NextDifficulty(tuning, tuning.MinDifficulty-5, lower))
}

func TestNextDifficultyScenario(t *testing.T) {
	// Reference walk-through: window of 3, tiers 1..3.
	tuning := DefaultTuning()
	w := NewPerformanceWindow(3)

	// Three fast, correct answers at tier 1: raise to 2.
	w.Push(rec("q1", true, 1, 15))
	w.Push(rec("q2", true, 1, 15))
	w.Push(rec("q3", true, 1, 15))
	next := NextDifficulty(tuning, 1, w.Signal())
	assert.Equal(t, 2, next)

	// One miss at tier 2: accuracy 0.67, between thresholds, hold.
	w.Push(rec("q4", false, 2, 25))
	next = NextDifficulty(tuning, next, w.Signal())
	assert.Equal(t, 2, next)

	// Another miss evicts a correct answer: accuracy 0.33, lower to 1.
	w.Push(rec("q5", false, 2, 25))
	next = NextDifficulty(tuning, next, w.Signal())
	assert.Equal(t, 1, next)
}

func TestTuningValidate(t *testing.T) {
	assert.NoError(t, DefaultTuning().Validate())

	bad := DefaultTuning()
	bad.MinDifficulty = 5
	assert.Error(t, bad.Validate(), "min above max")

	bad = DefaultTuning()
	bad.LowAccuracy = 0.9
	assert.Error(t, bad.Validate(), "low threshold above high")

	bad = DefaultTuning()
	bad.HighAccuracy = 1.5
	assert.Error(t, bad.Validate(), "high threshold above 1")

	bad = DefaultTuning()
	bad.FastResponseSeconds = 0
	assert.Error(t, bad.Validate(), "zero fast cutoff")
}
