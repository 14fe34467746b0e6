package adaptive

// Signal is the condensed window state the difficulty rules read.
type Signal struct {
	Accuracy        float64
	MeanTimeSeconds float64
	SampleCount     int
}

// rule is one row of the difficulty decision table. Rules are evaluated in
// order and the first match wins, so no response can trigger a double
// adjustment.
type rule struct {
	name    string
	applies func(t Tuning, s Signal) bool
	step    int
}

// difficultyRules implements a one-tier-per-step policy with hysteresis:
// distinct high/low thresholds keep a single noisy response from oscillating
// between adjacent tiers.
var difficultyRules = []rule{
	{
		name: "fast_and_accurate",
		applies: func(t Tuning, s Signal) bool {
			return s.SampleCount > 0 && s.Accuracy >= t.HighAccuracy && s.MeanTimeSeconds < t.FastResponseSeconds
		},
		step: 1,
	},
	{
		name: "accurate",
		applies: func(t Tuning, s Signal) bool {
			return s.SampleCount > 0 && s.Accuracy >= t.HighAccuracy
		},
		step: 1,
	},
	{
		name: "struggling",
		applies: func(t Tuning, s Signal) bool {
			return s.SampleCount > 0 && s.Accuracy <= t.LowAccuracy
		},
		step: -1,
	},
}

// NextDifficulty maps (current difficulty, recent performance) to the next
// tier to probe. A partially filled window is used as-is; an empty window
// matches no rule and holds. The result always saturates at the bounds.
func NextDifficulty(t Tuning, current int, s Signal) int {
	for _, r := range difficultyRules {
		if r.applies(t, s) {
			return t.Clamp(current + r.step)
		}
	}
	return t.Clamp(current)
}
