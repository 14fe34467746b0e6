package adaptive

import "fmt"

// Tuning holds the configurable constants of the difficulty policy
// (defaults match the reference behavior: tiers 1..3, window of 3).
type Tuning struct {
	MinDifficulty       int     // lowest tier, default: 1
	MaxDifficulty       int     // highest tier, default: 3
	HighAccuracy        float64 // raise difficulty at or above this, default: 0.8
	LowAccuracy         float64 // lower difficulty at or below this, default: 0.4
	FastResponseSeconds float64 // mean time under this counts as fast, default: 20s
}

// DefaultTuning returns production defaults.
func DefaultTuning() Tuning {
	return Tuning{
		MinDifficulty:       1,
		MaxDifficulty:       3,
		HighAccuracy:        0.8,
		LowAccuracy:         0.4,
		FastResponseSeconds: 20,
	}
}

// Validate rejects tuning that cannot drive a session. Called at engine
// construction so bad configuration fails immediately, not on first use.
func (t Tuning) Validate() error {
	if t.MinDifficulty > t.MaxDifficulty {
		return fmt.Errorf("tuning: min difficulty %d above max %d", t.MinDifficulty, t.MaxDifficulty)
	}
	if t.HighAccuracy <= 0 || t.HighAccuracy > 1 {
		return fmt.Errorf("tuning: high accuracy threshold %v outside (0,1]", t.HighAccuracy)
	}
	if t.LowAccuracy < 0 || t.LowAccuracy >= t.HighAccuracy {
		return fmt.Errorf("tuning: low accuracy threshold %v must sit below high threshold %v", t.LowAccuracy, t.HighAccuracy)
	}
	if t.FastResponseSeconds <= 0 {
		return fmt.Errorf("tuning: fast response cutoff %v must be positive", t.FastResponseSeconds)
	}
	return nil
}

// Clamp saturates a difficulty to the configured bounds.
func (t Tuning) Clamp(difficulty int) int {
	if difficulty < t.MinDifficulty {
		return t.MinDifficulty
	}
	if difficulty > t.MaxDifficulty {
		return t.MaxDifficulty
	}
	return difficulty
}
