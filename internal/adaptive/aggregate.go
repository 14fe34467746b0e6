package adaptive

// AggregateState is the raw running-total state of an Aggregator, exposed so
// the session layer can persist and rehydrate it.
type AggregateState struct {
	TotalQuestions int     `json:"total_questions"`
	TotalCorrect   int     `json:"total_correct"`
	SumDifficulty  int     `json:"sum_difficulty"`
	SumTime        float64 `json:"sum_time"`
}

// Summary is the whole-session report derived from the aggregate.
type Summary struct {
	TotalQuestions    int     `json:"total_questions"`
	OverallAccuracy   float64 `json:"overall_accuracy"`
	AverageDifficulty float64 `json:"average_difficulty"`
	AverageTime       float64 `json:"average_time"`
}

// Aggregator keeps whole-session running totals, independent of the bounded
// recency window. It feeds reporting, never adaptation. Pure accumulation:
// totals only grow, there are no error states.
type Aggregator struct {
	state AggregateState
}

// NewAggregatorFromState rebuilds an aggregator from persisted state.
func NewAggregatorFromState(state AggregateState) *Aggregator {
	return &Aggregator{state: state}
}

// Record folds one response into the running totals.
func (a *Aggregator) Record(rec ResponseRecord) {
	a.state.TotalQuestions++
	if rec.Correct {
		a.state.TotalCorrect++
	}
	a.state.SumDifficulty += rec.Difficulty
	a.state.SumTime += rec.TimeSeconds
}

// State returns the current running totals.
func (a *Aggregator) State() AggregateState {
	return a.state
}

// Summary derives the session report. A fresh session reports all zeros
// rather than dividing by zero.
func (a *Aggregator) Summary() Summary {
	s := Summary{TotalQuestions: a.state.TotalQuestions}
	if a.state.TotalQuestions == 0 {
		return s
	}
	n := float64(a.state.TotalQuestions)
	s.OverallAccuracy = float64(a.state.TotalCorrect) / n
	s.AverageDifficulty = float64(a.state.SumDifficulty) / n
	s.AverageTime = a.state.SumTime / n
	return s
}
