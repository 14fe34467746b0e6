package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session-level counters for the adaptive loop. Difficulty labels use the
// tier number as a string so dashboards can split served volume per tier.
var (
	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cat_sessions_started_total",
		Help: "Test sessions started.",
	})

	SessionsFinished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cat_sessions_finished_total",
		Help: "Test sessions finished by the caller.",
	})

	ItemsServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cat_items_served_total",
		Help: "Items handed out, by difficulty tier.",
	}, []string{"difficulty"})

	DifficultyTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cat_difficulty_transitions_total",
		Help: "Adapter decisions, by direction (raise, lower, hold).",
	}, []string{"direction"})

	PoolExhausted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cat_pool_exhausted_total",
		Help: "Selections that found an empty tier, by difficulty.",
	}, []string{"difficulty"})

	ResponseTime = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cat_response_time_seconds",
		Help:    "Reported test-taker answer times.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 8),
	})
)

// Tier formats a difficulty tier as a metric label.
func Tier(difficulty int) string {
	return strconv.Itoa(difficulty)
}

// Direction labels an adapter decision from its before/after tiers.
func Direction(from, to int) string {
	switch {
	case to > from:
		return "raise"
	case to < from:
		return "lower"
	default:
		return "hold"
	}
}
