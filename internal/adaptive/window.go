package adaptive

// neutralAccuracy is the signal reported before any responses arrive, chosen
// so an empty window neither raises nor lowers difficulty.
const neutralAccuracy = 0.5

// PerformanceWindow is a bounded FIFO of the most recent response records.
// It gives the difficulty rules a recency-biased view of performance without
// unbounded growth: once full, each push evicts the oldest record.
type PerformanceWindow struct {
	size    int
	records []ResponseRecord
}

// NewPerformanceWindow builds a window holding at most size records.
// size must already be validated (>= 1) by the engine constructor.
func NewPerformanceWindow(size int) *PerformanceWindow {
	return &PerformanceWindow{
		size:    size,
		records: make([]ResponseRecord, 0, size),
	}
}

// Push appends a record, evicting the oldest when the window is full.
// It never fails.
func (w *PerformanceWindow) Push(rec ResponseRecord) {
	if len(w.records) == w.size {
		copy(w.records, w.records[1:])
		w.records = w.records[:w.size-1]
	}
	w.records = append(w.records, rec)
}

// Len reports how many records are currently held.
func (w *PerformanceWindow) Len() int {
	return len(w.records)
}

// Accuracy returns the fraction of correct records in the window.
// An empty window reports the neutral 0.5 so difficulty holds steady.
func (w *PerformanceWindow) Accuracy() float64 {
	if len(w.records) == 0 {
		return neutralAccuracy
	}
	correct := 0
	for _, r := range w.records {
		if r.Correct {
			correct++
		}
	}
	return float64(correct) / float64(len(w.records))
}

// MeanTime returns the mean response time over the window, 0 when empty.
func (w *PerformanceWindow) MeanTime() float64 {
	if len(w.records) == 0 {
		return 0
	}
	var sum float64
	for _, r := range w.records {
		sum += r.TimeSeconds
	}
	return sum / float64(len(w.records))
}

// Signal condenses the window into the inputs the difficulty rules read.
func (w *PerformanceWindow) Signal() Signal {
	return Signal{
		Accuracy:        w.Accuracy(),
		MeanTimeSeconds: w.MeanTime(),
		SampleCount:     len(w.records),
	}
}

// Snapshot returns a copy of the held records, oldest first.
func (w *PerformanceWindow) Snapshot() []ResponseRecord {
	out := make([]ResponseRecord, len(w.records))
	copy(out, w.records)
	return out
}
