package adaptive

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func rec(id string, correct bool, difficulty int, seconds float64) ResponseRecord {
	return ResponseRecord{
		QuestionID:  id,
		Correct:     correct,
		Difficulty:  difficulty,
		TimeSeconds: seconds,
	}
}

func TestWindowNeverExceedsBound(t *testing.T) {
	w := NewPerformanceWindow(3)
	for i := 0; i < 10; i++ {
		w.Push(rec(fmt.Sprintf("q%d", i), true, 1, 10))
		assert.LessOrEqual(t, w.Len(), 3)
	}
	assert.Equal(t, 3, w.Len())
}

func TestWindowKeepsMostRecentInOrder(t *testing.T) {
	w := NewPerformanceWindow(3)
	for i := 0; i < 5; i++ {
		w.Push(rec(fmt.Sprintf("q%d", i), true, 1, 10))
	}

	snap := w.Snapshot()
	assert.Len(t, snap, 3)
	assert.Equal(t, "q2", snap[0].QuestionID)
	assert.Equal(t, "q3", snap[1].QuestionID)
	assert.Equal(t, "q4", snap[2].QuestionID)
}

func TestWindowAccuracy(t *testing.T) {
	w := NewPerformanceWindow(4)
	assert.Equal(t, 0.5, w.Accuracy(), "empty window reports the neutral default")

	w.Push(rec("q1", true, 1, 10))
	w.Push(rec("q2", false, 1, 10))
	assert.Equal(t, 0.5, w.Accuracy())

	w.Push(rec("q3", true, 1, 10))
	w.Push(rec("q4", true, 1, 10))
	assert.Equal(t, 0.75, w.Accuracy())
}

func TestWindowMeanTime(t *testing.T) {
	w := NewPerformanceWindow(3)
	assert.Equal(t, 0.0, w.MeanTime())

	w.Push(rec("q1", true, 1, 10))
	w.Push(rec("q2", true, 1, 20))
	assert.Equal(t, 15.0, w.MeanTime())
}

func TestWindowSignalCountsPartialFill(t *testing.T) {
	w := NewPerformanceWindow(3)
	w.Push(rec("q1", true, 1, 10))

	sig := w.Signal()
	assert.Equal(t, 1, sig.SampleCount)
	assert.Equal(t, 1.0, sig.Accuracy)
	assert.Equal(t, 10.0, sig.MeanTimeSeconds)
}

func TestWindowSnapshotIsACopy(t *testing.T) {
	w := NewPerformanceWindow(2)
	w.Push(rec("q1", true, 1, 10))

	snap := w.Snapshot()
	snap[0].QuestionID = "mutated"
	assert.Equal(t, "q1", w.Snapshot()[0].QuestionID)
}
