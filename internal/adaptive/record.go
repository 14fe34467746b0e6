package adaptive

import (
	"encoding/json"
	"fmt"
)

// ResponseRecord captures the outcome of one administered item. Records are
// immutable facts: build one after the answer is known, hand it to the engine,
// never touch it again.
type ResponseRecord struct {
	QuestionID  string  `json:"question_id"`
	Correct     bool    `json:"correct"`
	TimeSeconds float64 `json:"time_seconds"`
	Difficulty  int     `json:"difficulty"`
}

// Validate rejects records that would corrupt session statistics if accepted.
func (r ResponseRecord) Validate(tuning Tuning) error {
	if r.QuestionID == "" {
		return fmt.Errorf("response record: empty question id")
	}
	if r.TimeSeconds <= 0 {
		return fmt.Errorf("response record %s: time must be positive, got %v", r.QuestionID, r.TimeSeconds)
	}
	if r.Difficulty < tuning.MinDifficulty || r.Difficulty > tuning.MaxDifficulty {
		return fmt.Errorf("response record %s: difficulty %d outside [%d,%d]",
			r.QuestionID, r.Difficulty, tuning.MinDifficulty, tuning.MaxDifficulty)
	}
	return nil
}

// Item is the engine's view of a test item. Payload carries whatever content
// fields the item bank attaches (prompt, options, answer key); the engine
// never inspects it.
type Item struct {
	ID         string          `json:"id"`
	Module     string          `json:"module"`
	Difficulty int             `json:"difficulty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}
