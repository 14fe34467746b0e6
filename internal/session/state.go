package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/skandaka/neuravia-adaptive-cognitive-test/internal/adaptive"
)

// Session lifecycle states. Termination is always the caller's decision: the
// service marks complete only on an explicit finish, and exhaustion is a
// signal, not a transition.
type Status string

const (
	StatusActive   Status = "active"
	StatusComplete Status = "complete"
)

// Snapshot is the full persisted state of one session: everything needed to
// rebuild its engine between requests. ServedCount and AnsweredCount enforce
// the select-administer-update alternation.
type Snapshot struct {
	SessionID         uuid.UUID      `json:"session_id"`
	Module            string         `json:"module"`
	Status            Status         `json:"status"`
	CurrentDifficulty int            `json:"current_difficulty"`
	ServedCount       int            `json:"served_count"`
	AnsweredCount     int            `json:"answered_count"`
	Engine            adaptive.State `json:"engine"`
	StartedAt         time.Time      `json:"started_at"`
}

const defaultStateTTL = 2 * time.Hour

// StateManager keeps session snapshots in Redis under a TTL, with a per
// session lock serializing the select/submit critical sections across
// processes.
type StateManager struct {
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewStateManager creates a state manager backed by Redis.
func NewStateManager(redis *redis.Client, ttl time.Duration, logger zerolog.Logger) *StateManager {
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	return &StateManager{
		redis:  redis,
		ttl:    ttl,
		logger: logger,
	}
}

func stateKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("cat:session:%s", sessionID.String())
}

// Save persists a snapshot, refreshing its TTL.
func (s *StateManager) Save(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}
	return s.redis.Set(ctx, stateKey(snap.SessionID), data, s.ttl).Err()
}

// Get retrieves a snapshot, (nil, nil) when the session is unknown or
// expired.
func (s *StateManager) Get(ctx context.Context, sessionID uuid.UUID) (*Snapshot, error) {
	data, err := s.redis.Get(ctx, stateKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session state: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal session state: %w", err)
	}
	return &snap, nil
}

// Delete drops a snapshot.
func (s *StateManager) Delete(ctx context.Context, sessionID uuid.UUID) error {
	return s.redis.Del(ctx, stateKey(sessionID)).Err()
}

// Lock acquires the per-session lock. Returns an unlock function. The lock
// expires after 30s in case a holder dies mid-selection.
func (s *StateManager) Lock(ctx context.Context, sessionID uuid.UUID) (func() error, error) {
	key := fmt.Sprintf("cat:session:lock:%s", sessionID.String())
	lockValue := uuid.New().String()

	acquired, err := s.redis.SetNX(ctx, key, lockValue, 30*time.Second).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire session lock: %w", err)
	}
	if !acquired {
		return nil, ErrLockContended
	}

	unlock := func() error {
		// Lua script ensures we only delete our own lock
		script := `
			if redis.call("get", KEYS[1]) == ARGV[1] then
				return redis.call("del", KEYS[1])
			else
				return 0
			end
		`
		return s.redis.Eval(ctx, script, []string{key}, lockValue).Err()
	}

	return unlock, nil
}
