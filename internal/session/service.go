package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/skandaka/neuravia-adaptive-cognitive-test/internal/adaptive"
	"github.com/skandaka/neuravia-adaptive-cognitive-test/internal/itembank"
	"github.com/skandaka/neuravia-adaptive-cognitive-test/internal/metrics"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionFinished   = errors.New("session already finished")
	ErrUnknownModule     = errors.New("unknown cognitive module")
	ErrAwaitingResponse  = errors.New("previous item still awaits a response")
	ErrNoOutstandingItem = errors.New("no outstanding item to answer")
	ErrInvalidResponse   = errors.New("invalid response")
	ErrLockContended     = errors.New("session is busy")
)

// ItemSource provisions and serves per-session item pools.
type ItemSource interface {
	// Provision copies the module's bank into the session's private pool.
	Provision(ctx context.Context, sessionID uuid.UUID, module string) (int64, error)
	// Pool returns the live pool view for a session.
	Pool(sessionID uuid.UUID) adaptive.ItemPool
	// Release drops whatever the session did not consume.
	Release(ctx context.Context, sessionID uuid.UUID) error
}

// stateStore is implemented by StateManager (Redis) and by test stubs.
type stateStore interface {
	Save(ctx context.Context, snap Snapshot) error
	Get(ctx context.Context, sessionID uuid.UUID) (*Snapshot, error)
	Delete(ctx context.Context, sessionID uuid.UUID) error
	Lock(ctx context.Context, sessionID uuid.UUID) (func() error, error)
}

// ServiceOptions configures session behavior.
type ServiceOptions struct {
	Engine  adaptive.Config
	Modules []string
	// NewRand supplies the random source for each engine rebuild; tests pin
	// it to a fixed seed.
	NewRand func() *rand.Rand
}

// Service drives the adaptive loop for live sessions. Each request locks the
// session, rebuilds its engine from the persisted snapshot, applies exactly
// one engine operation, and persists the result. The snapshot is the single
// source of window truth; no engine state lives between requests.
type Service struct {
	items   ItemSource
	states  stateStore
	cfg     adaptive.Config
	modules map[string]bool
	newRand func() *rand.Rand
	logger  zerolog.Logger
}

// NewService validates the engine configuration up front and builds the
// session service.
func NewService(items ItemSource, states stateStore, opts ServiceOptions, logger zerolog.Logger) (*Service, error) {
	if _, err := adaptive.NewEngine(opts.Engine, rand.New(rand.NewSource(0))); err != nil {
		return nil, fmt.Errorf("session service: %w", err)
	}
	modules := make(map[string]bool, len(opts.Modules))
	for _, m := range opts.Modules {
		modules[m] = true
	}
	newRand := opts.NewRand
	if newRand == nil {
		newRand = func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		}
	}
	return &Service{
		items:   items,
		states:  states,
		cfg:     opts.Engine,
		modules: modules,
		newRand: newRand,
		logger:  logger.With().Str("component", "session_service").Logger(),
	}, nil
}

// Start provisions a private pool copy for the module and opens a session at
// the lowest difficulty tier.
func (s *Service) Start(ctx context.Context, module string) (*Snapshot, int64, error) {
	if !s.modules[module] {
		return nil, 0, fmt.Errorf("%w: %q", ErrUnknownModule, module)
	}

	sessionID := uuid.New()
	poolSize, err := s.items.Provision(ctx, sessionID, module)
	if err != nil {
		return nil, 0, fmt.Errorf("provision session pool: %w", err)
	}
	if poolSize == 0 {
		return nil, 0, fmt.Errorf("%w: %q has no items loaded", ErrUnknownModule, module)
	}

	snap := Snapshot{
		SessionID:         sessionID,
		Module:            module,
		Status:            StatusActive,
		CurrentDifficulty: s.cfg.Tuning.MinDifficulty,
		StartedAt:         time.Now().UTC(),
	}
	if err := s.states.Save(ctx, snap); err != nil {
		return nil, 0, fmt.Errorf("save session state: %w", err)
	}

	metrics.SessionsStarted.Inc()
	s.logger.Info().
		Str("session_id", sessionID.String()).
		Str("module", module).
		Int64("pool_size", poolSize).
		Msg("session started")
	return &snap, poolSize, nil
}

// Next adapts difficulty from the session's recent window and draws the next
// item. On an empty tier it returns (nil, difficulty, adaptive.ErrNoItems):
// the difficulty decision is persisted either way and the caller decides
// whether to finish or retry after relaxing constraints.
func (s *Service) Next(ctx context.Context, sessionID uuid.UUID) (*adaptive.Item, int, error) {
	unlock, err := s.states.Lock(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = unlock() }()

	snap, err := s.loadActive(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}
	if snap.ServedCount > snap.AnsweredCount {
		return nil, snap.CurrentDifficulty, ErrAwaitingResponse
	}

	engine, err := adaptive.NewEngineFromState(s.cfg, s.newRand(), snap.Engine)
	if err != nil {
		return nil, 0, err
	}

	item, next, selErr := engine.SelectNextQuestion(ctx, snap.CurrentDifficulty, s.items.Pool(sessionID))
	metrics.DifficultyTransitions.WithLabelValues(metrics.Direction(snap.CurrentDifficulty, next)).Inc()
	snap.CurrentDifficulty = next

	if selErr != nil {
		if errors.Is(selErr, adaptive.ErrNoItems) {
			metrics.PoolExhausted.WithLabelValues(metrics.Tier(next)).Inc()
			// The tier decision stands; persist it so a retry or summary
			// sees where the session stalled.
			if err := s.states.Save(ctx, *snap); err != nil {
				return nil, next, err
			}
			s.logger.Info().
				Str("session_id", sessionID.String()).
				Int("difficulty", next).
				Msg("pool exhausted at requested tier")
		}
		return nil, next, selErr
	}

	snap.ServedCount++
	if err := s.states.Save(ctx, *snap); err != nil {
		return nil, next, err
	}

	metrics.ItemsServed.WithLabelValues(metrics.Tier(next)).Inc()
	return item, next, nil
}

// Submit folds one response into the session's performance model. Must
// follow the item it answers; a second submit without an intervening Next is
// rejected.
func (s *Service) Submit(ctx context.Context, sessionID uuid.UUID, rec adaptive.ResponseRecord) (adaptive.Summary, error) {
	unlock, err := s.states.Lock(ctx, sessionID)
	if err != nil {
		return adaptive.Summary{}, err
	}
	defer func() { _ = unlock() }()

	snap, err := s.loadActive(ctx, sessionID)
	if err != nil {
		return adaptive.Summary{}, err
	}
	if snap.AnsweredCount >= snap.ServedCount {
		return adaptive.Summary{}, ErrNoOutstandingItem
	}

	engine, err := adaptive.NewEngineFromState(s.cfg, s.newRand(), snap.Engine)
	if err != nil {
		return adaptive.Summary{}, err
	}
	if err := engine.UpdatePerformanceModel(rec); err != nil {
		return adaptive.Summary{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	snap.Engine = engine.Snapshot()
	snap.AnsweredCount++
	if err := s.states.Save(ctx, *snap); err != nil {
		return adaptive.Summary{}, err
	}

	metrics.ResponseTime.Observe(rec.TimeSeconds)
	return engine.Summary(), nil
}

// Summary returns the whole-session report plus the snapshot it came from.
// Read-only; callable mid-session.
func (s *Service) Summary(ctx context.Context, sessionID uuid.UUID) (adaptive.Summary, *Snapshot, error) {
	snap, err := s.states.Get(ctx, sessionID)
	if err != nil {
		return adaptive.Summary{}, nil, err
	}
	if snap == nil {
		return adaptive.Summary{}, nil, ErrSessionNotFound
	}
	agg := adaptive.NewAggregatorFromState(snap.Engine.Aggregate)
	return agg.Summary(), snap, nil
}

// Finish closes the session by caller policy and releases its unused pool
// rows. The snapshot stays readable until its TTL lapses.
func (s *Service) Finish(ctx context.Context, sessionID uuid.UUID) (adaptive.Summary, error) {
	unlock, err := s.states.Lock(ctx, sessionID)
	if err != nil {
		return adaptive.Summary{}, err
	}
	defer func() { _ = unlock() }()

	snap, err := s.loadActive(ctx, sessionID)
	if err != nil {
		return adaptive.Summary{}, err
	}

	snap.Status = StatusComplete
	if err := s.states.Save(ctx, *snap); err != nil {
		return adaptive.Summary{}, err
	}
	if err := s.items.Release(ctx, sessionID); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID.String()).Msg("release session pool failed")
	}

	metrics.SessionsFinished.Inc()
	agg := adaptive.NewAggregatorFromState(snap.Engine.Aggregate)
	return agg.Summary(), nil
}

func (s *Service) loadActive(ctx context.Context, sessionID uuid.UUID) (*Snapshot, error) {
	snap, err := s.states.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrSessionNotFound
	}
	if snap.Status != StatusActive {
		return nil, ErrSessionFinished
	}
	return snap, nil
}

// RepositorySource adapts the itembank repository to the ItemSource
// interface.
type RepositorySource struct {
	repo *itembank.Repository
}

// NewRepositorySource wraps a Postgres-backed item repository.
func NewRepositorySource(repo *itembank.Repository) *RepositorySource {
	return &RepositorySource{repo: repo}
}

func (r *RepositorySource) Provision(ctx context.Context, sessionID uuid.UUID, module string) (int64, error) {
	return r.repo.CopySessionPool(ctx, sessionID, module)
}

func (r *RepositorySource) Pool(sessionID uuid.UUID) adaptive.ItemPool {
	return r.repo.SessionPool(sessionID)
}

func (r *RepositorySource) Release(ctx context.Context, sessionID uuid.UUID) error {
	return r.repo.DeleteSessionPool(ctx, sessionID)
}
