package session

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skandaka/neuravia-adaptive-cognitive-test/internal/adaptive"
	"github.com/skandaka/neuravia-adaptive-cognitive-test/internal/itembank"
)

type memStates struct {
	snapshots map[uuid.UUID]Snapshot
	locked    map[uuid.UUID]bool
}

func newMemStates() *memStates {
	return &memStates{
		snapshots: map[uuid.UUID]Snapshot{},
		locked:    map[uuid.UUID]bool{},
	}
}

func (m *memStates) Save(_ context.Context, snap Snapshot) error {
	m.snapshots[snap.SessionID] = snap
	return nil
}

func (m *memStates) Get(_ context.Context, sessionID uuid.UUID) (*Snapshot, error) {
	snap, ok := m.snapshots[sessionID]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (m *memStates) Delete(_ context.Context, sessionID uuid.UUID) error {
	delete(m.snapshots, sessionID)
	return nil
}

func (m *memStates) Lock(_ context.Context, sessionID uuid.UUID) (func() error, error) {
	if m.locked[sessionID] {
		return nil, ErrLockContended
	}
	m.locked[sessionID] = true
	return func() error {
		m.locked[sessionID] = false
		return nil
	}, nil
}

type memSource struct {
	bank  []adaptive.Item
	pools map[uuid.UUID]*itembank.Pool
}

func newMemSource(bank []adaptive.Item) *memSource {
	return &memSource{bank: bank, pools: map[uuid.UUID]*itembank.Pool{}}
}

func (m *memSource) Provision(_ context.Context, sessionID uuid.UUID, module string) (int64, error) {
	var items []adaptive.Item
	for _, it := range m.bank {
		if it.Module == module {
			items = append(items, it)
		}
	}
	m.pools[sessionID] = itembank.NewPool(items)
	return int64(len(items)), nil
}

func (m *memSource) Pool(sessionID uuid.UUID) adaptive.ItemPool {
	return m.pools[sessionID]
}

func (m *memSource) Release(_ context.Context, sessionID uuid.UUID) error {
	delete(m.pools, sessionID)
	return nil
}

func bankFor(module string, perTier int) []adaptive.Item {
	var items []adaptive.Item
	for difficulty := 1; difficulty <= 3; difficulty++ {
		for i := 0; i < perTier; i++ {
			items = append(items, adaptive.Item{
				ID:         fmt.Sprintf("%s-d%d-i%d", module, difficulty, i),
				Module:     module,
				Difficulty: difficulty,
				Payload:    []byte(`{"prompt":"p","answer":"a"}`),
			})
		}
	}
	return items
}

func newTestService(t *testing.T, bank []adaptive.Item) (*Service, *memStates, *memSource) {
	t.Helper()
	states := newMemStates()
	source := newMemSource(bank)
	svc, err := NewService(source, states, ServiceOptions{
		Engine:  adaptive.DefaultConfig(),
		Modules: []string{itembank.ModuleConcentration, itembank.ModuleCalculation},
		NewRand: func() *rand.Rand { return rand.New(rand.NewSource(11)) },
	}, zerolog.Nop())
	require.NoError(t, err)
	return svc, states, source
}

func TestServiceRejectsBadEngineConfig(t *testing.T) {
	cfg := adaptive.DefaultConfig()
	cfg.WindowSize = -1
	_, err := NewService(newMemSource(nil), newMemStates(), ServiceOptions{Engine: cfg}, zerolog.Nop())
	assert.Error(t, err)
}

func TestStartUnknownModule(t *testing.T) {
	svc, _, _ := newTestService(t, bankFor(itembank.ModuleConcentration, 2))

	_, _, err := svc.Start(context.Background(), "astrology")
	assert.ErrorIs(t, err, ErrUnknownModule)
}

func TestStartProvisionsPool(t *testing.T) {
	svc, states, source := newTestService(t, bankFor(itembank.ModuleConcentration, 2))

	snap, poolSize, err := svc.Start(context.Background(), itembank.ModuleConcentration)
	require.NoError(t, err)

	assert.Equal(t, int64(6), poolSize)
	assert.Equal(t, StatusActive, snap.Status)
	assert.Equal(t, 1, snap.CurrentDifficulty, "sessions open at the lowest tier")
	assert.Contains(t, states.snapshots, snap.SessionID)
	assert.Contains(t, source.pools, snap.SessionID)
}

func TestAdaptiveLoopRaisesDifficulty(t *testing.T) {
	svc, _, _ := newTestService(t, bankFor(itembank.ModuleCalculation, 4))
	ctx := context.Background()

	snap, _, err := svc.Start(ctx, itembank.ModuleCalculation)
	require.NoError(t, err)
	id := snap.SessionID

	// Three fast, correct answers at tier 1.
	for i := 0; i < 3; i++ {
		item, difficulty, err := svc.Next(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 1, difficulty)

		_, err = svc.Submit(ctx, id, adaptive.ResponseRecord{
			QuestionID:  item.ID,
			Correct:     true,
			TimeSeconds: 10,
			Difficulty:  difficulty,
		})
		require.NoError(t, err)
	}

	// The next selection probes tier 2.
	item, difficulty, err := svc.Next(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, difficulty)
	assert.Equal(t, 2, item.Difficulty)

	summary, snapAfter, err := svc.Summary(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalQuestions)
	assert.Equal(t, 1.0, summary.OverallAccuracy)
	assert.Equal(t, 2, snapAfter.CurrentDifficulty)
}

func TestNextRequiresResponseBetweenItems(t *testing.T) {
	svc, _, _ := newTestService(t, bankFor(itembank.ModuleConcentration, 2))
	ctx := context.Background()

	snap, _, err := svc.Start(ctx, itembank.ModuleConcentration)
	require.NoError(t, err)

	_, _, err = svc.Next(ctx, snap.SessionID)
	require.NoError(t, err)

	_, _, err = svc.Next(ctx, snap.SessionID)
	assert.ErrorIs(t, err, ErrAwaitingResponse)
}

func TestSubmitWithoutOutstandingItem(t *testing.T) {
	svc, _, _ := newTestService(t, bankFor(itembank.ModuleConcentration, 2))
	ctx := context.Background()

	snap, _, err := svc.Start(ctx, itembank.ModuleConcentration)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, snap.SessionID, adaptive.ResponseRecord{
		QuestionID: "q", Correct: true, TimeSeconds: 5, Difficulty: 1,
	})
	assert.ErrorIs(t, err, ErrNoOutstandingItem)
}

func TestSubmitRejectsOutOfBoundsRecord(t *testing.T) {
	svc, _, _ := newTestService(t, bankFor(itembank.ModuleConcentration, 2))
	ctx := context.Background()

	snap, _, err := svc.Start(ctx, itembank.ModuleConcentration)
	require.NoError(t, err)
	item, _, err := svc.Next(ctx, snap.SessionID)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, snap.SessionID, adaptive.ResponseRecord{
		QuestionID: item.ID, Correct: true, TimeSeconds: 5, Difficulty: 7,
	})
	assert.ErrorIs(t, err, ErrInvalidResponse)

	// The rejected record left no trace; resubmitting a valid one works.
	summary, err := svc.Submit(ctx, snap.SessionID, adaptive.ResponseRecord{
		QuestionID: item.ID, Correct: true, TimeSeconds: 5, Difficulty: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalQuestions)
}

func TestPoolExhaustionIsRecoverable(t *testing.T) {
	// One item in the whole bank: the second selection finds an empty tier.
	bank := []adaptive.Item{{
		ID: "only", Module: itembank.ModuleConcentration, Difficulty: 1,
	}}
	svc, _, _ := newTestService(t, bank)
	ctx := context.Background()

	snap, _, err := svc.Start(ctx, itembank.ModuleConcentration)
	require.NoError(t, err)
	id := snap.SessionID

	item, difficulty, err := svc.Next(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "only", item.ID)

	_, err = svc.Submit(ctx, id, adaptive.ResponseRecord{
		QuestionID: item.ID, Correct: false, TimeSeconds: 30, Difficulty: difficulty,
	})
	require.NoError(t, err)

	nextItem, nextDifficulty, err := svc.Next(ctx, id)
	assert.Nil(t, nextItem)
	assert.Equal(t, 1, nextDifficulty)
	assert.ErrorIs(t, err, adaptive.ErrNoItems)

	// Still the caller's call: the session remains active and finishable.
	summary, err := svc.Finish(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalQuestions)

	_, err = svc.Finish(ctx, id)
	assert.ErrorIs(t, err, ErrSessionFinished)
}

func TestSummaryUnknownSession(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	_, _, err := svc.Summary(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestLockContention(t *testing.T) {
	svc, states, _ := newTestService(t, bankFor(itembank.ModuleConcentration, 2))
	ctx := context.Background()

	snap, _, err := svc.Start(ctx, itembank.ModuleConcentration)
	require.NoError(t, err)

	// Simulate a concurrent holder.
	states.locked[snap.SessionID] = true
	_, _, err = svc.Next(ctx, snap.SessionID)
	assert.ErrorIs(t, err, ErrLockContended)
}

func TestFinishReleasesPool(t *testing.T) {
	svc, _, source := newTestService(t, bankFor(itembank.ModuleCalculation, 2))
	ctx := context.Background()

	snap, _, err := svc.Start(ctx, itembank.ModuleCalculation)
	require.NoError(t, err)

	_, err = svc.Finish(ctx, snap.SessionID)
	require.NoError(t, err)
	assert.NotContains(t, source.pools, snap.SessionID)
}
