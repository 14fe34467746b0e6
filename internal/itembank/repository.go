package itembank

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/skandaka/neuravia-adaptive-cognitive-test/internal/adaptive"
)

// store is the subset of pgxpool.Pool the repository uses.
type store interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Repository persists the master item bank and per-session pool copies in
// Postgres. The master bank is immutable at serving time; each session works
// against its own copied rows, which selection destructively removes (the
// tabular equivalent of the per-session personal pool).
type Repository struct {
	db store
}

// NewRepository wraps a pgx pool (or compatible store).
func NewRepository(db store) *Repository {
	return &Repository{db: db}
}

// LoadMaster bulk-inserts generated items into the master bank.
func (r *Repository) LoadMaster(ctx context.Context, items []adaptive.Item) (int64, error) {
	rows := make([][]any, 0, len(items))
	for _, it := range items {
		rows = append(rows, []any{it.ID, it.Module, it.Difficulty, []byte(it.Payload)})
	}
	n, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"items"},
		[]string{"id", "module", "difficulty", "payload"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("load master bank: %w", err)
	}
	return n, nil
}

// CopySessionPool clones the master bank rows for one module into the
// session's private pool. Returns the number of items copied.
func (r *Repository) CopySessionPool(ctx context.Context, sessionID uuid.UUID, module string) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO session_items (session_id, item_id, module, difficulty, payload)
		SELECT $1, id, module, difficulty, payload
		FROM items
		WHERE module = $2`,
		sessionID, module)
	if err != nil {
		return 0, fmt.Errorf("copy session pool: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteSessionPool removes whatever the session did not consume.
func (r *Repository) DeleteSessionPool(ctx context.Context, sessionID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM session_items WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete session pool: %w", err)
	}
	return nil
}

// SessionPool returns an adaptive.ItemPool view over one session's rows.
func (r *Repository) SessionPool(sessionID uuid.UUID) *SessionPool {
	return &SessionPool{db: r.db, sessionID: sessionID}
}

// SessionPool serves and destructively removes one session's items straight
// from Postgres. Take deletes and returns the row in a single statement, so
// concurrent sessions on shared storage keep at-most-once delivery; the
// session layer additionally serializes the Remaining+Take pair per
// selection.
type SessionPool struct {
	db        store
	sessionID uuid.UUID
}

var _ adaptive.ItemPool = (*SessionPool)(nil)

// Remaining counts items left at the given difficulty.
func (p *SessionPool) Remaining(ctx context.Context, difficulty int) (int, error) {
	var n int
	err := p.db.QueryRow(ctx, `
		SELECT count(*) FROM session_items
		WHERE session_id = $1 AND difficulty = $2`,
		p.sessionID, difficulty).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count session items: %w", err)
	}
	return n, nil
}

// Take removes and returns the idx-th remaining item at the given difficulty
// (candidates ordered by item id, so the index is stable under a lock).
func (p *SessionPool) Take(ctx context.Context, difficulty int, idx int) (*adaptive.Item, error) {
	var (
		item    adaptive.Item
		payload []byte
	)
	err := p.db.QueryRow(ctx, `
		DELETE FROM session_items
		WHERE session_id = $1 AND item_id = (
			SELECT item_id FROM session_items
			WHERE session_id = $1 AND difficulty = $2
			ORDER BY item_id
			OFFSET $3 LIMIT 1
		)
		RETURNING item_id, module, difficulty, payload`,
		p.sessionID, difficulty, idx).Scan(&item.ID, &item.Module, &item.Difficulty, &payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("session pool tier %d: index %d out of range", difficulty, idx)
	}
	if err != nil {
		return nil, fmt.Errorf("take session item: %w", err)
	}
	item.Payload = payload
	return &item, nil
}
