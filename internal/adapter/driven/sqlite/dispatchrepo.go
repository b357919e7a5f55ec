package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/postflowhq/postflow/internal/domain/model"
	"github.com/postflowhq/postflow/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.DispatchStore = (*DispatchRepo)(nil)

// DispatchRepo is the SQLite implementation of the DispatchStore port.
type DispatchRepo struct {
	db *DB
}

// NewDispatchRepo creates a new DispatchRepo backed by the given DB.
func NewDispatchRepo(db *DB) *DispatchRepo {
	return &DispatchRepo{db: db}
}

// Append inserts one journal row. The caller's ID and CreatedAt are ignored;
// the database assigns both.
func (r *DispatchRepo) Append(ctx context.Context, d model.Dispatch) error {
	const query = `
		INSERT INTO dispatches (op, queue, record_id, username, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	if _, err := r.db.Writer.ExecContext(ctx, query,
		string(d.Op), d.Queue, d.RecordID, d.Username, d.Detail, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("insert dispatch for record %s: %w", d.RecordID, err)
	}

	return nil
}

// ListRecent returns up to limit journal rows, newest first. A non-positive
// limit returns an empty slice.
func (r *DispatchRepo) ListRecent(ctx context.Context, limit int) ([]model.Dispatch, error) {
	if limit <= 0 {
		return []model.Dispatch{}, nil
	}

	const query = `
		SELECT id, op, queue, record_id, username, detail, created_at
		FROM dispatches
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query dispatches: %w", err)
	}
	defer rows.Close()

	dispatches := []model.Dispatch{}
	for rows.Next() {
		var d model.Dispatch
		var op string
		if err := rows.Scan(&d.ID, &op, &d.Queue, &d.RecordID, &d.Username, &d.Detail, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dispatch: %w", err)
		}
		d.Op = model.DispatchOp(op)
		dispatches = append(dispatches, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dispatches: %w", err)
	}

	return dispatches, nil
}

// Ping verifies the reader connection is alive.
func (r *DispatchRepo) Ping(ctx context.Context) error {
	if err := r.db.Reader.PingContext(ctx); err != nil {
		return fmt.Errorf("ping journal: %w", err)
	}
	return nil
}
