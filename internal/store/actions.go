package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/johnwards/backoffice/internal/domain"
)

// ActionLog persists one row per CRUD action handled by the API.
type ActionLog struct {
	q       Querier
	dialect Dialect
}

// NewActionLog creates an action log over q.
func NewActionLog(q Querier, dialect Dialect) *ActionLog {
	return &ActionLog{q: q, dialect: dialect}
}

// Append records an action.
func (l *ActionLog) Append(ctx context.Context, e domain.ActionEntry) error {
	query := fmt.Sprintf(`INSERT INTO action_log (entity, action, status, record_id, correlation_id, created_at)
		VALUES (%s, %s, %s, %s, %s, %s)`,
		l.dialect.Placeholder(1), l.dialect.Placeholder(2), l.dialect.Placeholder(3),
		l.dialect.Placeholder(4), l.dialect.Placeholder(5), l.dialect.Placeholder(6))

	_, err := l.q.ExecContext(ctx, query, e.Entity, e.Action, e.Status, nullIfEmpty(e.RecordID), nullIfEmpty(e.CorrelationID), now())
	if err != nil {
		return fmt.Errorf("append action log: %w", err)
	}
	return nil
}

// List returns entries newest first. After is the id of the last entry of the
// previous page.
func (l *ActionLog) List(ctx context.Context, opts domain.ListOpts) ([]domain.ActionEntry, string, error) {
	if opts.Limit <= 0 || opts.Limit > 1000 {
		opts.Limit = 100
	}

	query := `SELECT id, entity, action, status, COALESCE(record_id, ''), COALESCE(correlation_id, ''), created_at
		FROM action_log`
	var args []any
	if opts.After != "" {
		after, err := strconv.ParseInt(opts.After, 10, 64)
		if err != nil {
			return nil, "", fmt.Errorf("%q: %w", opts.After, ErrInvalidCursor)
		}
		args = append(args, after)
		query += " WHERE id < " + l.dialect.Placeholder(len(args))
	}
	args = append(args, opts.Limit+1)
	query += " ORDER BY id DESC LIMIT " + l.dialect.Placeholder(len(args))

	rows, err := l.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("query action log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]domain.ActionEntry, 0, opts.Limit)
	for rows.Next() {
		var e domain.ActionEntry
		if err := rows.Scan(&e.ID, &e.Entity, &e.Action, &e.Status, &e.RecordID, &e.CorrelationID, &e.CreatedAt); err != nil {
			return nil, "", fmt.Errorf("scan action log: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("rows iteration: %w", err)
	}

	var next string
	if len(entries) > opts.Limit {
		entries = entries[:opts.Limit]
		next = strconv.FormatInt(entries[len(entries)-1].ID, 10)
	}
	return entries, next, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
