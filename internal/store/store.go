package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = fmt.Errorf("record not found")

// ErrConflict is returned when a unique constraint is violated.
var ErrConflict = fmt.Errorf("conflict")

// ErrConstraint is returned when a foreign key, check or not-null constraint
// rejects a write.
var ErrConstraint = fmt.Errorf("constraint violation")

// ErrInvalidCursor is returned for a malformed pagination cursor.
var ErrInvalidCursor = fmt.Errorf("invalid cursor")

// Querier is the subset of *sql.DB and *sql.Tx used by services, so a
// service can be bound to a request-scoped transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// Store holds the database handle and dialect shared by all entity services.
type Store struct {
	DB      *sql.DB
	Dialect Dialect
}

// New creates a Store.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{DB: db, Dialect: dialect}
}

// Bind returns a constructor for services over table, to be called with a
// request-scoped handle.
func (s *Store) Bind(table Table) func(Querier) EntityService {
	return func(q Querier) EntityService {
		return NewSQLService(q, s.Dialect, table)
	}
}

// Service returns a service for table bound to the shared database handle.
func (s *Store) Service(table Table) EntityService {
	return NewSQLService(s.DB, s.Dialect, table)
}

// Clear deletes every row from the given tables, in order, inside one
// transaction.
func (s *Store) Clear(ctx context.Context, tables ...string) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+quoteIdent(table)); err != nil {
			return fmt.Errorf("clear table %s: %w", table, err)
		}
	}
	return tx.Commit()
}
