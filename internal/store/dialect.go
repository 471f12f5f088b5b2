package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Supported driver names, as registered with database/sql.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Dialect captures the SQL differences between supported drivers.
type Dialect struct {
	Driver string
}

// Dialects.
var (
	SQLite   = Dialect{Driver: DriverSQLite}
	Postgres = Dialect{Driver: DriverPostgres}
)

// DialectFor returns the dialect for a driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverSQLite:
		return SQLite, nil
	case DriverPostgres, "postgres":
		return Postgres, nil
	}
	return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
}

// Placeholder returns the bind parameter for the 1-based position n.
func (d Dialect) Placeholder(n int) string {
	if d.Driver == DriverPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// classify maps driver constraint errors onto ErrConflict / ErrConstraint.
func (d Dialect) classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return fmt.Errorf("%s: %w", pgErr.Message, ErrConflict)
		case strings.HasPrefix(pgErr.Code, "23"):
			return fmt.Errorf("%s: %w", pgErr.Message, ErrConstraint)
		}
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%s: %w", msg, ErrConflict)
	case strings.Contains(msg, "constraint failed"):
		return fmt.Errorf("%s: %w", msg, ErrConstraint)
	}
	return err
}

// quoteIdent quotes an identifier. Identifiers come from validated entity
// definitions, never from request input.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
