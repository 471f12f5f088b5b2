package testhelpers

import (
	"context"
	"database/sql"
	"testing"

	"github.com/johnwards/backoffice/internal/database"
	"github.com/johnwards/backoffice/internal/entities"
	"github.com/johnwards/backoffice/internal/store"
)

// NewTestDB returns an in-memory SQLite database configured the same way as
// production. The database is automatically closed when the test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(store.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// NewTestStore returns a migrated in-memory store.
func NewTestStore(t *testing.T) *store.Store {
	t.Helper()

	db := NewTestDB(t)
	if err := database.Migrate(context.Background(), db, store.SQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store.New(db, store.SQLite)
}

// Registry loads the embedded entity catalog.
func Registry(t *testing.T) *entities.Registry {
	t.Helper()

	reg, err := entities.Default()
	if err != nil {
		t.Fatalf("load entities: %v", err)
	}
	return reg
}
