package database

import (
	"strings"

	"github.com/johnwards/backoffice/internal/store"
)

// migrations is an ordered list of SQL migration groups. Each entry is a slice
// of SQL statements that are executed together in a single transaction. The
// version number is the 1-based index into this slice.
//
// Statements are written once; {{pk}} and {{real}} are replaced with the
// dialect's auto-increment key and floating point column types.
var migrations = [][]string{
	// Migration 1: catalog tables
	{
		`CREATE TABLE product_categories (
			id {{pk}},
			name TEXT NOT NULL,
			slug TEXT UNIQUE,
			parent_id INTEGER REFERENCES product_categories(id) ON DELETE SET NULL,
			description TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,

		`CREATE INDEX idx_product_categories_parent ON product_categories(parent_id)`,

		`CREATE TABLE attribute_groups (
			id {{pk}},
			name TEXT NOT NULL,
			code TEXT UNIQUE NOT NULL,
			description TEXT,
			is_filterable BOOLEAN NOT NULL DEFAULT FALSE,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,

		`CREATE TABLE products (
			id {{pk}},
			sku TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			category_id INTEGER REFERENCES product_categories(id) ON DELETE SET NULL,
			attribute_group_id INTEGER REFERENCES attribute_groups(id) ON DELETE SET NULL,
			price {{real}} NOT NULL CHECK (price >= 0),
			stock INTEGER NOT NULL DEFAULT 0,
			description TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,

		`CREATE INDEX idx_products_category ON products(category_id)`,
	},

	// Migration 2: contacts and replenishment
	{
		`CREATE TABLE contacts (
			id {{pk}},
			first_name TEXT NOT NULL,
			last_name TEXT,
			email TEXT UNIQUE NOT NULL,
			phone TEXT,
			company TEXT,
			kind TEXT NOT NULL DEFAULT 'lead',
			notes TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,

		`CREATE TABLE replenishment_rules (
			id {{pk}},
			product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			supplier_id INTEGER REFERENCES contacts(id) ON DELETE SET NULL,
			reorder_point INTEGER NOT NULL,
			reorder_qty INTEGER NOT NULL CHECK (reorder_qty > 0),
			lead_time_days INTEGER NOT NULL DEFAULT 7,
			next_review TEXT,
			is_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,

		`CREATE INDEX idx_replenishment_product ON replenishment_rules(product_id)`,
	},

	// Migration 3: action log
	{
		`CREATE TABLE action_log (
			id {{pk}},
			entity TEXT NOT NULL,
			action TEXT NOT NULL,
			status TEXT NOT NULL,
			record_id TEXT,
			correlation_id TEXT,
			created_at TEXT NOT NULL
		)`,

		`CREATE INDEX idx_action_log_time ON action_log(created_at)`,
	},
}

// migrationsFor renders the migrations for a dialect.
func migrationsFor(dialect store.Dialect) [][]string {
	r := strings.NewReplacer(
		"{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{real}}", "REAL",
	)
	if dialect.Driver == store.DriverPostgres {
		r = strings.NewReplacer(
			"{{pk}}", "BIGSERIAL PRIMARY KEY",
			"{{real}}", "DOUBLE PRECISION",
		)
	}

	out := make([][]string, len(migrations))
	for i, stmts := range migrations {
		out[i] = make([]string, len(stmts))
		for j, stmt := range stmts {
			out[i][j] = r.Replace(stmt)
		}
	}
	return out
}

// DataTables lists the entity and log tables in foreign-key-safe deletion
// order.
var DataTables = []string{
	"action_log",
	"replenishment_rules",
	"contacts",
	"products",
	"attribute_groups",
	"product_categories",
}
