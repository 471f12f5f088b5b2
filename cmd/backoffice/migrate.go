package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/johnwards/backoffice/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, db, dialect, logCloser, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = logCloser.Close() }()
		defer func() { _ = db.Close() }()

		if err := database.Migrate(cmd.Context(), db, dialect); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		version, err := database.Version(cmd.Context(), db)
		if err != nil {
			return err
		}
		slog.Info("database migrated", "driver", dialect.Driver, "version", version)
		return nil
	},
}
