package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/johnwards/backoffice/internal/config"
	"github.com/johnwards/backoffice/internal/database"
	"github.com/johnwards/backoffice/internal/entities"
	"github.com/johnwards/backoffice/internal/logging"
	"github.com/johnwards/backoffice/internal/metrics"
	"github.com/johnwards/backoffice/internal/seed"
	"github.com/johnwards/backoffice/internal/server"
	"github.com/johnwards/backoffice/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

// setup loads configuration, installs the logger and opens the database.
func setup() (config.Config, *sql.DB, store.Dialect, io.Closer, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return cfg, nil, store.Dialect{}, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	_, logCloser, err := logging.New(cfg)
	if err != nil {
		return cfg, nil, store.Dialect{}, nil, fmt.Errorf("init logging: %w", err)
	}

	dialect, err := store.DialectFor(cfg.DBDriver)
	if err != nil {
		_ = logCloser.Close()
		return cfg, nil, store.Dialect{}, nil, err
	}

	db, err := database.Open(dialect.Driver, cfg.DBPath)
	if err != nil {
		_ = logCloser.Close()
		return cfg, nil, store.Dialect{}, nil, fmt.Errorf("open database: %w", err)
	}
	return cfg, db, dialect, logCloser, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, db, dialect, logCloser, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := database.Migrate(ctx, db, dialect); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	m := metrics.New()
	reg, err := entities.Default(entities.WithObserver(m.ObserveBuild))
	if err != nil {
		return fmt.Errorf("load entities: %w", err)
	}

	s := store.New(db, dialect)
	if cfg.Seed {
		if err := seed.Seed(ctx, s, reg); err != nil {
			return fmt.Errorf("seed data: %w", err)
		}
	}

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: server.New(server.Deps{
			Store:     s,
			Registry:  reg,
			Metrics:   m,
			AuthToken: cfg.AuthToken,
		}),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("shutting down server")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("starting backoffice server", "addr", cfg.Addr, "driver", dialect.Driver, "entities", reg.Names())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}

	return nil
}
