package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

// WaitForDatabase polls the DSN until Postgres accepts connections or the
// deadline passes. Containerized deployments start the database and the
// aggregator together, so the first run frequently races the DB boot.
func WaitForDatabase(ctx context.Context, dsn string, deadline time.Duration) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer db.Close()

	waitCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	var lastErr error
	for {
		if lastErr = db.PingContext(waitCtx); lastErr == nil {
			return nil
		}
		select {
		case <-waitCtx.Done():
			return fmt.Errorf("database not ready: %w (last: %v)", waitCtx.Err(), lastErr)
		case <-time.After(time.Second):
		}
	}
}

// RunMigrations runs SQL migrations from the given directory (e.g. "file://migrations") against the DSN.
func RunMigrations(dsn string, migrationsPath string) error {
	m, err := migrate.New(migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("migrate.New: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migrate.Up: %w", err)
	}
	return nil
}
