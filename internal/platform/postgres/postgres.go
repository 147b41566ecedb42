// Package postgres opens the PostgreSQL connection pool and applies the
// embedded schema migrations.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

var (
	connectRetries = 10
	retryDelay     = 2 * time.Second
	pingTimeout    = 2 * time.Second
)

// Config holds pool settings.
type Config struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
}

// Open connects through the pgx stdlib driver, retrying until the database
// answers a ping or the retries run out.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	var lastErr error
	for attempt := 1; attempt <= connectRetries; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = db.PingContext(pingCtx)
		cancel()
		if lastErr == nil {
			return db, nil
		}
		if logger != nil {
			logger.WarnContext(ctx, "postgres not ready", "attempt", attempt, "error", lastErr)
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	_ = db.Close()
	return nil, fmt.Errorf("postgres ping retries exhausted: %w", lastErr)
}

// Migrate applies every embedded migration not yet recorded in
// schema_migrations, each in its own transaction, in filename order.
func Migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename   TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	files, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		var exists bool
		if err := db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE filename = $1)`, file,
		).Scan(&exists); err != nil {
			return fmt.Errorf("migration lookup: %w", err)
		}
		if exists {
			continue
		}
		body, err := migrationFiles.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		if err := applyMigration(ctx, db, file, string(body)); err != nil {
			return err
		}
		if logger != nil {
			logger.InfoContext(ctx, "applied migration", "file", file)
		}
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, file, body string) error {
	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", file, err)
	}
	if _, err := sqlTx.ExecContext(ctx, body); err != nil {
		_ = sqlTx.Rollback()
		return fmt.Errorf("apply migration %s: %w", file, err)
	}
	if _, err := sqlTx.ExecContext(ctx, `INSERT INTO schema_migrations (filename) VALUES ($1)`, file); err != nil {
		_ = sqlTx.Rollback()
		return fmt.Errorf("mark migration %s: %w", file, err)
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", file, err)
	}
	return nil
}
