package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/port"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// MigrationNames - имена встроенных миграций в порядке применения
func MigrationNames() ([]string, error) {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Migrate применяет еще не примененные миграции, каждую в своей транзакции.
// Возвращает число примененных.
func Migrate(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "PostgresMigrator"})

	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return 0, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	names, err := MigrationNames()
	if err != nil {
		return 0, fmt.Errorf("failed to list migrations: %w", err)
	}

	applied := 0
	for _, name := range names {
		body, err := migrationFiles.ReadFile(name)
		if err != nil {
			return applied, fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return applied, fmt.Errorf("failed to begin transaction: %w", err)
		}

		tag, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1) ON CONFLICT DO NOTHING`, name)
		if err != nil {
			tx.Rollback(ctx)
			return applied, fmt.Errorf("failed to register migration %s: %w", name, err)
		}
		if tag.RowsAffected() == 0 {
			tx.Rollback(ctx)
			logger.Debug("Migration already applied", port.Fields{"migration": name})
			continue
		}

		if _, err := tx.Exec(ctx, string(body)); err != nil {
			tx.Rollback(ctx)
			return applied, fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return applied, fmt.Errorf("failed to commit migration %s: %w", name, err)
		}

		applied++
		logger.Info("Migration applied", port.Fields{"migration": name})
	}
	return applied, nil
}
