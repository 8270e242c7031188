package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

// MigrateRepositoryTable creates (or upgrades) the repository cache table named table.
// Each table name keeps its own goose version table, <table>_schema_version,
// so several caches can share one database.
func MigrateRepositoryTable(ctx context.Context, db *sql.DB, table string) error {
	if err := validateTableName(table); err != nil {
		return err
	}

	store, err := database.NewStore(database.DialectPostgres, table+"_schema_version")
	if err != nil {
		return fmt.Errorf("failed to create goose store: %w", err)
	}

	provider, err := goose.NewProvider("", db, nil,
		goose.WithStore(store),
		goose.WithDisableGlobalRegistry(true),
		goose.WithGoMigrations(repositoryTableMigrations(table)...),
	)
	if err != nil {
		return fmt.Errorf("failed to create goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations for %s: %w", table, err)
	}
	for _, result := range results {
		log.Printf("Applied migration %d for table %s (%s)", result.Source.Version, table, result.Duration)
	}

	return nil
}

// repositoryTableMigrations returns the schema history for a repository cache table
func repositoryTableMigrations(table string) []*goose.Migration {
	quoted := pq.QuoteIdentifier(table)
	identityKey := pq.QuoteIdentifier(table + "_identity_key")

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			identity TEXT NOT NULL,
			description TEXT,
			clone_url TEXT NOT NULL,
			stars INTEGER NOT NULL CHECK (stars >= 0),
			created_at TIMESTAMPTZ NOT NULL,
			last_refreshed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			ttl_seconds DOUBLE PRECISION NOT NULL DEFAULT 3600 CHECK (ttl_seconds > 0),
			CONSTRAINT %s UNIQUE (identity)
		)`, quoted, identityKey)

	dropTable := fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoted)

	return []*goose.Migration{
		goose.NewGoMigration(1,
			&goose.GoFunc{RunTx: func(ctx context.Context, tx *sql.Tx) error {
				_, err := tx.ExecContext(ctx, createTable)
				return err
			}},
			&goose.GoFunc{RunTx: func(ctx context.Context, tx *sql.Tx) error {
				_, err := tx.ExecContext(ctx, dropTable)
				return err
			}},
		),
	}
}
