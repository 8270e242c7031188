package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"Repocache/internal/core/repositories"
)

const repositoryColumns = `identity, description, clone_url, stars, created_at, last_refreshed_at, ttl_seconds`

type postgresRepositoryStore struct {
	db *sql.DB

	getQuery    string
	insertQuery string
	updateQuery string
	deleteQuery string
}

// NewRepositoryStore creates a PostgreSQL repository cache store over table.
// The table must already exist (see MigrateRepositoryTable).
func NewRepositoryStore(db *sql.DB, table string) (repositories.Store, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: db", repositories.ErrNilDependency)
	}
	if err := validateTableName(table); err != nil {
		return nil, err
	}

	quoted := pq.QuoteIdentifier(table)

	return &postgresRepositoryStore{
		db: db,

		getQuery: fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE identity = $1`, repositoryColumns, quoted),

		// Single-statement insert-or-merge: concurrent refreshes of one identity
		// serialise on the unique constraint, never interleaving field writes.
		// created_at is only written on insert.
		insertQuery: fmt.Sprintf(`
			INSERT INTO %[1]s AS t (identity, description, clone_url, stars, created_at, last_refreshed_at, ttl_seconds)
			VALUES ($1, $2::text, $3, $4, $5, COALESCE($6::timestamptz, NOW()), COALESCE($7::double precision, 3600))
			ON CONFLICT (identity) DO UPDATE
			SET description = CASE WHEN $8::boolean THEN EXCLUDED.description ELSE t.description END,
			    clone_url = EXCLUDED.clone_url,
			    stars = EXCLUDED.stars,
			    ttl_seconds = CASE WHEN $7::double precision IS NULL THEN t.ttl_seconds ELSE EXCLUDED.ttl_seconds END,
			    last_refreshed_at = GREATEST(t.last_refreshed_at, EXCLUDED.last_refreshed_at)
			RETURNING %[2]s`, quoted, repositoryColumns),

		updateQuery: fmt.Sprintf(`
			UPDATE %[1]s
			SET description = CASE WHEN $2::boolean THEN $3::text ELSE description END,
			    clone_url = COALESCE($4::text, clone_url),
			    stars = COALESCE($5::integer, stars),
			    ttl_seconds = COALESCE($6::double precision, ttl_seconds),
			    last_refreshed_at = GREATEST(last_refreshed_at, COALESCE($7::timestamptz, NOW()))
			WHERE identity = $1
			RETURNING %[2]s`, quoted, repositoryColumns),

		deleteQuery: fmt.Sprintf(`DELETE FROM %s WHERE identity = $1`, quoted),
	}, nil
}

// Get retrieves the record for identity.
// Returns ErrRecordNotFound if absent, ErrStoreUnavailable on database failures.
func (s *postgresRepositoryStore) Get(ctx context.Context, identity string) (*repositories.Repository, error) {
	record, err := scanRepository(s.db.QueryRowContext(ctx, s.getQuery, identity))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", repositories.ErrRecordNotFound, identity)
	}
	if err != nil {
		return nil, translateError("get repository", err)
	}
	return record, nil
}

// Upsert merges update into the record for identity in a single statement.
// A complete update inserts when absent; a partial update only modifies an
// existing record and returns ErrIncompleteRecord otherwise.
func (s *postgresRepositoryStore) Upsert(ctx context.Context, identity string, update repositories.RepositoryUpdate) (*repositories.Repository, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	var description sql.NullString
	if update.Description != nil && !update.ClearDescription {
		description = sql.NullString{String: *update.Description, Valid: true}
	}
	var refreshedAt sql.NullTime
	if update.RefreshedAt != nil {
		refreshedAt = sql.NullTime{Time: update.RefreshedAt.UTC(), Valid: true}
	}
	var ttlSeconds sql.NullFloat64
	if update.TTLSeconds != nil {
		ttlSeconds = sql.NullFloat64{Float64: *update.TTLSeconds, Valid: true}
	}

	if update.Complete() {
		record, err := scanRepository(s.db.QueryRowContext(ctx, s.insertQuery,
			identity,
			description,
			*update.CloneURL,
			*update.Stars,
			update.CreatedAt.UTC(),
			refreshedAt,
			ttlSeconds,
			update.DescriptionProvided(),
		))
		if err != nil {
			return nil, translateError("upsert repository", err)
		}
		return record, nil
	}

	var cloneURL sql.NullString
	if update.CloneURL != nil {
		cloneURL = sql.NullString{String: *update.CloneURL, Valid: true}
	}
	var stars sql.NullInt64
	if update.Stars != nil {
		stars = sql.NullInt64{Int64: int64(*update.Stars), Valid: true}
	}

	record, err := scanRepository(s.db.QueryRowContext(ctx, s.updateQuery,
		identity,
		update.DescriptionProvided(),
		description,
		cloneURL,
		stars,
		ttlSeconds,
		refreshedAt,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: clone_url, stars and created_at are required to insert %s",
			repositories.ErrIncompleteRecord, identity)
	}
	if err != nil {
		return nil, translateError("update repository", err)
	}
	return record, nil
}

// Delete removes the record for identity; absent records are not an error
func (s *postgresRepositoryStore) Delete(ctx context.Context, identity string) error {
	if _, err := s.db.ExecContext(ctx, s.deleteQuery, identity); err != nil {
		return translateError("delete repository", err)
	}
	return nil
}

// Ping runs a trivial query against the database
func (s *postgresRepositoryStore) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return translateError("ping", err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRepository(row rowScanner) (*repositories.Repository, error) {
	var (
		record      repositories.Repository
		description sql.NullString
		createdAt   time.Time
		refreshedAt time.Time
	)

	err := row.Scan(
		&record.Identity,
		&description,
		&record.CloneURL,
		&record.Stars,
		&createdAt,
		&refreshedAt,
		&record.TTLSeconds,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		record.Description = &description.String
	}
	record.CreatedAt = createdAt.UTC()
	record.LastRefreshedAt = refreshedAt.UTC()

	return &record, nil
}

// translateError maps driver errors onto the store error taxonomy.
// Integrity violations are reported as invalid records; everything else means
// the store could not answer or commit.
func translateError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
		return fmt.Errorf("%w: %s: %s", repositories.ErrInvalidRecord, op, pqErr.Message)
	}
	return fmt.Errorf("%w: %s: %v", repositories.ErrStoreUnavailable, op, err)
}

// validateTableName restricts table names to plain identifiers
func validateTableName(table string) error {
	if table == "" || len(table) > 48 {
		return fmt.Errorf("invalid table name %q: must be 1-48 characters", table)
	}
	for i, c := range table {
		switch {
		case c >= 'a' && c <= 'z', c == '_':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return fmt.Errorf("invalid table name %q: use lowercase letters, digits and underscores", table)
		}
	}
	return nil
}
