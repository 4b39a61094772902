package draft

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "modernc.org/sqlite"
)

const draftTable = "local_drafts"

// SQLiteStore implements Store on a SQLite table, one row per key.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore wraps an open database. Call Migrate before first use.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Migrate creates the draft table if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS local_drafts (
	draft_key   TEXT PRIMARY KEY,
	draft_value TEXT NOT NULL,
	updated_at  INTEGER NOT NULL
);`)
	if err != nil {
		return fmt.Errorf("creating %s table: %w", draftTable, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	query, args := entsql.Dialect(dialect.SQLite).
		Select("draft_value").
		From(entsql.Table(draftTable)).
		Where(entsql.EQ("draft_key", key)).
		Query()

	var value string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading draft key %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(draftTable).
		Columns("draft_key", "draft_value", "updated_at").
		Values(key, value, s.now().UTC().UnixMilli()).
		OnConflict(
			entsql.ConflictColumns("draft_key"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("writing draft key %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	query, args := entsql.Dialect(dialect.SQLite).
		Delete(draftTable).
		Where(entsql.EQ("draft_key", key)).
		Query()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting draft key %s: %w", key, err)
	}
	return nil
}
