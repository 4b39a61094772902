// Package storage opens the databases behind the draft store, the gig
// repository and the activity stream.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// DefaultSQLiteDSN is used when no DATABASE_URL is configured.
const DefaultSQLiteDSN = "file:gigwizard.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// OpenSQLite opens and pings a SQLite database. The pool is limited to one
// connection so writers never contend for the file lock.
func OpenSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = DefaultSQLiteDSN
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	return db, nil
}
