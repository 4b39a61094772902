package gig

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/matthewbaird/gigwizard/internal/types"
)

const gigTable = "gigs"

var gigColumns = []string{"id", "owner_id", "fields", "created_at", "updated_at"}

// SQLiteRepository implements Repository on SQLite. The field state is stored
// as a JSON document; title, status, owner and start time are copied into
// columns for listing.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository wraps an open database. Call Migrate before first use.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// Migrate creates the gigs table if it does not exist.
func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS gigs (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'DRAFT',
	start_at   INTEGER,
	fields     TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_gigs_owner_updated ON gigs (owner_id, updated_at DESC);`)
	if err != nil {
		return fmt.Errorf("creating %s table: %w", gigTable, err)
	}
	return nil
}

func toMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func (r *SQLiteRepository) Create(ctx context.Context, ownerID string, fields types.GigFields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	doc, err := encodeFields(fields)
	if err != nil {
		return "", err
	}
	id := uuid.New().String()
	now := r.now().UTC().UnixMilli()

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(gigTable).
		Columns("id", "owner_id", "title", "status", "start_at", "fields", "created_at", "updated_at").
		Values(id, ownerID, fields.Title, string(fields.Status), toMillis(startColumn(fields)), doc, now, now).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("inserting gig: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, id string, fields types.GigFields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := encodeFields(fields)
	if err != nil {
		return err
	}
	query, args := entsql.Dialect(dialect.SQLite).
		Update(gigTable).
		Set("title", fields.Title).
		Set("status", string(fields.Status)).
		Set("start_at", toMillis(startColumn(fields))).
		Set("fields", doc).
		Set("updated_at", r.now().UTC().UnixMilli()).
		Where(entsql.EQ("id", id)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating gig %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating gig %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteGig(row rowScanner) (Gig, error) {
	var (
		g                    Gig
		doc                  string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&g.ID, &g.OwnerID, &doc, &createdAt, &updatedAt); err != nil {
		return Gig{}, err
	}
	fields, err := decodeFields([]byte(doc))
	if err != nil {
		return Gig{}, err
	}
	g.Fields = fields
	g.CreatedAt = fromMillis(createdAt)
	g.UpdatedAt = fromMillis(updatedAt)
	return g, nil
}

func (r *SQLiteRepository) Fetch(ctx context.Context, id string) (Gig, error) {
	if err := ctx.Err(); err != nil {
		return Gig{}, err
	}
	query, args := entsql.Dialect(dialect.SQLite).
		Select(gigColumns...).
		From(entsql.Table(gigTable)).
		Where(entsql.EQ("id", id)).
		Query()

	g, err := scanSQLiteGig(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Gig{}, ErrNotFound
	}
	if err != nil {
		return Gig{}, fmt.Errorf("reading gig %s: %w", id, err)
	}
	return g, nil
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]Gig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query, args := entsql.Dialect(dialect.SQLite).
		Select(gigColumns...).
		From(entsql.Table(gigTable)).
		Where(entsql.EQ("owner_id", ownerID)).
		OrderBy(entsql.Desc("updated_at"), "id").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing gigs for %s: %w", ownerID, err)
	}
	defer rows.Close()

	var out []Gig
	for rows.Next() {
		g, err := scanSQLiteGig(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning gig: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing gigs for %s: %w", ownerID, err)
	}
	return out, nil
}
