package gig

import (
	"context"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/matthewbaird/gigwizard/internal/storage"
	"github.com/matthewbaird/gigwizard/internal/types"
)

// PostgresRepository implements Repository on Postgres through pgx. It shares
// the SQLite layout with a JSONB document and timestamptz columns.
type PostgresRepository struct {
	db  storage.Querier
	now func() time.Time
}

// NewPostgresRepository wraps a pgx connection or pool.
func NewPostgresRepository(db storage.Querier) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

// CreateTable creates the gigs table if it does not exist.
func (r *PostgresRepository) CreateTable(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS gigs (
			id         TEXT PRIMARY KEY,
			owner_id   TEXT NOT NULL,
			title      TEXT NOT NULL DEFAULT '',
			status     TEXT NOT NULL DEFAULT 'DRAFT',
			start_at   TIMESTAMPTZ,
			fields     JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_gigs_owner_updated ON gigs (owner_id, updated_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("creating %s table: %w", gigTable, err)
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, ownerID string, fields types.GigFields) (string, error) {
	doc, err := encodeFields(fields)
	if err != nil {
		return "", err
	}
	id := uuid.New().String()
	now := r.now().UTC()

	query, args := entsql.Dialect(dialect.Postgres).
		Insert(gigTable).
		Columns("id", "owner_id", "title", "status", "start_at", "fields", "created_at", "updated_at").
		Values(id, ownerID, fields.Title, string(fields.Status), startColumn(fields), doc, now, now).
		Query()
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return "", fmt.Errorf("inserting gig: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, fields types.GigFields) error {
	doc, err := encodeFields(fields)
	if err != nil {
		return err
	}
	query, args := entsql.Dialect(dialect.Postgres).
		Update(gigTable).
		Set("title", fields.Title).
		Set("status", string(fields.Status)).
		Set("start_at", startColumn(fields)).
		Set("fields", doc).
		Set("updated_at", r.now().UTC()).
		Where(entsql.EQ("id", id)).
		Query()

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating gig %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPostgresGig(row pgx.Row) (Gig, error) {
	var (
		g   Gig
		doc []byte
	)
	if err := row.Scan(&g.ID, &g.OwnerID, &doc, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return Gig{}, err
	}
	fields, err := decodeFields(doc)
	if err != nil {
		return Gig{}, err
	}
	g.Fields = fields
	g.CreatedAt = g.CreatedAt.UTC()
	g.UpdatedAt = g.UpdatedAt.UTC()
	return g, nil
}

func (r *PostgresRepository) Fetch(ctx context.Context, id string) (Gig, error) {
	query, args := entsql.Dialect(dialect.Postgres).
		Select(gigColumns...).
		From(entsql.Table(gigTable)).
		Where(entsql.EQ("id", id)).
		Query()

	g, err := scanPostgresGig(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Gig{}, ErrNotFound
	}
	if err != nil {
		return Gig{}, fmt.Errorf("reading gig %s: %w", id, err)
	}
	return g, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]Gig, error) {
	query, args := entsql.Dialect(dialect.Postgres).
		Select(gigColumns...).
		From(entsql.Table(gigTable)).
		Where(entsql.EQ("owner_id", ownerID)).
		OrderBy(entsql.Desc("updated_at"), "id").
		Query()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing gigs for %s: %w", ownerID, err)
	}
	defer rows.Close()

	var out []Gig
	for rows.Next() {
		g, err := scanPostgresGig(rows)
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
