package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/matthewbaird/gigwizard/internal/storage"
	"github.com/matthewbaird/gigwizard/internal/types"
)

// Store is the interface for reading and writing activity entries.
type Store interface {
	// WriteEntries writes one or more activity entries (one event → many entries).
	// Writing the same event twice is a no-op.
	WriteEntries(ctx context.Context, entries []types.ActivityEntry) error

	// QueryByEntity returns activity entries for a specific entity, newest first.
	QueryByEntity(ctx context.Context, entityType, entityID string, opts QueryOptions) (entries []types.ActivityEntry, nextCursor string, totalCount int, err error)
}

const activityTable = "activity_entries"

var activityColumns = []string{
	"event_id", "event_type", "occurred_at", "indexed_entity_type", "indexed_entity_id",
	"entity_role", "source_refs", "summary", "category", "weight", "payload",
}

// PostgresStore implements Store on a Postgres table through pgx.
type PostgresStore struct {
	db storage.Querier
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db storage.Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateTable creates the activity_entries table and its lookup index.
func (s *PostgresStore) CreateTable(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS activity_entries (
			event_id            TEXT NOT NULL,
			event_type          TEXT NOT NULL,
			occurred_at         TIMESTAMPTZ NOT NULL,
			indexed_entity_type TEXT NOT NULL,
			indexed_entity_id   TEXT NOT NULL,
			entity_role         TEXT NOT NULL,
			source_refs         JSONB NOT NULL DEFAULT '[]',
			summary             TEXT NOT NULL,
			category            TEXT NOT NULL,
			weight              TEXT NOT NULL,
			payload             JSONB,
			PRIMARY KEY (indexed_entity_type, indexed_entity_id, event_id)
		);

		CREATE INDEX IF NOT EXISTS idx_activity_entity_time
			ON activity_entries (indexed_entity_type, indexed_entity_id, occurred_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("creating %s table: %w", activityTable, err)
	}
	return nil
}

// WriteEntries inserts activity entries in one statement.
func (s *PostgresStore) WriteEntries(ctx context.Context, entries []types.ActivityEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	insert := entsql.Dialect(dialect.Postgres).
		Insert(activityTable).
		Columns(activityColumns...)
	for _, e := range entries {
		refsJSON, err := json.Marshal(e.SourceRefs)
		if err != nil {
			return fmt.Errorf("encoding source refs: %w", err)
		}
		var payload any
		if len(e.Payload) > 0 {
			payload = []byte(e.Payload)
		}
		insert.Values(
			e.EventID, e.EventType, e.OccurredAt.UTC(), e.IndexedEntityType, e.IndexedEntityID,
			e.EntityRole, refsJSON, e.Summary, e.Category, e.Weight, payload,
		)
	}
	query, args := insert.OnConflict(entsql.DoNothing()).Query()

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("writing activity entries: %w", err)
	}
	return nil
}

// entityPredicate builds the WHERE clause for QueryByEntity. It is rebuilt for
// every statement because ent predicates accumulate their arguments.
func entityPredicate(entityType, entityID string, opts QueryOptions) *entsql.Predicate {
	preds := []*entsql.Predicate{
		entsql.EQ("indexed_entity_type", entityType),
		entsql.EQ("indexed_entity_id", entityID),
	}
	if opts.Since != nil {
		preds = append(preds, entsql.GTE("occurred_at", opts.Since.UTC()))
	}
	if opts.Until != nil {
		preds = append(preds, entsql.LTE("occurred_at", opts.Until.UTC()))
	}
	if len(opts.Categories) > 0 {
		cats := make([]any, len(opts.Categories))
		for i, c := range opts.Categories {
			cats[i] = c
		}
		preds = append(preds, entsql.In("category", cats...))
	}
	if opts.MinWeight != "" && opts.MinWeight != "info" {
		var weights []any
		for w := range types.WeightOrder {
			if types.IsAtLeastWeight(w, opts.MinWeight) {
				weights = append(weights, w)
			}
		}
		if len(weights) > 0 {
			preds = append(preds, entsql.In("weight", weights...))
		}
	}
	if cursor, ok := opts.cursor(); ok {
		preds = append(preds, entsql.LT("occurred_at", cursor.UTC()))
	}
	return entsql.And(preds...)
}

// QueryByEntity returns activity entries for a specific entity with filtering and pagination.
func (s *PostgresStore) QueryByEntity(ctx context.Context, entityType, entityID string, opts QueryOptions) ([]types.ActivityEntry, string, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", 0, err
	}
	limit := opts.limit()

	query, args := entsql.Dialect(dialect.Postgres).
		Select(activityColumns...).
		From(entsql.Table(activityTable)).
		Where(entityPredicate(entityType, entityID, opts)).
		OrderBy(entsql.Desc("occurred_at")).
		Limit(limit + 1). // one extra for the cursor
		Query()

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, "", 0, fmt.Errorf("querying activity entries: %w", err)
	}
	defer rows.Close()

	var entries []types.ActivityEntry
	for rows.Next() {
		var e types.ActivityEntry
		var refsJSON, payloadJSON []byte
		err := rows.Scan(
			&e.EventID, &e.EventType, &e.OccurredAt, &e.IndexedEntityType, &e.IndexedEntityID,
			&e.EntityRole, &refsJSON, &e.Summary, &e.Category, &e.Weight, &payloadJSON,
		)
		if err != nil {
			return nil, "", 0, fmt.Errorf("scanning activity entry: %w", err)
		}
		if len(refsJSON) > 0 {
			_ = json.Unmarshal(refsJSON, &e.SourceRefs)
		}
		e.Payload = payloadJSON
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, "", 0, fmt.Errorf("reading activity entries: %w", err)
	}

	var nextCursor string
	if len(entries) > limit {
		entries = entries[:limit]
		nextCursor = entries[len(entries)-1].OccurredAt.Format(time.RFC3339Nano)
	}

	countQuery, countArgs := entsql.Dialect(dialect.Postgres).
		Select(entsql.Count("*")).
		From(entsql.Table(activityTable)).
		Where(entityPredicate(entityType, entityID, opts)).
		Query()
	var totalCount int
	if err := s.db.QueryRow(ctx, countQuery, countArgs...).Scan(&totalCount); err != nil {
		return nil, "", 0, fmt.Errorf("counting activity entries: %w", err)
	}

	return entries, nextCursor, totalCount, nil
}
