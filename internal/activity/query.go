// Package activity stores the per-entity activity stream built from gig
// lifecycle events, so a gig's history (drafted, published, updated) can be
// listed without replaying the event bus.
package activity

import "time"

// QueryOptions controls filtering and pagination for entity activity queries.
type QueryOptions struct {
	Since      *time.Time
	Until      *time.Time
	Categories []string
	MinWeight  string // default: "info"
	Limit      int    // default: 100, max: 500
	Cursor     string // occurred_at of the last entry of the previous page
}

// DefaultQueryOptions returns options covering the last six months.
func DefaultQueryOptions() QueryOptions {
	sixMonthsAgo := time.Now().AddDate(0, -6, 0)
	now := time.Now()
	return QueryOptions{
		Since:     &sixMonthsAgo,
		Until:     &now,
		MinWeight: "info",
		Limit:     100,
	}
}

func (o QueryOptions) limit() int {
	if o.Limit <= 0 || o.Limit > 500 {
		return 100
	}
	return o.Limit
}

func (o QueryOptions) cursor() (time.Time, bool) {
	if o.Cursor == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, o.Cursor)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
