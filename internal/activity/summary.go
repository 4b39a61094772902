package activity

import (
	"time"

	"github.com/matthewbaird/gigwizard/internal/types"
)

// Summary is a pre-aggregated view of one entity's activity stream.
type Summary struct {
	EntityType  string         `json:"entity_type"`
	EntityID    string         `json:"entity_id"`
	Total       int            `json:"total"`
	ByCategory  map[string]int `json:"by_category"`
	ByWeight    map[string]int `json:"by_weight"`
	ByEventType map[string]int `json:"by_event_type"`

	FirstAt *time.Time `json:"first_at,omitempty"`
	LastAt  *time.Time `json:"last_at,omitempty"`

	// LastByType holds the newest occurrence of each event type.
	LastByType map[string]time.Time `json:"last_by_type"`
}

// Summarize aggregates entries for one entity. Entries may be in any order.
func Summarize(entries []types.ActivityEntry, entityType, entityID string) Summary {
	s := Summary{
		EntityType:  entityType,
		EntityID:    entityID,
		ByCategory:  make(map[string]int),
		ByWeight:    make(map[string]int),
		ByEventType: make(map[string]int),
		LastByType:  make(map[string]time.Time),
	}
	for _, e := range entries {
		s.Total++
		s.ByCategory[e.Category]++
		s.ByWeight[e.Weight]++
		s.ByEventType[e.EventType]++

		if last, ok := s.LastByType[e.EventType]; !ok || e.OccurredAt.After(last) {
			s.LastByType[e.EventType] = e.OccurredAt
		}
		at := e.OccurredAt
		if s.FirstAt == nil || at.Before(*s.FirstAt) {
			s.FirstAt = &at
		}
		if s.LastAt == nil || at.After(*s.LastAt) {
			s.LastAt = &at
		}
	}
	return s
}
