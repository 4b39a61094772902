// Package event records gig lifecycle events into the activity feed and hands
// them to the in-process bus.
package event

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matthewbaird/gigwizard/internal/activity"
	"github.com/matthewbaird/gigwizard/internal/types"
)

// ErrNoEntities is returned by Record for an event that names no entity to
// index it under.
var ErrNoEntities = errors.New("event has no affected entities")

// Recorder persists gig lifecycle events.
type Recorder interface {
	Record(ctx context.Context, evt DomainEvent) error
}

// Publisher delivers recorded events to in-process consumers.
type Publisher interface {
	Publish(ctx context.Context, evt DomainEvent)
}

// ActivityRecorder indexes each event once per distinct entity it touches, so
// a gig, its owner and a discarded draft each get a feed row. The bus only
// sees events whose rows were written.
type ActivityRecorder struct {
	store activity.Store
	bus   Publisher
}

// NewActivityRecorder creates a recorder writing to store.
func NewActivityRecorder(store activity.Store) *ActivityRecorder {
	return &ActivityRecorder{store: store}
}

// SetPublisher attaches the bus.
func (r *ActivityRecorder) SetPublisher(p Publisher) {
	r.bus = p
}

// Record writes evt's feed rows and then publishes it.
func (r *ActivityRecorder) Record(ctx context.Context, evt DomainEvent) error {
	entries := feedEntries(evt)
	if len(entries) == 0 {
		return fmt.Errorf("%s %s: %w", evt.EventType, evt.ID, ErrNoEntities)
	}
	if err := r.store.WriteEntries(ctx, entries); err != nil {
		return fmt.Errorf("writing %s: %w", evt.EventType, err)
	}
	if r.bus != nil {
		r.bus.Publish(ctx, evt)
	}
	return nil
}

// feedEntries builds one row per distinct (type, id) ref. Refs without an id
// are skipped; a repeated ref keeps its first role.
func feedEntries(evt DomainEvent) []types.ActivityEntry {
	category := evt.Category
	if category == "" {
		category = categoryOf(evt.EventType)
	}
	weight := evt.Weight
	if weight == "" {
		weight = "info"
	}
	summary := evt.Summary
	if summary == "" {
		summary = evt.EventType
	}

	seen := make(map[types.SourceRef]bool, len(evt.AffectedEntities))
	refs := make([]types.SourceRef, 0, len(evt.AffectedEntities))
	for _, ref := range evt.AffectedEntities {
		if ref.EntityID == "" {
			continue
		}
		k := types.SourceRef{EntityType: ref.EntityType, EntityID: ref.EntityID}
		if seen[k] {
			continue
		}
		seen[k] = true
		refs = append(refs, ref)
	}

	entries := make([]types.ActivityEntry, len(refs))
	for i, ref := range refs {
		entries[i] = types.ActivityEntry{
			EventID:           evt.ID,
			EventType:         evt.EventType,
			OccurredAt:        evt.OccurredAt,
			IndexedEntityType: ref.EntityType,
			IndexedEntityID:   ref.EntityID,
			EntityRole:        ref.Role,
			SourceRefs:        refs,
			Summary:           summary,
			Category:          category,
			Weight:            weight,
			Payload:           evt.Payload,
		}
	}
	return entries
}

// categoryOf maps gig.draft.* to "draft" and every other type to "gig".
func categoryOf(eventType string) string {
	if strings.HasPrefix(eventType, "gig.draft.") {
		return "draft"
	}
	return "gig"
}
