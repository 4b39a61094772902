package eventbus

import (
	"context"
	"log"
	"strings"

	"github.com/matthewbaird/gigwizard/internal/event"
)

// LogConsumer logs all gig lifecycle events.
type LogConsumer struct{}

func NewLogConsumer() *LogConsumer { return &LogConsumer{} }

func (c *LogConsumer) HandleEvent(_ context.Context, evt event.DomainEvent) error {
	entities := make([]string, len(evt.AffectedEntities))
	for i, ref := range evt.AffectedEntities {
		id := ref.EntityID
		if len(id) > 8 && ref.EntityType != "draft" {
			id = id[:8]
		}
		entities[i] = ref.EntityType + ":" + id
	}
	log.Printf("event: %s [%s/%s] %s entities=%s",
		evt.EventType, evt.Category, evt.Weight, evt.Summary, strings.Join(entities, ","))
	return nil
}
