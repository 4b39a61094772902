package eventbus

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/gigwizard/internal/event"
)

type collector struct {
	mu   sync.Mutex
	seen []string
}

func (c *collector) HandleEvent(_ context.Context, evt event.DomainEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, evt.EventType)
	return nil
}

func (c *collector) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.seen...)
}

func TestBus_DispatchesInOrder(t *testing.T) {
	bus := New(8)
	all := &collector{}
	bus.Subscribe("all", all)
	bus.Start(context.Background())

	bus.Publish(context.Background(), event.DomainEvent{EventType: event.TypeDraftSaved})
	bus.Publish(context.Background(), event.DomainEvent{EventType: event.TypePublished})
	bus.Stop()

	assert.Equal(t, []string{event.TypeDraftSaved, event.TypePublished}, all.types())
}

func TestBus_PrefixFilter(t *testing.T) {
	bus := New(8)
	drafts := &collector{}
	bus.SubscribePrefix("drafts", "gig.draft.", drafts)
	bus.Start(context.Background())

	bus.Publish(context.Background(), event.DomainEvent{EventType: event.TypeDraftSaved})
	bus.Publish(context.Background(), event.DomainEvent{EventType: event.TypeUpdated})
	bus.Publish(context.Background(), event.DomainEvent{EventType: event.TypeDraftDiscarded})
	bus.Stop()

	assert.Equal(t, []string{event.TypeDraftSaved, event.TypeDraftDiscarded}, drafts.types())
}

func TestBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := New(8)
	bus.Subscribe("failing", HandlerFunc(func(context.Context, event.DomainEvent) error {
		return errors.New("boom")
	}))
	after := &collector{}
	bus.Subscribe("after", after)
	bus.Start(context.Background())

	bus.Publish(context.Background(), event.DomainEvent{EventType: event.TypeUpdated})
	bus.Stop()

	assert.Equal(t, []string{event.TypeUpdated}, after.types())
}

func TestBus_DropsWhenFull(t *testing.T) {
	bus := New(1)
	c := &collector{}
	bus.Subscribe("c", c)

	// Not started: the second publish finds the buffer full.
	bus.Publish(context.Background(), event.DomainEvent{EventType: "a"})
	bus.Publish(context.Background(), event.DomainEvent{EventType: "b"})

	bus.Start(context.Background())
	bus.Stop()
	assert.Equal(t, []string{"a"}, c.types())
}

func TestBus_PublishAfterStopIsDropped(t *testing.T) {
	bus := New(1)
	bus.Start(context.Background())
	bus.Stop()
	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), event.DomainEvent{EventType: "late"})
	})
	assert.NotPanics(t, bus.Stop)
}

func TestBus_DrainsOnCancel(t *testing.T) {
	bus := New(8)
	c := &collector{}
	bus.Subscribe("c", c)
	ctx, cancel := context.WithCancel(context.Background())
	bus.Start(ctx)

	bus.Publish(ctx, event.DomainEvent{EventType: "x"})
	require.Eventually(t, func() bool { return len(c.types()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	bus.Stop()
}

func TestLogConsumer(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	evt := event.NewPublished(event.GigCommittedPayload{GigID: "0123456789abcdef", OwnerID: "owner-123456", Title: "Shoot"})
	require.NoError(t, NewLogConsumer().HandleEvent(context.Background(), evt))
	assert.Contains(t, buf.String(), "event: gig.published [gig/major]")
	assert.Contains(t, buf.String(), "gig:01234567")
}
