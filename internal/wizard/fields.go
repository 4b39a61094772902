package wizard

import (
	"sync"

	"github.com/matthewbaird/gigwizard/internal/types"
)

// ChangeFunc is called after every FieldStore.Set with the applied patch and
// the resulting snapshot.
type ChangeFunc func(patch types.GigPatch, fields types.GigFields)

// FieldStore holds the current field values of one gig. It performs no
// validation. Snapshots returned from Get and Set are deep copies.
type FieldStore struct {
	mu          sync.RWMutex
	fields      types.GigFields
	subscribers map[int]ChangeFunc
	nextID      int
}

// NewFieldStore creates a store holding initial.
func NewFieldStore(initial types.GigFields) *FieldStore {
	return &FieldStore{
		fields:      initial.Clone(),
		subscribers: make(map[int]ChangeFunc),
	}
}

// Get returns a snapshot of the current fields.
func (s *FieldStore) Get() types.GigFields {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fields.Clone()
}

// Set overlays the present keys of patch and notifies every subscriber exactly
// once, even when the values did not change.
func (s *FieldStore) Set(patch types.GigPatch) types.GigFields {
	s.mu.Lock()
	s.fields = s.fields.Apply(patch)
	snapshot := s.fields.Clone()
	subs := make([]ChangeFunc, 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(patch, snapshot.Clone())
	}
	return snapshot
}

// Load replaces the fields without notifying subscribers. Used when hydrating
// from the server or from a restored draft.
func (s *FieldStore) Load(fields types.GigFields) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields = fields.Clone()
}

// Subscribe registers fn and returns a function that removes it.
func (s *FieldStore) Subscribe(fn ChangeFunc) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}
