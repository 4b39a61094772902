// Package draft persists in-progress wizard state to a durable key/value store so
// work survives reloads. Persistence is best-effort: storage failures are logged
// and never reach the editing session.
package draft

import (
	"context"
	"errors"
	"sync"
)

// ErrQuotaExceeded is returned by a Store that has no room for a write.
var ErrQuotaExceeded = errors.New("draft store quota exceeded")

// Store is the durable local store: plain string values under string keys.
// Only the Adapter reads and writes it.
type Store interface {
	// Get returns the value under key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// MemoryStore implements Store in memory, with an optional byte quota that
// mimics browser storage limits. Intended for tests and single-process demos.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	quota  int
}

// NewMemoryStore creates an empty MemoryStore. A quota <= 0 means unlimited.
func NewMemoryStore(quota int) *MemoryStore {
	return &MemoryStore{values: make(map[string]string), quota: quota}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quota > 0 {
		used := 0
		for k, v := range s.values {
			if k != key {
				used += len(k) + len(v)
			}
		}
		if used+len(key)+len(value) > s.quota {
			return ErrQuotaExceeded
		}
	}
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
