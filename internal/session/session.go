// Package session manages wizard session lifecycle: one controller per
// session, looked up by id and expired after a maximum age or idle period.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/gigwizard/internal/wizard"
)

// Factory builds the controller for a new session.
type Factory func(mode wizard.Mode, gigID, actorID string) (*wizard.Controller, error)

// Session holds one mounted wizard.
type Session struct {
	ID         string
	ActorID    string
	Mode       wizard.Mode
	Controller *wizard.Controller
	CreatedAt  time.Time

	mu           sync.Mutex
	lastActiveAt time.Time
}

// Touch updates the last activity timestamp.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActiveAt = time.Now()
	s.mu.Unlock()
}

// LastActiveAt returns the last activity timestamp.
func (s *Session) LastActiveAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActiveAt
}

// IsExpired returns true if the session has exceeded the given max age.
func (s *Session) IsExpired(maxAge time.Duration) bool {
	return maxAge > 0 && time.Since(s.CreatedAt) > maxAge
}

// IsIdle returns true if the session has been idle longer than the timeout.
func (s *Session) IsIdle(timeout time.Duration) bool {
	return timeout > 0 && time.Since(s.LastActiveAt()) > timeout
}

// Manager handles session creation, lookup, and cleanup.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxAge      time.Duration
	idleTimeout time.Duration
	factory     Factory
}

// NewManager creates a session manager with the given timeouts. A zero
// timeout disables that check.
func NewManager(factory Factory, maxAge, idleTimeout time.Duration) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		maxAge:      maxAge,
		idleTimeout: idleTimeout,
		factory:     factory,
	}
}

// Create builds and mounts a wizard. A failed mount (including an ownership
// failure) creates no session.
func (m *Manager) Create(ctx context.Context, mode wizard.Mode, gigID, actorID string) (*Session, wizard.MountResult, error) {
	c, err := m.factory(mode, gigID, actorID)
	if err != nil {
		return nil, wizard.MountResult{}, fmt.Errorf("creating wizard: %w", err)
	}
	mounted, err := c.Mount(ctx)
	if err != nil {
		c.Close()
		return nil, wizard.MountResult{}, err
	}

	now := time.Now()
	s := &Session{
		ID:           uuid.New().String(),
		ActorID:      actorID,
		Mode:         mode,
		Controller:   c,
		CreatedAt:    now,
		lastActiveAt: now,
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, mounted, nil
}

// Get retrieves a session by ID and marks it active. Returns nil if not found
// or expired.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	if s.IsExpired(m.maxAge) || s.IsIdle(m.idleTimeout) {
		m.Remove(id)
		return nil
	}
	s.Touch()
	return s
}

// Remove deletes a session, flushing its pending draft write. It reports
// whether the session existed.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Controller.Close()
	}
	return ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Cleanup removes all expired and idle sessions and returns how many it removed.
func (m *Manager) Cleanup() int {
	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if s.IsExpired(m.maxAge) || s.IsIdle(m.idleTimeout) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Controller.Close()
	}
	return len(stale)
}

// Run calls Cleanup every interval until ctx is done, then closes every
// remaining session.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := m.Cleanup(); n > 0 {
				log.Printf("session: expired %d wizard sessions", n)
			}
		case <-ctx.Done():
			m.closeAll()
			return
		}
	}
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range all {
		s.Controller.Close()
	}
}
