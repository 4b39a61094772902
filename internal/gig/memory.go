package gig

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/gigwizard/internal/types"
)

// MemoryRepository implements Repository in memory.
// Intended for demos and testing.
type MemoryRepository struct {
	mu   sync.RWMutex
	gigs map[string]Gig
	now  func() time.Time
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{gigs: make(map[string]Gig), now: time.Now}
}

func (r *MemoryRepository) Create(ctx context.Context, ownerID string, fields types.GigFields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	now := r.now().UTC()
	g := Gig{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Fields:    fields.Clone(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.mu.Lock()
	r.gigs[g.ID] = g
	r.mu.Unlock()
	return g.ID, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id string, fields types.GigFields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gigs[id]
	if !ok {
		return ErrNotFound
	}
	g.Fields = fields.Clone()
	g.UpdatedAt = r.now().UTC()
	r.gigs[id] = g
	return nil
}

func (r *MemoryRepository) Fetch(ctx context.Context, id string) (Gig, error) {
	if err := ctx.Err(); err != nil {
		return Gig{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gigs[id]
	if !ok {
		return Gig{}, ErrNotFound
	}
	g.Fields = g.Fields.Clone()
	return g, nil
}

func (r *MemoryRepository) ListByOwner(ctx context.Context, ownerID string) ([]Gig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	var out []Gig
	for _, g := range r.gigs {
		if g.OwnerID == ownerID {
			g.Fields = g.Fields.Clone()
			out = append(out, g)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}
