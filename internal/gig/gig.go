// Package gig is the commit adapter: the durable record of gigs the wizard
// creates and edits.
package gig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/matthewbaird/gigwizard/internal/types"
)

// ErrNotFound is returned when no gig has the requested id.
var ErrNotFound = errors.New("gig not found")

// Gig is a committed gig.
type Gig struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"owner_id"`
	Fields    types.GigFields `json:"fields"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Repository persists gigs. Implementations must be safe for concurrent use.
type Repository interface {
	// Create stores a new gig owned by ownerID and returns its id.
	Create(ctx context.Context, ownerID string, fields types.GigFields) (string, error)

	// Update replaces the fields of gig id. Returns ErrNotFound if it does not exist.
	Update(ctx context.Context, id string, fields types.GigFields) error

	// Fetch returns gig id. Returns ErrNotFound if it does not exist.
	Fetch(ctx context.Context, id string) (Gig, error)

	// ListByOwner returns the owner's gigs, most recently updated first.
	ListByOwner(ctx context.Context, ownerID string) ([]Gig, error)
}

func encodeFields(f types.GigFields) (string, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("encoding gig fields: %w", err)
	}
	return string(b), nil
}

func decodeFields(raw []byte) (types.GigFields, error) {
	var f types.GigFields
	if err := json.Unmarshal(raw, &f); err != nil {
		return types.GigFields{}, fmt.Errorf("decoding gig fields: %w", err)
	}
	return f, nil
}

// startColumn is the denormalised start time kept for listing and sorting.
func startColumn(f types.GigFields) *time.Time {
	if f.StartDate == nil {
		return nil
	}
	t := f.StartDate.UTC()
	return &t
}
