package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/gigwizard/internal/types"
)

// Event types published on the bus.
const (
	TypeDraftSaved     = "gig.draft.saved"
	TypePublished      = "gig.published"
	TypeUpdated        = "gig.updated"
	TypeDraftDiscarded = "gig.draft.discarded"
)

// DomainEvent carries the canonical shape of every gig lifecycle event.
type DomainEvent struct {
	ID               string
	EventType        string
	OccurredAt       time.Time
	AffectedEntities []types.SourceRef
	Summary          string
	Category         string // "gig", "draft"
	Weight           string // "critical", "major", "minor", "info"
	Payload          json.RawMessage
}

func newID() string { return uuid.New().String() }

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// GigCommittedPayload carries the outcome of a wizard commit.
type GigCommittedPayload struct {
	GigID    string       `json:"gig_id"`
	OwnerID  string       `json:"owner_id"`
	ActorID  string       `json:"actor_id"`
	Title    string       `json:"title"`
	Status   types.Status `json:"status"`
	Previous types.Status `json:"previous_status,omitempty"`
	Created  bool         `json:"created"`
}

func committedRefs(p GigCommittedPayload) []types.SourceRef {
	refs := []types.SourceRef{
		{EntityType: "gig", EntityID: p.GigID, Role: "subject"},
		{EntityType: "person", EntityID: p.OwnerID, Role: "related"},
	}
	if p.ActorID != "" && p.ActorID != p.OwnerID {
		refs = append(refs, types.SourceRef{EntityType: "person", EntityID: p.ActorID, Role: "context"})
	}
	return refs
}

// NewDraftSaved is emitted when a commit leaves the gig in DRAFT status.
func NewDraftSaved(p GigCommittedPayload) DomainEvent {
	return DomainEvent{
		ID:               newID(),
		EventType:        TypeDraftSaved,
		OccurredAt:       time.Now(),
		AffectedEntities: committedRefs(p),
		Summary:          fmt.Sprintf("Gig %s saved as draft: %q", short(p.GigID), p.Title),
		Category:         "gig",
		Weight:           "minor",
		Payload:          mustJSON(p),
	}
}

// NewPublished is emitted when a commit moves the gig to PUBLISHED.
func NewPublished(p GigCommittedPayload) DomainEvent {
	return DomainEvent{
		ID:               newID(),
		EventType:        TypePublished,
		OccurredAt:       time.Now(),
		AffectedEntities: committedRefs(p),
		Summary:          fmt.Sprintf("Gig %s published: %q", short(p.GigID), p.Title),
		Category:         "gig",
		Weight:           "major",
		Payload:          mustJSON(p),
	}
}

// NewUpdated is emitted for every edit-mode commit.
func NewUpdated(p GigCommittedPayload) DomainEvent {
	return DomainEvent{
		ID:               newID(),
		EventType:        TypeUpdated,
		OccurredAt:       time.Now(),
		AffectedEntities: committedRefs(p),
		Summary:          fmt.Sprintf("Gig %s updated", short(p.GigID)),
		Category:         "gig",
		Weight:           "minor",
		Payload:          mustJSON(p),
	}
}

// DraftDiscardedPayload identifies a local draft the user threw away.
type DraftDiscardedPayload struct {
	DraftKey string `json:"draft_key"`
	GigID    string `json:"gig_id,omitempty"`
	ActorID  string `json:"actor_id"`
}

// NewDraftDiscarded is emitted when the user discards a restorable draft.
func NewDraftDiscarded(p DraftDiscardedPayload) DomainEvent {
	refs := []types.SourceRef{
		{EntityType: "draft", EntityID: p.DraftKey, Role: "subject"},
		{EntityType: "person", EntityID: p.ActorID, Role: "related"},
	}
	if p.GigID != "" {
		refs = append(refs, types.SourceRef{EntityType: "gig", EntityID: p.GigID, Role: "context"})
	}
	return DomainEvent{
		ID:               newID(),
		EventType:        TypeDraftDiscarded,
		OccurredAt:       time.Now(),
		AffectedEntities: refs,
		Summary:          fmt.Sprintf("Draft %s discarded", p.DraftKey),
		Category:         "draft",
		Weight:           "info",
		Payload:          mustJSON(p),
	}
}

// ForCommit returns the events a successful commit produces: gig.updated for
// edits, plus gig.published or gig.draft.saved depending on the new status.
func ForCommit(p GigCommittedPayload) []DomainEvent {
	var out []DomainEvent
	if !p.Created {
		out = append(out, NewUpdated(p))
	}
	switch {
	case p.Status == types.StatusPublished && p.Previous != types.StatusPublished:
		out = append(out, NewPublished(p))
	case p.Status == types.StatusDraft:
		out = append(out, NewDraftSaved(p))
	}
	return out
}
