package wizard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matthewbaird/gigwizard/internal/draft"
	"github.com/matthewbaird/gigwizard/internal/event"
	"github.com/matthewbaird/gigwizard/internal/gig"
	"github.com/matthewbaird/gigwizard/internal/types"
)

var (
	// ErrForbidden is returned by Mount when the actor does not own the gig being edited.
	ErrForbidden = errors.New("you are not authorized to edit this gig")

	// ErrNotMounted is returned by operations called before a successful Mount.
	ErrNotMounted = errors.New("wizard is not mounted")

	// ErrCommitInFlight is returned when Commit is called while another commit runs.
	ErrCommitInFlight = errors.New("commit already in progress")

	// ErrNotReady is returned when the field state fails commit validation.
	ErrNotReady = errors.New("gig is not ready to commit")

	// ErrCommitFailed wraps the repository error of a failed commit. The session
	// is left intact so the commit can be retried.
	ErrCommitFailed = errors.New("commit failed")
)

// Config configures a Controller.
type Config struct {
	Mode    Mode
	GigID   string // required in edit mode
	ActorID string

	// Order overrides the flow for Mode. When nil the flow comes from Flows,
	// or from DefaultFlows when Flows is nil too.
	Order []Step
	Flows Flows

	// Initial seeds the create flow; NewGigFields is used when nil.
	Initial *types.GigFields

	Drafts     *draft.Adapter
	Repository gig.Repository
	Recorder   event.Recorder // optional
}

// MountResult reports what Mount found.
type MountResult struct {
	DraftAvailable bool       `json:"draft_available"`
	LastSaved      *time.Time `json:"last_saved,omitempty"`
}

// CommitResult reports a commit attempt. Validation is set when the commit
// was rejected with ErrNotReady.
type CommitResult struct {
	GigID      string       `json:"gig_id,omitempty"`
	Created    bool         `json:"created"`
	Status     types.Status `json:"status,omitempty"`
	Validation Result       `json:"validation"`
}

// SectionView is the JSON form of a SectionState.
type SectionView struct {
	Name   Section `json:"name"`
	Active bool    `json:"active"`
}

// Snapshot is a read-only view of a controller.
type Snapshot struct {
	Mode           Mode            `json:"mode"`
	GigID          string          `json:"gig_id,omitempty"`
	Order          []Step          `json:"order"`
	Current        Step            `json:"current"`
	Completed      []Step          `json:"completed"`
	Reachable      []Step          `json:"reachable"`
	IsLast         bool            `json:"is_last"`
	Fields         types.GigFields `json:"fields"`
	Sections       []SectionView   `json:"sections"`
	Validation     Result          `json:"validation"`
	DraftAvailable bool            `json:"draft_available"`
	LastSaved      *time.Time      `json:"last_saved,omitempty"`
	Committed      bool            `json:"committed"`
}

// Controller orchestrates one wizard session: it owns the field store and
// sequencer, persists drafts through the adapter and commits through the
// repository. Operations are serialised, matching a single UI thread.
type Controller struct {
	mu sync.Mutex

	mode    Mode
	gigID   string
	actorID string

	fields   *FieldStore
	seq      *Sequencer
	drafts   *draft.Adapter
	repo     gig.Repository
	recorder event.Recorder

	// edits accumulates every key changed in this session, so each debounced
	// save carries the full edit set.
	edits       types.GigPatch
	unsubscribe func()

	mounted        bool
	committed      bool
	ownerID        string
	status         types.Status
	draftAvailable bool
	lastSaved      *time.Time

	committing atomic.Bool
}

// NewController creates a controller. No I/O happens until Mount.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Mode != ModeCreate && cfg.Mode != ModeEdit {
		return nil, fmt.Errorf("unknown wizard mode: %q", cfg.Mode)
	}
	if cfg.Mode == ModeEdit && cfg.GigID == "" {
		return nil, fmt.Errorf("edit mode requires a gig id")
	}
	if cfg.Drafts == nil {
		return nil, fmt.Errorf("draft adapter is required")
	}
	if cfg.Repository == nil {
		return nil, fmt.Errorf("repository is required")
	}

	order := cfg.Order
	if order == nil {
		flows := cfg.Flows
		if flows == nil {
			flows = DefaultFlows()
		}
		var err error
		if order, err = flows.Order(cfg.Mode); err != nil {
			return nil, err
		}
	}
	seq, err := NewSequencer(order)
	if err != nil {
		return nil, err
	}

	initial := types.NewGigFields()
	if cfg.Initial != nil {
		initial = cfg.Initial.Clone()
	}

	c := &Controller{
		mode:     cfg.Mode,
		gigID:    cfg.GigID,
		actorID:  cfg.ActorID,
		fields:   NewFieldStore(initial),
		seq:      seq,
		drafts:   cfg.Drafts,
		repo:     cfg.Repository,
		recorder: cfg.Recorder,
		ownerID:  cfg.ActorID,
		status:   initial.Status,
	}
	c.unsubscribe = c.fields.Subscribe(c.onChange)
	return c, nil
}

// onChange runs inside FieldStore.Set, which is only called with c.mu held.
func (c *Controller) onChange(patch types.GigPatch, _ types.GigFields) {
	c.edits = c.edits.Merge(patch)
	c.drafts.DebouncedSave(c.edits)
}

// Mount loads the gig (edit mode), checks ownership and looks for a local
// draft. A draft is only reported, never applied.
func (c *Controller) Mount(ctx context.Context) (MountResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode == ModeEdit {
		g, err := c.repo.Fetch(ctx, c.gigID)
		if err != nil {
			return MountResult{}, fmt.Errorf("loading gig %s: %w", c.gigID, err)
		}
		if g.OwnerID != c.actorID {
			return MountResult{}, ErrForbidden
		}
		c.ownerID = g.OwnerID
		c.status = g.Fields.Status
		c.fields.Load(g.Fields)
	}

	rec := c.drafts.Load(ctx)
	c.draftAvailable = rec.HasFields()
	c.lastSaved = rec.LastSaved
	c.mounted = true

	return MountResult{DraftAvailable: c.draftAvailable, LastSaved: c.lastSaved}, nil
}

// RestoreDraft overlays the stored draft onto the loaded fields and returns to
// the stored step. Without a draft it does nothing.
func (c *Controller) RestoreDraft(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.mounted {
		return Snapshot{}, ErrNotMounted
	}

	rec := c.drafts.Load(ctx)
	if rec.HasFields() {
		c.fields.Load(c.fields.Get().Apply(rec.GigPatch))
		c.edits = c.edits.Merge(rec.GigPatch)
	}

	completed := make([]Step, 0)
	for _, s := range c.drafts.LoadCompleted(ctx) {
		completed = append(completed, Step(s))
	}
	current := c.seq.Current()
	if s, ok := c.drafts.LoadStep(ctx); ok {
		current = Step(s)
	}
	c.seq.Restore(current, completed)

	c.draftAvailable = false
	return c.snapshotLocked(), nil
}

// DiscardDraft drops any pending write and removes the stored draft. The loaded
// fields are kept.
func (c *Controller) DiscardDraft(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.mounted {
		return Snapshot{}, ErrNotMounted
	}

	c.drafts.Cancel()
	c.drafts.Clear(ctx)
	c.edits = types.GigPatch{}
	c.draftAvailable = false
	c.lastSaved = nil

	c.record(ctx, event.NewDraftDiscarded(event.DraftDiscardedPayload{
		DraftKey: c.drafts.Key(),
		GigID:    c.gigID,
		ActorID:  c.actorID,
	}))
	return c.snapshotLocked(), nil
}

// Update applies patch to the fields and schedules a debounced draft save.
func (c *Controller) Update(patch types.GigPatch) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.mounted {
		return Snapshot{}, ErrNotMounted
	}
	c.fields.Set(patch)
	return c.snapshotLocked(), nil
}

// Next validates the current step and advances when it passes. It reports
// whether the step changed.
func (c *Controller) Next(ctx context.Context) (Result, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.mounted {
		return Result{}, false, ErrNotMounted
	}
	before := c.seq.Current()
	res := c.seq.Next(c.fields.Get())
	moved := c.seq.Current() != before
	if moved {
		c.persistStepsLocked(ctx)
	}
	return res, moved, nil
}

// Back retreats one step and reports whether the step changed.
func (c *Controller) Back(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.mounted {
		return false, ErrNotMounted
	}
	moved := c.seq.Back()
	if moved {
		c.persistStepsLocked(ctx)
	}
	return moved, nil
}

// JumpTo moves to step if it is reachable and reports whether it moved.
func (c *Controller) JumpTo(ctx context.Context, step Step) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.mounted {
		return false, ErrNotMounted
	}
	moved := c.seq.JumpTo(step)
	if moved {
		c.persistStepsLocked(ctx)
	}
	return moved, nil
}

func (c *Controller) persistStepsLocked(ctx context.Context) {
	c.drafts.SaveStep(ctx, string(c.seq.Current()))
	completed := c.seq.Completed()
	ids := make([]string, len(completed))
	for i, s := range completed {
		ids[i] = string(s)
	}
	c.drafts.SaveCompleted(ctx, ids)
}

// Commit validates every step of the flow and writes the gig. On success the
// local draft is cleared and lifecycle events are recorded. After a create the
// session continues in edit mode against the new gig, so a repeated commit
// updates it instead of creating another.
func (c *Controller) Commit(ctx context.Context) (CommitResult, error) {
	if !c.committing.CompareAndSwap(false, true) {
		return CommitResult{}, ErrCommitInFlight
	}
	defer c.committing.Store(false)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.mounted {
		return CommitResult{}, ErrNotMounted
	}

	fields := c.fields.Get()
	res := ValidateForCommit(c.seq.Order(), fields)
	if !res.Valid {
		return CommitResult{Validation: res}, ErrNotReady
	}
	fields.ApplicantPreferences = ActivePreferences(fields.ApplicantPreferences, fields.LookingFor)

	out := CommitResult{Status: fields.Status, Validation: res}
	if c.mode == ModeEdit {
		if err := c.repo.Update(ctx, c.gigID, fields); err != nil {
			return CommitResult{Validation: res}, fmt.Errorf("%w: %w", ErrCommitFailed, err)
		}
		out.GigID = c.gigID
	} else {
		id, err := c.repo.Create(ctx, c.actorID, fields)
		if err != nil {
			return CommitResult{Validation: res}, fmt.Errorf("%w: %w", ErrCommitFailed, err)
		}
		out.GigID = id
		out.Created = true
	}

	c.drafts.Cancel()
	c.drafts.Clear(ctx)
	if out.Created {
		c.mode = ModeEdit
		c.gigID = out.GigID
		c.ownerID = c.actorID
		c.drafts.Rebind(out.GigID)
	}
	c.edits = types.GigPatch{}
	c.draftAvailable = false
	c.lastSaved = nil
	c.committed = true

	for _, evt := range event.ForCommit(event.GigCommittedPayload{
		GigID:    out.GigID,
		OwnerID:  c.ownerID,
		ActorID:  c.actorID,
		Title:    fields.Title,
		Status:   fields.Status,
		Previous: c.status,
		Created:  out.Created,
	}) {
		c.record(ctx, evt)
	}
	c.status = fields.Status

	log.Printf("wizard: committed gig %s (created=%t status=%s)", out.GigID, out.Created, out.Status)
	return out, nil
}

// record writes evt best-effort; a failed write never fails the operation.
func (c *Controller) record(ctx context.Context, evt event.DomainEvent) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(ctx, evt); err != nil {
		log.Printf("wizard: recording %s: %v", evt.EventType, err)
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	fields := c.fields.Get()
	states := Partition(fields.LookingFor)
	sections := make([]SectionView, len(states))
	for i, st := range states {
		sections[i] = SectionView{Name: st.Section(), Active: st.Active()}
	}
	return Snapshot{
		Mode:           c.mode,
		GigID:          c.gigID,
		Order:          c.seq.Order(),
		Current:        c.seq.Current(),
		Completed:      c.seq.Completed(),
		Reachable:      c.seq.Reachable(),
		IsLast:         c.seq.IsLast(),
		Fields:         fields,
		Sections:       sections,
		Validation:     Validate(c.seq.Current(), fields),
		DraftAvailable: c.draftAvailable,
		LastSaved:      c.lastSaved,
		Committed:      c.committed,
	}
}

// Close writes any pending draft save and detaches from the field store.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.drafts.Flush()
}
