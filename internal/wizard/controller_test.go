package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/gigwizard/internal/activity"
	"github.com/matthewbaird/gigwizard/internal/draft"
	"github.com/matthewbaird/gigwizard/internal/event"
	"github.com/matthewbaird/gigwizard/internal/gig"
	"github.com/matthewbaird/gigwizard/internal/types"
)

type fixture struct {
	store    *draft.MemoryStore
	repo     gig.Repository
	activity *activity.MemoryStore
	recorder *event.ActivityRecorder
}

func newFixture(repo gig.Repository) *fixture {
	if repo == nil {
		repo = gig.NewMemoryRepository()
	}
	acts := activity.NewMemoryStore()
	return &fixture{
		store:    draft.NewMemoryStore(0),
		repo:     repo,
		activity: acts,
		recorder: event.NewActivityRecorder(acts),
	}
}

func (fx *fixture) controller(t *testing.T, mode Mode, gigID, actor string, opts ...draft.Option) *Controller {
	t.Helper()
	if len(opts) == 0 {
		opts = []draft.Option{draft.WithDebounce(0)}
	}
	c, err := NewController(Config{
		Mode:       mode,
		GigID:      gigID,
		ActorID:    actor,
		Drafts:     draft.NewAdapter(fx.store, actor, gigID, opts...),
		Repository: fx.repo,
		Recorder:   fx.recorder,
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func (fx *fixture) seedGig(t *testing.T, owner string, f types.GigFields) string {
	t.Helper()
	id, err := fx.repo.Create(context.Background(), owner, f)
	require.NoError(t, err)
	return id
}

func (fx *fixture) events(t *testing.T, gigID string) []string {
	t.Helper()
	entries, _, _, err := fx.activity.QueryByEntity(context.Background(), "gig", gigID, activity.DefaultQueryOptions())
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		out = append(out, e.EventType)
	}
	return out
}

func TestNewController_Validation(t *testing.T) {
	fx := newFixture(nil)
	adapter := draft.NewAdapter(fx.store, "u1", "")

	_, err := NewController(Config{Mode: "wizard", Drafts: adapter, Repository: fx.repo})
	assert.Error(t, err)
	_, err = NewController(Config{Mode: ModeEdit, Drafts: adapter, Repository: fx.repo})
	assert.Error(t, err, "edit without gig id")
	_, err = NewController(Config{Mode: ModeCreate, Repository: fx.repo})
	assert.Error(t, err, "missing adapter")
	_, err = NewController(Config{Mode: ModeCreate, Drafts: adapter, Repository: fx.repo, Order: []Step{}})
	assert.Error(t, err, "empty order")
}

func TestController_OperationsRequireMount(t *testing.T) {
	fx := newFixture(nil)
	c := fx.controller(t, ModeCreate, "", "u1")
	ctx := context.Background()

	_, err := c.Update(types.GigPatch{Title: ptr("x")})
	assert.ErrorIs(t, err, ErrNotMounted)
	_, _, err = c.Next(ctx)
	assert.ErrorIs(t, err, ErrNotMounted)
	_, err = c.Commit(ctx)
	assert.ErrorIs(t, err, ErrNotMounted)
}

func TestController_EditMountForbidden(t *testing.T) {
	fx := newFixture(nil)
	id := fx.seedGig(t, "owner", completeFields())
	c := fx.controller(t, ModeEdit, id, "intruder")

	_, err := c.Mount(context.Background())
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = c.Update(types.GigPatch{Title: ptr("x")})
	assert.ErrorIs(t, err, ErrNotMounted)
}

func TestController_EditMountNotFound(t *testing.T) {
	fx := newFixture(nil)
	c := fx.controller(t, ModeEdit, "missing", "u1")

	_, err := c.Mount(context.Background())
	assert.ErrorIs(t, err, gig.ErrNotFound)
}

func TestController_RestoreOverlaysPresentKeysOnly(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(nil)

	server := completeFields()
	server.Title = "Server Shoot"
	server.Location = "Dublin"
	id := fx.seedGig(t, "u1", server)

	draft.NewAdapter(fx.store, "u1", id).Save(ctx, types.GigPatch{Title: ptr("Draft Shoot")})

	c := fx.controller(t, ModeEdit, id, "u1")
	mounted, err := c.Mount(ctx)
	require.NoError(t, err)
	assert.True(t, mounted.DraftAvailable)
	assert.NotNil(t, mounted.LastSaved)
	assert.Equal(t, "Server Shoot", c.Snapshot().Fields.Title, "drafts are never auto-applied")

	snap, err := c.RestoreDraft(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Draft Shoot", snap.Fields.Title)
	assert.Equal(t, "Dublin", snap.Fields.Location)
	assert.False(t, snap.DraftAvailable)
}

func TestController_RestoreMovesToStoredStep(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(nil)
	adapter := draft.NewAdapter(fx.store, "u1", "")
	adapter.Save(ctx, completeFields().Patch())
	adapter.SaveStep(ctx, string(StepRequirements))
	adapter.SaveCompleted(ctx, []string{"basic", "schedule"})

	c := fx.controller(t, ModeCreate, "", "u1")
	_, err := c.Mount(ctx)
	require.NoError(t, err)

	snap, err := c.RestoreDraft(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepRequirements, snap.Current)
	assert.Equal(t, []Step{StepBasic, StepSchedule}, snap.Completed)
}

func TestController_RestoreIgnoresStepOutsideFlow(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(nil)
	id := fx.seedGig(t, "u1", completeFields())
	adapter := draft.NewAdapter(fx.store, "u1", id)
	adapter.Save(ctx, types.GigPatch{Title: ptr("t")})
	adapter.SaveStep(ctx, string(StepPreferences))

	c := fx.controller(t, ModeEdit, id, "u1")
	_, err := c.Mount(ctx)
	require.NoError(t, err)
	snap, err := c.RestoreDraft(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepBasic, snap.Current)
}

func TestController_DiscardKeepsLoadedFields(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(nil)
	server := completeFields()
	server.Title = "Server Shoot"
	id := fx.seedGig(t, "u1", server)
	adapter := draft.NewAdapter(fx.store, "u1", id)
	adapter.Save(ctx, types.GigPatch{Title: ptr("Draft Shoot")})

	c := fx.controller(t, ModeEdit, id, "u1")
	_, err := c.Mount(ctx)
	require.NoError(t, err)

	snap, err := c.DiscardDraft(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Server Shoot", snap.Fields.Title)
	assert.False(t, adapter.HasDraft(ctx))
	assert.Equal(t, []string{event.TypeDraftDiscarded}, fx.events(t, id))
}

func TestController_UpdatePersistsAccumulatedEdits(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(nil)
	c := fx.controller(t, ModeCreate, "", "u1", draft.WithDebounce(time.Hour))
	_, err := c.Mount(ctx)
	require.NoError(t, err)

	_, err = c.Update(types.GigPatch{Title: ptr("Night shoot")})
	require.NoError(t, err)
	_, err = c.Update(types.GigPatch{Location: ptr("Temple Bar")})
	require.NoError(t, err)

	adapter := draft.NewAdapter(fx.store, "u1", "")
	assert.False(t, adapter.HasDraft(ctx), "still inside the debounce window")

	c.Close()
	rec := adapter.Load(ctx)
	require.NotNil(t, rec.Title)
	require.NotNil(t, rec.Location)
	assert.Equal(t, "Night shoot", *rec.Title)
	assert.Equal(t, "Temple Bar", *rec.Location)
}

func TestController_NavigationPersistsSteps(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(nil)
	c := fx.controller(t, ModeCreate, "", "u1")
	_, err := c.Mount(ctx)
	require.NoError(t, err)

	res, moved, err := c.Next(ctx)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.False(t, moved)
	assert.Equal(t, StepBasic, c.Snapshot().Current)

	_, err = c.Update(completeFields().Patch())
	require.NoError(t, err)
	res, moved, err = c.Next(ctx)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.True(t, moved)

	adapter := draft.NewAdapter(fx.store, "u1", "")
	step, ok := adapter.LoadStep(ctx)
	require.True(t, ok)
	assert.Equal(t, "schedule", step)
	assert.Equal(t, []string{"basic"}, adapter.LoadCompleted(ctx))

	moved, err = c.Back(ctx)
	require.NoError(t, err)
	assert.True(t, moved)
	step, _ = adapter.LoadStep(ctx)
	assert.Equal(t, "basic", step)

	moved, err = c.JumpTo(ctx, StepReview)
	require.NoError(t, err)
	assert.False(t, moved)
	moved, err = c.JumpTo(ctx, StepSchedule)
	require.NoError(t, err)
	assert.True(t, moved)
}

func TestController_CommitCreateClearsDraft(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(nil)
	c := fx.controller(t, ModeCreate, "", "u1")
	_, err := c.Mount(ctx)
	require.NoError(t, err)

	_, err = c.Update(completeFields().Patch())
	require.NoError(t, err)
	_, _, err = c.Next(ctx)
	require.NoError(t, err)

	adapter := draft.NewAdapter(fx.store, "u1", "")
	require.True(t, adapter.HasDraft(ctx))

	out, err := c.Commit(ctx)
	require.NoError(t, err)
	assert.True(t, out.Created)
	assert.NotEmpty(t, out.GigID)
	assert.False(t, adapter.HasDraft(ctx))
	assert.Zero(t, fx.store.Len(), "draft, step and completed keys are removed")

	g, err := fx.repo.Fetch(ctx, out.GigID)
	require.NoError(t, err)
	assert.Equal(t, "u1", g.OwnerID)
	assert.Equal(t, completeFields().Title, g.Fields.Title)
	assert.Equal(t, []string{event.TypeDraftSaved}, fx.events(t, out.GigID))

	snap := c.Snapshot()
	assert.True(t, snap.Committed)
	assert.Equal(t, out.GigID, snap.GigID)
}

func TestController_CommitEditPublishes(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(nil)
	id := fx.seedGig(t, "u1", completeFields())
	c := fx.controller(t, ModeEdit, id, "u1")
	_, err := c.Mount(ctx)
	require.NoError(t, err)

	_, err = c.Update(types.GigPatch{Status: ptr(types.StatusPublished)})
	require.NoError(t, err)
	out, err := c.Commit(ctx)
	require.NoError(t, err)
	assert.False(t, out.Created)
	assert.Equal(t, id, out.GigID)
	assert.ElementsMatch(t, []string{event.TypeUpdated, event.TypePublished}, fx.events(t, id))

	g, err := fx.repo.Fetch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, types.StatusPublished, g.Fields.Status)
}

func TestController_CommitNotReady(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(nil)
	c := fx.controller(t, ModeCreate, "", "u1")
	_, err := c.Mount(ctx)
	require.NoError(t, err)
	_, err = c.Update(types.GigPatch{Title: ptr("Only a title")})
	require.NoError(t, err)

	out, err := c.Commit(ctx)
	assert.ErrorIs(t, err, ErrNotReady)
	assert.False(t, out.Validation.Valid)
	assert.Contains(t, out.Validation.Errors, MsgDescriptionTooShort)
	assert.True(t, draft.NewAdapter(fx.store, "u1", "").HasDraft(ctx), "draft kept after a rejected commit")
}

func TestController_CommitDropsDormantSections(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(nil)
	c := fx.controller(t, ModeCreate, "", "u1")
	_, err := c.Mount(ctx)
	require.NoError(t, err)

	f := completeFields()
	f.LookingFor = []types.RoleTag{"PHOTOGRAPHERS"}
	f.ApplicantPreferences.Physical.HeightRange = types.Range{Min: ptr(180.0), Max: ptr(170.0)}
	_, err = c.Update(f.Patch())
	require.NoError(t, err)

	snap := c.Snapshot()
	assert.Equal(t, 180.0, *snap.Fields.ApplicantPreferences.Physical.HeightRange.Min, "dormant data retained")

	out, err := c.Commit(ctx)
	require.NoError(t, err, "inverted range in a dormant section does not block commit")
	g, err := fx.repo.Fetch(ctx, out.GigID)
	require.NoError(t, err)
	assert.Nil(t, g.Fields.ApplicantPreferences.Physical.HeightRange.Min)
}

type failingRepo struct {
	*gig.MemoryRepository
	err error
}

func (r failingRepo) Create(context.Context, string, types.GigFields) (string, error) {
	return "", r.err
}

func TestController_CommitFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("connection refused")
	fx := newFixture(failingRepo{MemoryRepository: gig.NewMemoryRepository(), err: cause})
	c := fx.controller(t, ModeCreate, "", "u1")
	_, err := c.Mount(ctx)
	require.NoError(t, err)
	_, err = c.Update(completeFields().Patch())
	require.NoError(t, err)

	_, err = c.Commit(ctx)
	assert.ErrorIs(t, err, ErrCommitFailed)
	assert.ErrorIs(t, err, cause)
	assert.True(t, draft.NewAdapter(fx.store, "u1", "").HasDraft(ctx))
	assert.Equal(t, completeFields().Title, c.Snapshot().Fields.Title)
	assert.False(t, c.Snapshot().Committed)
}

type blockingRepo struct {
	*gig.MemoryRepository
	started chan struct{}
	release chan struct{}
}

func (r blockingRepo) Create(ctx context.Context, owner string, f types.GigFields) (string, error) {
	close(r.started)
	<-r.release
	return r.MemoryRepository.Create(ctx, owner, f)
}

func TestController_ConcurrentCommitRejected(t *testing.T) {
	ctx := context.Background()
	repo := blockingRepo{
		MemoryRepository: gig.NewMemoryRepository(),
		started:          make(chan struct{}),
		release:          make(chan struct{}),
	}
	fx := newFixture(repo)
	c := fx.controller(t, ModeCreate, "", "u1")
	_, err := c.Mount(ctx)
	require.NoError(t, err)
	_, err = c.Update(completeFields().Patch())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := c.Commit(ctx)
		done <- err
	}()

	<-repo.started
	_, err = c.Commit(ctx)
	assert.ErrorIs(t, err, ErrCommitInFlight)

	close(repo.release)
	require.NoError(t, <-done)
}

func TestController_SnapshotSections(t *testing.T) {
	fx := newFixture(nil)
	c := fx.controller(t, ModeCreate, "", "u1")
	_, err := c.Mount(context.Background())
	require.NoError(t, err)

	snap, err := c.Update(types.GigPatch{LookingFor: &[]types.RoleTag{"PHOTOGRAPHERS"}})
	require.NoError(t, err)
	require.Len(t, snap.Sections, 4)
	assert.Equal(t, SectionView{Name: SectionPhysical, Active: false}, snap.Sections[0])
	assert.Equal(t, SectionView{Name: SectionProfessional, Active: true}, snap.Sections[1])
	assert.Equal(t, knownSteps, snap.Order)
}

func TestController_DraftsAreScopedToActor(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(nil)

	alice := fx.controller(t, ModeCreate, "", "alice", draft.WithDebounce(time.Hour))
	_, err := alice.Mount(ctx)
	require.NoError(t, err)
	_, err = alice.Update(types.GigPatch{Title: ptr("Alice secret shoot")})
	require.NoError(t, err)
	alice.Close()
	require.True(t, draft.NewAdapter(fx.store, "alice", "").HasDraft(ctx))

	bob := fx.controller(t, ModeCreate, "", "bob")
	mounted, err := bob.Mount(ctx)
	require.NoError(t, err)
	assert.False(t, mounted.DraftAvailable)

	snap, err := bob.RestoreDraft(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Fields.Title)

	_, err = bob.DiscardDraft(ctx)
	require.NoError(t, err)
	assert.True(t, draft.NewAdapter(fx.store, "alice", "").HasDraft(ctx), "discarding never touches another actor's draft")
}

func TestController_SecondCommitUpdatesCreatedGig(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(nil)
	c := fx.controller(t, ModeCreate, "", "u1")
	_, err := c.Mount(ctx)
	require.NoError(t, err)
	_, err = c.Update(completeFields().Patch())
	require.NoError(t, err)

	first, err := c.Commit(ctx)
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := c.Commit(ctx)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.GigID, second.GigID)
	assert.Equal(t, ModeEdit, c.Snapshot().Mode)

	gigs, err := fx.repo.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, gigs, 1)
	assert.ElementsMatch(t, []string{event.TypeDraftSaved, event.TypeUpdated, event.TypeDraftSaved}, fx.events(t, first.GigID))
}

func TestController_EditsAfterCreateUseGigDraft(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(nil)
	c := fx.controller(t, ModeCreate, "", "u1", draft.WithDebounce(time.Hour))
	_, err := c.Mount(ctx)
	require.NoError(t, err)
	_, err = c.Update(completeFields().Patch())
	require.NoError(t, err)

	out, err := c.Commit(ctx)
	require.NoError(t, err)

	_, err = c.Update(types.GigPatch{Title: ptr("Retitled")})
	require.NoError(t, err)
	c.Close()

	assert.False(t, draft.NewAdapter(fx.store, "u1", "").HasDraft(ctx), "no create draft is left for the next session")
	rec := draft.NewAdapter(fx.store, "u1", out.GigID).Load(ctx)
	require.NotNil(t, rec.Title)
	assert.Equal(t, "Retitled", *rec.Title)
}

// gatedStore blocks the first Set until release is closed.
type gatedStore struct {
	*draft.MemoryStore
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (s *gatedStore) Set(ctx context.Context, key, value string) error {
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.started)
		<-s.release
	}
	return s.MemoryStore.Set(ctx, key, value)
}

func TestController_CommitWaitsForRunningDraftWrite(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(nil)
	store := &gatedStore{
		MemoryStore: fx.store,
		started:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	c, err := NewController(Config{
		Mode:       ModeCreate,
		ActorID:    "u1",
		Drafts:     draft.NewAdapter(store, "u1", "", draft.WithDebounce(10*time.Millisecond)),
		Repository: fx.repo,
		Recorder:   fx.recorder,
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	_, err = c.Mount(ctx)
	require.NoError(t, err)

	_, err = c.Update(completeFields().Patch())
	require.NoError(t, err)
	<-store.started

	done := make(chan error, 1)
	go func() {
		_, err := c.Commit(ctx)
		done <- err
	}()
	select {
	case <-done:
		t.Fatal("commit finished while a draft write was running")
	case <-time.After(30 * time.Millisecond):
	}
	close(store.release)
	require.NoError(t, <-done)

	assert.False(t, draft.NewAdapter(fx.store, "u1", "").HasDraft(ctx), "a successful commit leaves no draft")
	assert.Zero(t, fx.store.Len())
}
