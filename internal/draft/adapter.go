package draft

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/matthewbaird/gigwizard/internal/types"
)

// DefaultDebounce is the coalescing window for DebouncedSave.
const DefaultDebounce = time.Second

// writeTimeout bounds a debounced write, which has no caller context.
const writeTimeout = 5 * time.Second

// CreateKey is the synthetic entity id used before a gig exists.
const CreateKey = "create"

// Record is the persisted draft blob: the edited keys plus when they were saved.
type Record struct {
	types.GigPatch
	LastSaved *time.Time `json:"last_saved,omitempty"`
}

// UnmarshalJSON decodes both halves; the embedded patch has its own decoder
// which would otherwise swallow last_saved.
func (r *Record) UnmarshalJSON(data []byte) error {
	var patch types.GigPatch
	if err := json.Unmarshal(data, &patch); err != nil {
		return err
	}
	var meta struct {
		LastSaved *time.Time `json:"last_saved"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return err
	}
	r.GigPatch = patch
	r.LastSaved = meta.LastSaved
	return nil
}

// HasFields reports whether the record holds anything besides LastSaved.
func (r Record) HasFields() bool {
	return !r.GigPatch.Empty()
}

// KeyFor returns the draft key an actor uses for a gig id; an empty id maps to
// the create key. The escaped actor is a path prefix, so no two actors share a
// key or a step suffix. An empty actor yields the unscoped key.
func KeyFor(actorID, gigID string) string {
	if gigID == "" {
		gigID = CreateKey
	}
	key := "gig-edit-" + gigID
	if actorID == "" {
		return key
	}
	return url.PathEscape(actorID) + "/" + key
}

// Adapter reads and writes one gig's draft: the field blob under Key(), the
// current step under Key()+"-step" and the completed steps under Key()+"-completed".
// No method returns a storage error; failures are logged and the in-memory
// session stays authoritative.
type Adapter struct {
	store    Store
	actorID  string
	now      func() time.Time
	debounce *debouncer

	mu  sync.RWMutex
	key string
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithDebounce sets the DebouncedSave window.
func WithDebounce(window time.Duration) Option {
	return func(a *Adapter) { a.debounce = newDebouncer(window) }
}

// WithClock sets the clock used for LastSaved stamps.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) { a.now = now }
}

// NewAdapter creates an adapter for actorID's draft of gigID ("" for a gig that
// does not exist yet).
func NewAdapter(store Store, actorID, gigID string, opts ...Option) *Adapter {
	a := &Adapter{
		store:    store,
		actorID:  actorID,
		key:      KeyFor(actorID, gigID),
		now:      time.Now,
		debounce: newDebouncer(DefaultDebounce),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Key returns the draft blob key.
func (a *Adapter) Key() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.key
}

func (a *Adapter) stepKey() string      { return a.Key() + "-step" }
func (a *Adapter) completedKey() string { return a.Key() + "-completed" }

// Rebind drops any pending save and points the adapter at gigID's draft. It is
// used once a created gig has an id; the old keys are left to the caller.
func (a *Adapter) Rebind(gigID string) {
	a.debounce.Cancel()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.key = KeyFor(a.actorID, gigID)
}

// Save merges patch into the stored draft and stamps LastSaved.
func (a *Adapter) Save(ctx context.Context, patch types.GigPatch) {
	key := a.Key()
	existing := a.load(ctx, key)
	now := a.now().UTC()
	rec := Record{
		GigPatch:  existing.GigPatch.Merge(patch),
		LastSaved: &now,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		log.Printf("draft: encoding %s: %v", key, err)
		return
	}
	if err := a.store.Set(ctx, key, string(data)); err != nil {
		log.Printf("draft: saving %s: %v", key, err)
	}
}

// DebouncedSave is Save coalesced over the debounce window; the last call in a
// burst is the one written.
func (a *Adapter) DebouncedSave(patch types.GigPatch) {
	a.debounce.Call(func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		a.Save(ctx, patch)
	})
}

// Flush writes a pending debounced save now.
func (a *Adapter) Flush() { a.debounce.Flush() }

// Cancel drops a pending debounced save.
func (a *Adapter) Cancel() { a.debounce.Cancel() }

// Pending reports whether a debounced save is waiting.
func (a *Adapter) Pending() bool { return a.debounce.Pending() }

// Load returns the stored draft, or an empty Record when it is missing or corrupt.
func (a *Adapter) Load(ctx context.Context) Record {
	return a.load(ctx, a.Key())
}

func (a *Adapter) load(ctx context.Context, key string) Record {
	raw, ok, err := a.store.Get(ctx, key)
	if err != nil {
		log.Printf("draft: loading %s: %v", key, err)
		return Record{}
	}
	if !ok || raw == "" {
		return Record{}
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		log.Printf("draft: discarding corrupt draft %s: %v", key, err)
		return Record{}
	}
	return rec
}

// HasDraft reports whether a draft with at least one field exists.
func (a *Adapter) HasDraft(ctx context.Context) bool {
	return a.Load(ctx).HasFields()
}

// Clear removes the draft, the step pointer and the completed steps. Each key
// is attempted even if an earlier delete failed.
func (a *Adapter) Clear(ctx context.Context) {
	for _, key := range []string{a.Key(), a.stepKey(), a.completedKey()} {
		if err := a.store.Delete(ctx, key); err != nil {
			log.Printf("draft: clearing %s: %v", key, err)
		}
	}
}

// SaveStep stores the current step identifier.
func (a *Adapter) SaveStep(ctx context.Context, step string) {
	if err := a.store.Set(ctx, a.stepKey(), step); err != nil {
		log.Printf("draft: saving step for %s: %v", a.Key(), err)
	}
}

// LoadStep returns the stored step identifier, if any.
func (a *Adapter) LoadStep(ctx context.Context) (string, bool) {
	step, ok, err := a.store.Get(ctx, a.stepKey())
	if err != nil {
		log.Printf("draft: loading step for %s: %v", a.Key(), err)
		return "", false
	}
	return step, ok && step != ""
}

// SaveCompleted stores the completed step identifiers as a JSON array.
func (a *Adapter) SaveCompleted(ctx context.Context, steps []string) {
	if steps == nil {
		steps = []string{}
	}
	data, err := json.Marshal(steps)
	if err != nil {
		log.Printf("draft: encoding completed steps for %s: %v", a.Key(), err)
		return
	}
	if err := a.store.Set(ctx, a.completedKey(), string(data)); err != nil {
		log.Printf("draft: saving completed steps for %s: %v", a.Key(), err)
	}
}

// LoadCompleted returns the stored completed steps, or nil when missing or corrupt.
func (a *Adapter) LoadCompleted(ctx context.Context) []string {
	raw, ok, err := a.store.Get(ctx, a.completedKey())
	if err != nil {
		log.Printf("draft: loading completed steps for %s: %v", a.Key(), err)
		return nil
	}
	if !ok {
		return nil
	}
	var steps []string
	if err := json.Unmarshal([]byte(raw), &steps); err != nil {
		log.Printf("draft: discarding corrupt completed steps for %s: %v", a.Key(), err)
		return nil
	}
	return steps
}
