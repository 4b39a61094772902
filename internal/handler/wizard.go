package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/gigwizard/internal/session"
	"github.com/matthewbaird/gigwizard/internal/types"
	"github.com/matthewbaird/gigwizard/internal/wizard"
)

// WizardHandler implements the HTTP handlers for wizard sessions.
type WizardHandler struct {
	sessions *session.Manager
}

// NewWizardHandler creates a new WizardHandler.
func NewWizardHandler(sessions *session.Manager) *WizardHandler {
	return &WizardHandler{sessions: sessions}
}

// Routes registers the session routes on r.
func (h *WizardHandler) Routes(r chi.Router) {
	r.Post("/", h.CreateSession)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.DeleteSession)
		r.Patch("/fields", h.UpdateFields)
		r.Post("/next", h.Next)
		r.Post("/back", h.Back)
		r.Post("/jump", h.Jump)
		r.Post("/draft/restore", h.RestoreDraft)
		r.Post("/draft/discard", h.DiscardDraft)
		r.Post("/commit", h.Commit)
	})
}

type createSessionRequest struct {
	Mode  wizard.Mode `json:"mode"`
	GigID string      `json:"gig_id,omitempty"`
}

type sessionResponse struct {
	SessionID string             `json:"session_id"`
	Mount     wizard.MountResult `json:"mount"`
	State     wizard.Snapshot    `json:"state"`
}

// CreateSession mounts a new wizard for the caller.
// POST /v1/wizard/sessions
func (h *WizardHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := parseActor(w, r)
	if !ok {
		return
	}
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.Mode == "" {
		req.Mode = wizard.ModeCreate
	}
	if req.Mode != wizard.ModeCreate && req.Mode != wizard.ModeEdit {
		writeError(w, http.StatusBadRequest, "INVALID_MODE", "mode must be create or edit")
		return
	}
	if req.Mode == wizard.ModeEdit && req.GigID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_GIG_ID", "gig_id is required in edit mode")
		return
	}

	sess, mounted, err := h.sessions.Create(r.Context(), req.Mode, req.GigID, actor)
	if err != nil {
		wizardErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID: sess.ID,
		Mount:     mounted,
		State:     sess.Controller.Snapshot(),
	})
}

// session resolves the {id} path parameter to a session owned by the caller.
func (h *WizardHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	actor, ok := parseActor(w, r)
	if !ok {
		return nil, false
	}
	id := chi.URLParam(r, "id")
	sess := h.sessions.Get(id)
	if sess == nil {
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "wizard session not found: "+id)
		return nil, false
	}
	if sess.ActorID != actor {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "session belongs to another user")
		return nil, false
	}
	return sess, true
}

// GetSession returns the current wizard state.
// GET /v1/wizard/sessions/{id}
func (h *WizardHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Controller.Snapshot())
}

// DeleteSession closes the wizard, writing any pending draft.
// DELETE /v1/wizard/sessions/{id}
func (h *WizardHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.sessions.Remove(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

// UpdateFields applies a partial field update.
// PATCH /v1/wizard/sessions/{id}/fields
func (h *WizardHandler) UpdateFields(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var patch types.GigPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	snap, err := sess.Controller.Update(patch)
	if err != nil {
		wizardErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type navigationResponse struct {
	Moved      bool            `json:"moved"`
	Validation *wizard.Result  `json:"validation,omitempty"`
	State      wizard.Snapshot `json:"state"`
}

// Next validates the current step and advances when it passes. A failing
// step is reported with 200 and moved=false.
// POST /v1/wizard/sessions/{id}/next
func (h *WizardHandler) Next(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	res, moved, err := sess.Controller.Next(r.Context())
	if err != nil {
		wizardErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, navigationResponse{
		Moved:      moved,
		Validation: &res,
		State:      sess.Controller.Snapshot(),
	})
}

// Back retreats one step.
// POST /v1/wizard/sessions/{id}/back
func (h *WizardHandler) Back(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	moved, err := sess.Controller.Back(r.Context())
	if err != nil {
		wizardErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, navigationResponse{Moved: moved, State: sess.Controller.Snapshot()})
}

// Jump moves to a reachable step.
// POST /v1/wizard/sessions/{id}/jump
func (h *WizardHandler) Jump(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Step wizard.Step `json:"step"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if !req.Step.Valid() {
		writeError(w, http.StatusBadRequest, "INVALID_STEP", "unknown step: "+string(req.Step))
		return
	}
	moved, err := sess.Controller.JumpTo(r.Context(), req.Step)
	if err != nil {
		wizardErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, navigationResponse{Moved: moved, State: sess.Controller.Snapshot()})
}

// RestoreDraft applies the stored draft.
// POST /v1/wizard/sessions/{id}/draft/restore
func (h *WizardHandler) RestoreDraft(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	snap, err := sess.Controller.RestoreDraft(r.Context())
	if err != nil {
		wizardErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// DiscardDraft removes the stored draft.
// POST /v1/wizard/sessions/{id}/draft/discard
func (h *WizardHandler) DiscardDraft(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	snap, err := sess.Controller.DiscardDraft(r.Context())
	if err != nil {
		wizardErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Commit validates every step and writes the gig.
// POST /v1/wizard/sessions/{id}/commit
func (h *WizardHandler) Commit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	res, err := sess.Controller.Commit(r.Context())
	if errors.Is(err, wizard.ErrNotReady) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      err.Error(),
			"code":       "NOT_READY",
			"validation": res.Validation,
		})
		return
	}
	if err != nil {
		wizardErrorToHTTP(w, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{
		"commit": res,
		"state":  sess.Controller.Snapshot(),
	})
}
