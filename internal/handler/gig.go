package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/gigwizard/internal/activity"
	"github.com/matthewbaird/gigwizard/internal/gig"
	"github.com/matthewbaird/gigwizard/internal/types"
)

// GigHandler serves committed gigs and their activity stream. These handlers
// don't go through a wizard session.
type GigHandler struct {
	repo  gig.Repository
	store activity.Store
}

// NewGigHandler creates a new GigHandler.
func NewGigHandler(repo gig.Repository, store activity.Store) *GigHandler {
	return &GigHandler{repo: repo, store: store}
}

// Routes registers the gig routes on r.
func (h *GigHandler) Routes(r chi.Router) {
	r.Get("/", h.ListGigs)
	r.Get("/{id}", h.GetGig)
	r.Get("/{id}/activity", h.GetGigActivity)
	r.Get("/{id}/activity/summary", h.GetGigActivitySummary)
}

// GetGig returns one committed gig.
// GET /v1/gigs/{id}
func (h *GigHandler) GetGig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	g, err := h.repo.Fetch(r.Context(), id)
	if errors.Is(err, gig.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "gig not found: "+id)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "FETCH_FAILED", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// ListGigs returns the gigs of an owner, defaulting to the caller.
// GET /v1/gigs?owner={owner_id}
func (h *GigHandler) ListGigs(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		owner = r.Header.Get("X-Actor")
	}
	if owner == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMS", "owner or X-Actor is required")
		return
	}
	gigs, err := h.repo.ListByOwner(r.Context(), owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "LIST_FAILED", err.Error())
		return
	}
	if gigs == nil {
		gigs = []gig.Gig{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"gigs": gigs, "total_count": len(gigs)})
}

// GetGigActivity returns the lifecycle activity feed of a gig, newest first.
// GET /v1/gigs/{id}/activity
func (h *GigHandler) GetGigActivity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	opts := activity.DefaultQueryOptions()
	if s := r.URL.Query().Get("since"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			opts.Since = &t
		}
	}
	if u := r.URL.Query().Get("until"); u != "" {
		if t, err := time.Parse(time.RFC3339, u); err == nil {
			opts.Until = &t
		}
	}
	if cats := r.URL.Query().Get("categories"); cats != "" {
		opts.Categories = strings.Split(cats, ",")
	}
	if mw := r.URL.Query().Get("min_weight"); mw != "" {
		opts.MinWeight = mw
	}
	opts.Limit = parseLimit(r, "limit", 100, 500)
	opts.Cursor = r.URL.Query().Get("cursor")

	entries, nextCursor, totalCount, err := h.store.QueryByEntity(r.Context(), "gig", id, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "QUERY_FAILED", err.Error())
		return
	}
	if entries == nil {
		entries = []types.ActivityEntry{}
	}

	writeJSON(w, http.StatusOK, struct {
		Activities []types.ActivityEntry `json:"activities"`
		NextCursor string                `json:"next_cursor,omitempty"`
		TotalCount int                   `json:"total_count"`
	}{
		Activities: entries,
		NextCursor: nextCursor,
		TotalCount: totalCount,
	})
}

// GetGigActivitySummary returns activity counts for a gig over its whole life.
// GET /v1/gigs/{id}/activity/summary
func (h *GigHandler) GetGigActivitySummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	opts := activity.QueryOptions{Limit: 500} // fetch all for aggregation

	entries, _, _, err := h.store.QueryByEntity(r.Context(), "gig", id, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "QUERY_FAILED", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, activity.Summarize(entries, "gig", id))
}
