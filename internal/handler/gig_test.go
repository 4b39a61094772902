package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/gigwizard/internal/activity"
	"github.com/matthewbaird/gigwizard/internal/event"
	"github.com/matthewbaird/gigwizard/internal/gig"
	"github.com/matthewbaird/gigwizard/internal/types"
)

func TestGetGig(t *testing.T) {
	f := newFixture(t)
	fields := types.NewGigFields()
	fields.Title = "Rooftop fashion shoot"
	id, err := f.repo.Create(context.Background(), "u1", fields)
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/v1/gigs/"+id, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	g := decode[gig.Gig](t, rec)
	assert.Equal(t, id, g.ID)
	assert.Equal(t, "Rooftop fashion shoot", g.Fields.Title)

	rec = f.do(t, http.MethodGet, "/v1/gigs/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListGigs_DefaultsToActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.repo.Create(ctx, "u1", types.NewGigFields())
	require.NoError(t, err)
	_, err = f.repo.Create(ctx, "u2", types.NewGigFields())
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/v1/gigs/", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Gigs       []gig.Gig `json:"gigs"`
		TotalCount int       `json:"total_count"`
	}](t, rec)
	assert.Equal(t, 1, body.TotalCount)
	assert.Equal(t, "u1", body.Gigs[0].OwnerID)

	rec = f.do(t, http.MethodGet, "/v1/gigs/", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGigActivitySummary(t *testing.T) {
	f := newFixture(t)
	recorder := event.NewActivityRecorder(f.activity)
	p := event.GigCommittedPayload{GigID: "g1", OwnerID: "u1", ActorID: "u1", Status: types.StatusPublished, Previous: types.StatusDraft}
	for _, evt := range event.ForCommit(p) {
		require.NoError(t, recorder.Record(context.Background(), evt))
	}

	rec := f.do(t, http.MethodGet, "/v1/gigs/g1/activity/summary", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	s := decode[activity.Summary](t, rec)
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.ByEventType[event.TypeUpdated])
	assert.Equal(t, 1, s.ByEventType[event.TypePublished])
}
