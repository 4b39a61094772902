package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/gigwizard/internal/activity"
	"github.com/matthewbaird/gigwizard/internal/draft"
	"github.com/matthewbaird/gigwizard/internal/gig"
	"github.com/matthewbaird/gigwizard/internal/session"
	"github.com/matthewbaird/gigwizard/internal/wizard"
)

func testConfig() Config {
	repo := gig.NewMemoryRepository()
	store := draft.NewMemoryStore(0)
	sessions := session.NewManager(func(mode wizard.Mode, gigID, actorID string) (*wizard.Controller, error) {
		return wizard.NewController(wizard.Config{
			Mode:       mode,
			GigID:      gigID,
			ActorID:    actorID,
			Drafts:     draft.NewAdapter(store, actorID, gigID, draft.WithDebounce(time.Hour)),
			Repository: repo,
		})
	}, time.Hour, time.Hour)
	return Config{Sessions: sessions, Gigs: repo, Activity: activity.NewMemoryStore()}
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRouter(testConfig()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRoutesAreMounted(t *testing.T) {
	router := NewRouter(testConfig())

	req := httptest.NewRequest(http.MethodPost, "/v1/wizard/sessions", strings.NewReader(`{"mode":"create"}`))
	req.Header.Set("X-Actor", "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/gigs/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Upgrade without an actor is rejected before the handshake.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/wizard/sessions/abc/live", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
