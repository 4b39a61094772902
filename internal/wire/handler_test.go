package wire

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/gigwizard/internal/draft"
	"github.com/matthewbaird/gigwizard/internal/gig"
	"github.com/matthewbaird/gigwizard/internal/session"
	"github.com/matthewbaird/gigwizard/internal/wizard"
)

// reply mirrors ServerMessage with the payload left raw.
type reply struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

func setup(t *testing.T) (*httptest.Server, *session.Manager) {
	t.Helper()
	repo := gig.NewMemoryRepository()
	store := draft.NewMemoryStore(0)
	m := session.NewManager(func(mode wizard.Mode, gigID, actorID string) (*wizard.Controller, error) {
		return wizard.NewController(wizard.Config{
			Mode:       mode,
			GigID:      gigID,
			ActorID:    actorID,
			Drafts:     draft.NewAdapter(store, actorID, gigID, draft.WithDebounce(time.Hour)),
			Repository: repo,
		})
	}, time.Hour, time.Hour)

	r := chi.NewRouter()
	r.Get("/sessions/{id}/live", NewHandler(m).ServeHTTP)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, m
}

func dial(t *testing.T, ctx context.Context, srv *httptest.Server, sessionID, actor string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/" + sessionID + "/live?actor=" + actor
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func roundTrip(t *testing.T, ctx context.Context, conn *websocket.Conn, msg ClientMessage) reply {
	t.Helper()
	require.NoError(t, wsjson.Write(ctx, conn, msg))
	var out reply
	require.NoError(t, wsjson.Read(ctx, conn, &out))
	return out
}

func TestLive_InitialStateAndPing(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv, m := setup(t)
	sess, _, err := m.Create(ctx, wizard.ModeCreate, "", "u1")
	require.NoError(t, err)

	conn := dial(t, ctx, srv, sess.ID, "u1")

	var first reply
	require.NoError(t, wsjson.Read(ctx, conn, &first))
	assert.Equal(t, TypeState, first.Type)
	var state StateData
	require.NoError(t, json.Unmarshal(first.Data, &state))
	assert.Equal(t, wizard.StepBasic, state.State.Current)

	pong := roundTrip(t, ctx, conn, ClientMessage{Type: TypePing, ID: "p1"})
	assert.Equal(t, TypePong, pong.Type)
	assert.Equal(t, "p1", pong.RequestID)
}

func TestLive_UpdateAndNext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv, m := setup(t)
	sess, _, err := m.Create(ctx, wizard.ModeCreate, "", "u1")
	require.NoError(t, err)

	conn := dial(t, ctx, srv, sess.ID, "u1")
	var first reply
	require.NoError(t, wsjson.Read(ctx, conn, &first))

	got := roundTrip(t, ctx, conn, ClientMessage{
		Type: TypeUpdate,
		ID:   "u1",
		Data: json.RawMessage(`{"title":"Draft Shoot","city":"Dublin"}`),
	})
	require.Equal(t, TypeState, got.Type)
	var state StateData
	require.NoError(t, json.Unmarshal(got.Data, &state))
	assert.Equal(t, "Draft Shoot", state.State.Fields.Title)
	assert.Equal(t, "Dublin", state.State.Fields.City)

	got = roundTrip(t, ctx, conn, ClientMessage{Type: TypeNext, ID: "n1"})
	require.Equal(t, TypeState, got.Type)
	state = StateData{}
	require.NoError(t, json.Unmarshal(got.Data, &state))
	require.NotNil(t, state.Moved)
	assert.False(t, *state.Moved)
	require.NotNil(t, state.Validation)
	assert.Contains(t, state.Validation.Errors, wizard.MsgDescriptionTooShort)
}

func TestLive_CommitNotReadyAndUnknownType(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv, m := setup(t)
	sess, _, err := m.Create(ctx, wizard.ModeCreate, "", "u1")
	require.NoError(t, err)

	conn := dial(t, ctx, srv, sess.ID, "u1")
	var first reply
	require.NoError(t, wsjson.Read(ctx, conn, &first))

	got := roundTrip(t, ctx, conn, ClientMessage{Type: TypeCommit, ID: "c1"})
	require.Equal(t, TypeError, got.Type)
	var e ErrorData
	require.NoError(t, json.Unmarshal(got.Data, &e))
	assert.Equal(t, "not_ready", e.Code)
	require.NotNil(t, e.Validation)
	assert.False(t, e.Validation.Valid)

	got = roundTrip(t, ctx, conn, ClientMessage{Type: "explode", ID: "x1"})
	require.Equal(t, TypeError, got.Type)
	e = ErrorData{}
	require.NoError(t, json.Unmarshal(got.Data, &e))
	assert.Equal(t, "unknown_type", e.Code)
}

func TestLive_RejectsOtherActor(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv, m := setup(t)
	sess, _, err := m.Create(ctx, wizard.ModeCreate, "", "u1")
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/" + sess.ID + "/live?actor=u2"
	_, resp, err := websocket.Dial(ctx, url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
