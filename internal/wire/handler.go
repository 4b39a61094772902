package wire

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/gigwizard/internal/session"
	"github.com/matthewbaird/gigwizard/internal/types"
	"github.com/matthewbaird/gigwizard/internal/wizard"
)

// Handler manages WebSocket connections bound to one wizard session each.
type Handler struct {
	sessions *session.Manager
}

// NewHandler creates a WebSocket handler.
func NewHandler(sessions *session.Manager) *Handler {
	return &Handler{sessions: sessions}
}

// ServeHTTP resolves the {id} session, upgrades to WebSocket and runs the
// message loop. The actor comes from the X-Actor header or the actor query
// parameter, since browsers cannot set headers on upgrade requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	actor := r.Header.Get("X-Actor")
	if actor == "" {
		actor = r.URL.Query().Get("actor")
	}
	if actor == "" {
		http.Error(w, "X-Actor header or actor parameter is required", http.StatusBadRequest)
		return
	}
	sess := h.sessions.Get(chi.URLParam(r, "id"))
	if sess == nil {
		http.Error(w, "wizard session not found", http.StatusNotFound)
		return
	}
	if sess.ActorID != actor {
		http.Error(w, "session belongs to another user", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("wire: websocket accept: %v", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	h.send(ctx, conn, ServerMessage{
		Type: TypeState,
		Data: StateData{State: sess.Controller.Snapshot()},
	})

	for {
		var msg ClientMessage
		err := wsjson.Read(ctx, conn, &msg)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				log.Printf("wire: connection closed: %v", websocket.CloseStatus(err))
			}
			return
		}
		sess.Touch()

		switch msg.Type {
		case TypeUpdate:
			h.handleUpdate(ctx, conn, sess, msg)
		case TypeNext:
			h.handleNext(ctx, conn, sess, msg)
		case TypeBack:
			moved, err := sess.Controller.Back(ctx)
			h.reply(ctx, conn, sess, msg.ID, &moved, nil, err)
		case TypeJump:
			h.handleJump(ctx, conn, sess, msg)
		case TypeRestore:
			_, err := sess.Controller.RestoreDraft(ctx)
			h.reply(ctx, conn, sess, msg.ID, nil, nil, err)
		case TypeDiscard:
			_, err := sess.Controller.DiscardDraft(ctx)
			h.reply(ctx, conn, sess, msg.ID, nil, nil, err)
		case TypeCommit:
			h.handleCommit(ctx, conn, sess, msg)
		case TypePing:
			h.send(ctx, conn, ServerMessage{Type: TypePong, RequestID: msg.ID})
		default:
			h.sendError(ctx, conn, msg.ID, "unknown_type", fmt.Sprintf("unknown message type: %s", msg.Type))
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, conn *websocket.Conn, sess *session.Session, msg ClientMessage) {
	var patch types.GigPatch
	if err := json.Unmarshal(msg.Data, &patch); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid update data")
		return
	}
	_, err := sess.Controller.Update(patch)
	h.reply(ctx, conn, sess, msg.ID, nil, nil, err)
}

func (h *Handler) handleNext(ctx context.Context, conn *websocket.Conn, sess *session.Session, msg ClientMessage) {
	res, moved, err := sess.Controller.Next(ctx)
	h.reply(ctx, conn, sess, msg.ID, &moved, &res, err)
}

func (h *Handler) handleJump(ctx context.Context, conn *websocket.Conn, sess *session.Session, msg ClientMessage) {
	var data JumpData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid jump data")
		return
	}
	if !data.Step.Valid() {
		h.sendError(ctx, conn, msg.ID, "invalid_step", "unknown step: "+string(data.Step))
		return
	}
	moved, err := sess.Controller.JumpTo(ctx, data.Step)
	h.reply(ctx, conn, sess, msg.ID, &moved, nil, err)
}

func (h *Handler) handleCommit(ctx context.Context, conn *websocket.Conn, sess *session.Session, msg ClientMessage) {
	res, err := sess.Controller.Commit(ctx)
	switch {
	case errors.Is(err, wizard.ErrNotReady):
		h.send(ctx, conn, ServerMessage{
			Type:      TypeError,
			RequestID: msg.ID,
			Data: ErrorData{
				Code:       "not_ready",
				Message:    err.Error(),
				Validation: &res.Validation,
			},
		})
	case err != nil:
		h.sendWizardError(ctx, conn, msg.ID, err)
	default:
		h.send(ctx, conn, ServerMessage{
			Type:      TypeCommitted,
			RequestID: msg.ID,
			Data:      CommittedData{Commit: res, State: sess.Controller.Snapshot()},
		})
	}
}

// reply sends the post-operation state, or the error if the operation failed.
func (h *Handler) reply(ctx context.Context, conn *websocket.Conn, sess *session.Session, requestID string, moved *bool, res *wizard.Result, err error) {
	if err != nil {
		h.sendWizardError(ctx, conn, requestID, err)
		return
	}
	h.send(ctx, conn, ServerMessage{
		Type:      TypeState,
		RequestID: requestID,
		Data: StateData{
			Moved:      moved,
			Validation: res,
			State:      sess.Controller.Snapshot(),
		},
	})
}

func (h *Handler) sendWizardError(ctx context.Context, conn *websocket.Conn, requestID string, err error) {
	switch {
	case errors.Is(err, wizard.ErrCommitInFlight):
		h.sendError(ctx, conn, requestID, "commit_in_flight", err.Error())
	case errors.Is(err, wizard.ErrNotMounted):
		h.sendError(ctx, conn, requestID, "not_mounted", err.Error())
	case errors.Is(err, wizard.ErrCommitFailed):
		log.Printf("wire: commit error: %v", err)
		h.sendError(ctx, conn, requestID, "commit_failed", "failed to save gig, please try again")
	default:
		log.Printf("wire: internal error: %v", err)
		h.sendError(ctx, conn, requestID, "internal_error", "internal error")
	}
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) {
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		log.Printf("wire: write error: %v", err)
	}
}

func (h *Handler) sendError(ctx context.Context, conn *websocket.Conn, requestID, code, message string) {
	h.send(ctx, conn, ServerMessage{
		Type:      TypeError,
		RequestID: requestID,
		Data: ErrorData{
			Code:    code,
			Message: message,
		},
	})
}
