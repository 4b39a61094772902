// Package wire defines the WebSocket protocol for driving a wizard session live.
package wire

import (
	"encoding/json"

	"github.com/matthewbaird/gigwizard/internal/wizard"
)

// Client message types.
const (
	TypeUpdate  = "update"
	TypeNext    = "next"
	TypeBack    = "back"
	TypeJump    = "jump"
	TypeRestore = "restore"
	TypeDiscard = "discard"
	TypeCommit  = "commit"
	TypePing    = "ping"
)

// Server message types.
const (
	TypeState     = "state"
	TypeCommitted = "committed"
	TypeError     = "error"
	TypePong      = "pong"
)

// ── Client → Server messages ────────────────────────────────────────────────

// ClientMessage is the envelope for all client-to-server WebSocket messages.
type ClientMessage struct {
	Type string          `json:"type"` // "update", "next", "back", "jump", "restore", "discard", "commit", "ping"
	ID   string          `json:"id"`   // Client-assigned request ID
	Data json.RawMessage `json:"data,omitempty"`
}

// JumpData is the payload for "jump" messages.
type JumpData struct {
	Step wizard.Step `json:"step"`
}

// ── Server → Client messages ────────────────────────────────────────────────

// ServerMessage is the envelope for all server-to-client WebSocket messages.
type ServerMessage struct {
	Type      string `json:"type"`                 // "state", "committed", "error", "pong"
	RequestID string `json:"request_id,omitempty"` // Echoes client ID
	Data      any    `json:"data,omitempty"`
}

// StateData carries the wizard state after an operation. Moved and
// Validation are set for navigation replies.
type StateData struct {
	Moved      *bool           `json:"moved,omitempty"`
	Validation *wizard.Result  `json:"validation,omitempty"`
	State      wizard.Snapshot `json:"state"`
}

// CommittedData carries a successful commit.
type CommittedData struct {
	Commit wizard.CommitResult `json:"commit"`
	State  wizard.Snapshot     `json:"state"`
}

// ErrorData carries an error message. Validation is set when a commit was
// rejected as not ready.
type ErrorData struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Validation *wizard.Result `json:"validation,omitempty"`
}
