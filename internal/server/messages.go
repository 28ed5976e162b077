package server

import (
	"encoding/json"

	"github.com/jremy42/42-ft-transcendence/internal/game"
)

// envelope is the wire framing for every message in both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// outEnvelope is the outbound counterpart; Data is marshaled in place.
type outEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Inbound payloads.

type createPayload struct {
	Options game.Options `json:"options"`
}

type joinPayload struct {
	GameID string `json:"gameId"`
}

type inputPayload struct {
	GameID string `json:"gameId"`
	Move   string `json:"move,omitempty"`
	Shoot  bool   `json:"shoot,omitempty"`
}

type quitPayload struct {
	GameID string `json:"gameId"`
}

// Outbound gateway replies. Match-produced events (game.update,
// game.countdown, game.end) are defined in the game package; these cover
// the request/response half of the protocol.

type createdEvent struct {
	GameID string `json:"gameId"`
}

func (createdEvent) EventName() string { return "game.created" }

type joinedEvent struct {
	GameID   string        `json:"gameId"`
	Snapshot game.Snapshot `json:"snapshot"`
}

func (joinedEvent) EventName() string { return "game.joined" }

// errorEvent reports a recoverable per-request failure. Code is one of
// NotFound, AlreadyInMatch, InvalidInput.
type errorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (errorEvent) EventName() string { return "error" }
