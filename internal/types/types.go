package types

import "github.com/DoyleJ11/intwana-hub/internal/engine"

// Client message types that are not game moves.
const (
	MsgReset = "Reset"
	MsgLeave = "Leave"
)

// Server message types.
const (
	MsgRoomSnapshot = "RoomSnapshot"
	MsgError        = "Error"
)

type ClientMessage struct {
	Type   string `json:"type"`
	Cell   int    `json:"cell,omitempty"`
	Choice string `json:"choice,omitempty"`
	Card   int    `json:"card,omitempty"`
	Letter string `json:"letter,omitempty"`
	Option string `json:"option,omitempty"`
}

type ServerMessage struct {
	Type    string       `json:"type"` // "RoomSnapshot" | "Error"
	Version int64        `json:"version,omitempty"`
	Room    *engine.Room `json:"room,omitempty"`
	Role    string       `json:"role,omitempty"`
	CanAct  bool         `json:"canAct,omitempty"`
	Error   string       `json:"error,omitempty"`
}
