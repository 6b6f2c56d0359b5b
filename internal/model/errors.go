package model

import "errors"

// Common errors used across the application.
//
// ErrRoomNotFound, ErrPlayerNotFound, ErrNotFacilitator,
// ErrGameAlreadyStarted and ErrGameNotStarted are rejections: the action was
// disallowed under current state or authorization and had no effect. The
// transport layer maps them to a user-facing "action not permitted" message.
//
// ErrInsufficientPlayers is different: the event layer is expected to
// pre-check the headcount before asking the core to start a game, so hitting
// it indicates a caller-side precondition violation and gets its own message.
var (
	// Room errors
	ErrRoomNotFound   = errors.New("room not found")
	ErrPlayerNotFound = errors.New("player not found in room")

	// Authorization / state-gate rejections
	ErrNotFacilitator     = errors.New("connection is not the room facilitator")
	ErrGameAlreadyStarted = errors.New("game has already started")
	ErrGameNotStarted     = errors.New("game has not started")

	// Precondition violations
	ErrInsufficientPlayers = errors.New("insufficient players to start game")
)
