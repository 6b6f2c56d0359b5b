package ws

import (
	"errors"

	"github.com/moonhowl/werewolf-go/internal/model"
)

var (
	errInvalidPayload  = errors.New("invalid payload")
	errInvalidName     = errors.New("name must be between 1 and 20 characters")
	errInvalidPasscode = errors.New("passcode is required")
	errInvalidPhase    = errors.New("phase must be day or night")
	errAlreadyInRoom   = errors.New("already in a room")
	errNameTaken       = errors.New("that name is already taken in this room")
	errNotWerewolf     = errors.New("only living werewolves can use werewolf chat")
	errChatWrongPhase  = errors.New("werewolf chat is only available at night")
)

// userMessage maps an operation failure to text safe to show a player
func userMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		return "room not found or no longer joinable"
	case errors.Is(err, model.ErrPlayerNotFound):
		return "player not found"
	case errors.Is(err, model.ErrNotFacilitator):
		return "only the facilitator can do that"
	case errors.Is(err, model.ErrGameAlreadyStarted):
		return "the game has already started"
	case errors.Is(err, model.ErrGameNotStarted):
		return "the game has not started yet"
	case errors.Is(err, model.ErrInsufficientPlayers):
		return "not enough players to start the game"
	default:
		return err.Error()
	}
}
