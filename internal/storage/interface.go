package storage

import (
	"context"

	"github.com/moonhowl/werewolf-go/internal/model"
)

// Storage is the room registry: the mapping from room identifier to room
// state. It owns lookups only; lifecycle decisions (when a room is created,
// mutated or deleted) belong to the room controller.
type Storage interface {
	// SaveRoom inserts or replaces a room
	SaveRoom(ctx context.Context, room *model.Room) error

	// GetRoom returns the room with the given ID, or model.ErrRoomNotFound
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)

	// DeleteRoom removes a room unconditionally
	DeleteRoom(ctx context.Context, id model.RoomID) error

	// FindRoomByPasscode returns the joinable (not yet started) room with the
	// given passcode, or model.ErrRoomNotFound. The caller passes a
	// normalized (uppercase) passcode.
	FindRoomByPasscode(ctx context.Context, code model.Passcode) (*model.Room, error)

	// FindRoomByConnection returns the room the given connection belongs to,
	// as facilitator or player, or model.ErrRoomNotFound
	FindRoomByConnection(ctx context.Context, conn model.ConnectionID) (*model.Room, error)

	// ListRooms returns all rooms in the registry
	ListRooms(ctx context.Context) ([]*model.Room, error)
}
