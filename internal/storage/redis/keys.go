package redis

import (
	"fmt"

	"github.com/moonhowl/werewolf-go/internal/model"
)

// Key prefix for all room registry data
const keyPrefix = "werewolf"

// roomKey returns the Redis key for a Room
func roomKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, id)
}

// passcodeIndexKey returns the Redis key for the passcode -> room_id index.
// Only joinable rooms are indexed; the entry is dropped when a room starts.
func passcodeIndexKey(code model.Passcode) string {
	return fmt.Sprintf("%s:idx:passcode:%s", keyPrefix, code)
}

// roomSetKey returns the Redis key for the SET of all room ids
func roomSetKey() string {
	return fmt.Sprintf("%s:idx:rooms", keyPrefix)
}
