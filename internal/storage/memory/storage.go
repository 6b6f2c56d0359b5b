package memory

import (
	"context"
	"sync"

	"github.com/moonhowl/werewolf-go/internal/model"
	"github.com/moonhowl/werewolf-go/internal/storage"
)

// Storage is an in-memory implementation of the room registry. The mutex
// guards the map; rooms are cloned on the way in and out so callers never
// share a mutable Room, matching the value semantics of the redis backend.
type Storage struct {
	mu    sync.RWMutex
	rooms map[model.RoomID]*model.Room
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		rooms: make(map[model.RoomID]*model.Room),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room.Clone()
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
	return nil
}

func (s *Storage) FindRoomByPasscode(ctx context.Context, code model.Passcode) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, room := range s.rooms {
		if room.Passcode == code && room.Joinable() {
			return room.Clone(), nil
		}
	}
	return nil, model.ErrRoomNotFound
}

func (s *Storage) FindRoomByConnection(ctx context.Context, conn model.ConnectionID) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, room := range s.rooms {
		if room.HasConnection(conn) {
			return room.Clone(), nil
		}
	}
	return nil, model.ErrRoomNotFound
}

func (s *Storage) ListRooms(ctx context.Context) ([]*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make([]*model.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room.Clone())
	}
	return rooms, nil
}
