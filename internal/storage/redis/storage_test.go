package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/moonhowl/werewolf-go/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.RoomTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) newRoom(id, passcode, facilitator string) *model.Room {
	return &model.Room{
		ID:          model.RoomID(id),
		Passcode:    model.Passcode(passcode),
		Facilitator: model.ConnectionID(facilitator),
		Players:     []*model.Player{},
		Phase:       model.PhaseDay,
		CreatedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *StorageSuite) TestSaveAndGetRoom() {
	room := s.newRoom("room-1", "ABC123", "conn-f")

	err := s.storage.SaveRoom(s.ctx, room)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetRoom(s.ctx, "room-1")
	s.Require().NoError(err)
	s.Equal(room.ID, retrieved.ID)
	s.Equal(room.Passcode, retrieved.Passcode)
	s.Equal(room.Facilitator, retrieved.Facilitator)
}

func (s *StorageSuite) TestGetRoomNotFound() {
	_, err := s.storage.GetRoom(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestRoomHasTTL() {
	room := s.newRoom("room-1", "ABC123", "conn-f")
	_ = s.storage.SaveRoom(s.ctx, room)

	s.Positive(s.mini.TTL(roomKey("room-1")))
}

func (s *StorageSuite) TestRoomExpiresWithTTL() {
	room := s.newRoom("room-1", "ABC123", "conn-f")
	_ = s.storage.SaveRoom(s.ctx, room)

	s.mini.FastForward(2 * time.Hour)

	_, err := s.storage.GetRoom(s.ctx, "room-1")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestDeleteRoomRemovesIndexes() {
	room := s.newRoom("room-1", "ABC123", "conn-f")
	_ = s.storage.SaveRoom(s.ctx, room)

	err := s.storage.DeleteRoom(s.ctx, "room-1")
	s.Require().NoError(err)

	_, err = s.storage.GetRoom(s.ctx, "room-1")
	s.ErrorIs(err, model.ErrRoomNotFound)

	_, err = s.storage.FindRoomByPasscode(s.ctx, "ABC123")
	s.ErrorIs(err, model.ErrRoomNotFound)

	rooms, err := s.storage.ListRooms(s.ctx)
	s.Require().NoError(err)
	s.Empty(rooms)
}

func (s *StorageSuite) TestFindRoomByPasscode() {
	room := s.newRoom("room-1", "ABC123", "conn-f")
	_ = s.storage.SaveRoom(s.ctx, room)

	found, err := s.storage.FindRoomByPasscode(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(room.ID, found.ID)
}

func (s *StorageSuite) TestPasscodeIndexDroppedWhenRoomStarts() {
	room := s.newRoom("room-1", "ABC123", "conn-f")
	_ = s.storage.SaveRoom(s.ctx, room)

	room.Started = true
	_ = s.storage.SaveRoom(s.ctx, room)

	_, err := s.storage.FindRoomByPasscode(s.ctx, "ABC123")
	s.ErrorIs(err, model.ErrRoomNotFound)

	// The room itself is still retrievable by id
	retrieved, err := s.storage.GetRoom(s.ctx, "room-1")
	s.Require().NoError(err)
	s.True(retrieved.Started)
}

func (s *StorageSuite) TestFindRoomByConnection() {
	room := s.newRoom("room-1", "ABC123", "conn-f")
	room.Players = append(room.Players, &model.Player{
		ID:         "player-1",
		Name:       "Alice",
		Connection: "conn-1",
	})
	_ = s.storage.SaveRoom(s.ctx, room)

	found, err := s.storage.FindRoomByConnection(s.ctx, "conn-f")
	s.Require().NoError(err)
	s.Equal(room.ID, found.ID)

	found, err = s.storage.FindRoomByConnection(s.ctx, "conn-1")
	s.Require().NoError(err)
	s.Equal(room.ID, found.ID)

	_, err = s.storage.FindRoomByConnection(s.ctx, "conn-unknown")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestListRoomsSkipsExpiredEntries() {
	_ = s.storage.SaveRoom(s.ctx, s.newRoom("room-1", "ABC123", "conn-f1"))
	_ = s.storage.SaveRoom(s.ctx, s.newRoom("room-2", "XYZ789", "conn-f2"))

	// Expire one room behind the set's back
	s.mini.Del(roomKey("room-1"))

	rooms, err := s.storage.ListRooms(s.ctx)
	s.Require().NoError(err)
	s.Len(rooms, 1)
	s.Equal(model.RoomID("room-2"), rooms[0].ID)
}
