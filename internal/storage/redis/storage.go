package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/moonhowl/werewolf-go/internal/model"
	"github.com/moonhowl/werewolf-go/internal/storage"
)

// Storage is a Redis-backed implementation of the room registry
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}

	// Pipeline for atomic save + index maintenance
	pipe := s.client.Pipeline()
	pipe.Set(ctx, roomKey(room.ID), data, s.cfg.RoomTTL)
	pipe.SAdd(ctx, roomSetKey(), string(room.ID))
	if room.Joinable() {
		pipe.Set(ctx, passcodeIndexKey(room.Passcode), string(room.ID), s.cfg.RoomTTL)
	} else {
		pipe.Del(ctx, passcodeIndexKey(room.Passcode))
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	data, err := s.client.Get(ctx, roomKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	// Load the room first so the passcode index can be cleaned up; a room
	// whose key already expired only needs its set membership removed.
	room, err := s.GetRoom(ctx, id)
	if err != nil && !errors.Is(err, model.ErrRoomNotFound) {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, roomKey(id))
	pipe.SRem(ctx, roomSetKey(), string(id))
	if room != nil {
		pipe.Del(ctx, passcodeIndexKey(room.Passcode))
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) FindRoomByPasscode(ctx context.Context, code model.Passcode) (*model.Room, error) {
	roomID, err := s.client.Get(ctx, passcodeIndexKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	room, err := s.GetRoom(ctx, model.RoomID(roomID))
	if err != nil {
		return nil, err
	}

	// The index only holds joinable rooms, but the room key is authoritative
	if !room.Joinable() {
		return nil, model.ErrRoomNotFound
	}
	return room, nil
}

func (s *Storage) FindRoomByConnection(ctx context.Context, conn model.ConnectionID) (*model.Room, error) {
	rooms, err := s.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	for _, room := range rooms {
		if room.HasConnection(conn) {
			return room, nil
		}
	}
	return nil, model.ErrRoomNotFound
}

func (s *Storage) ListRooms(ctx context.Context) ([]*model.Room, error) {
	ids, err := s.client.SMembers(ctx, roomSetKey()).Result()
	if err != nil {
		return nil, err
	}

	rooms := make([]*model.Room, 0, len(ids))
	for _, id := range ids {
		room, err := s.GetRoom(ctx, model.RoomID(id))
		if errors.Is(err, model.ErrRoomNotFound) {
			// Room key hit its TTL; drop the stale set member
			s.client.SRem(ctx, roomSetKey(), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}
