package room

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moonhowl/werewolf-go/internal/dependencies/clock"
	"github.com/moonhowl/werewolf-go/internal/dependencies/random"
	"github.com/moonhowl/werewolf-go/internal/model"
	"github.com/moonhowl/werewolf-go/internal/services/roles"
	"github.com/moonhowl/werewolf-go/internal/storage"
)

const (
	// PasscodeLength is the length of generated room passcodes
	PasscodeLength = 6
	// PasscodeAlphabet is the characters used in passcodes, kept uppercase so
	// comparisons only need the caller to normalize
	PasscodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// MaxRoomAge is how long a room may live before the periodic sweep
	// removes it
	MaxRoomAge = 24 * time.Hour
)

// Controller drives the room/session state machine: membership, the
// irreversible not-started -> started transition with role assignment, the
// day/night phase toggle, and facilitator kill/revive actions.
//
// The host runs one goroutine per connection, so every operation holds mu
// for its full load-mutate-save span. Lost updates between two interleaved
// operations on the same room are therefore impossible within a process.
type Controller struct {
	mu sync.Mutex

	storage storage.Storage
	engine  *roles.Engine
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// NewController creates a new room controller
func NewController(
	storage storage.Storage,
	engine *roles.Engine,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		engine:  engine,
		clock:   clock,
		random:  random,
		logger:  logger,
	}
}

// CreateRoom allocates a new room with the given connection as facilitator.
// The passcode is checked for uniqueness among joinable rooms; collisions
// are regenerated.
func (c *Controller) CreateRoom(ctx context.Context, facilitator model.ConnectionID) (*model.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var code model.Passcode
	for {
		code = model.Passcode(c.random.String(PasscodeLength, PasscodeAlphabet))
		_, err := c.storage.FindRoomByPasscode(ctx, code)
		if errors.Is(err, model.ErrRoomNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	room := &model.Room{
		ID:          model.RoomID(uuid.NewString()),
		Passcode:    code,
		Facilitator: facilitator,
		Players:     []*model.Player{},
		Started:     false,
		Phase:       model.PhaseDay,
		CreatedAt:   c.clock.Now(),
	}

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	c.logger.Info("room created",
		slog.String("room_id", string(room.ID)),
		slog.String("passcode", string(room.Passcode)),
	)

	return room, nil
}

// GetRoom retrieves a room by id
func (c *Controller) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.storage.GetRoom(ctx, id)
}

// FindRoomByPasscode locates a joinable room by passcode. The raw code is
// normalized to uppercase before matching; started rooms never match.
func (c *Controller) FindRoomByPasscode(ctx context.Context, code model.Passcode) (*model.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.storage.FindRoomByPasscode(ctx, code.Normalize())
}

// FindRoomByConnection locates the room a connection belongs to, as
// facilitator or player
func (c *Controller) FindRoomByConnection(ctx context.Context, conn model.ConnectionID) (*model.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.storage.FindRoomByConnection(ctx, conn)
}

// AddPlayer appends a new player to the room. Name validation and
// started-room gating are the event layer's precondition checks; this only
// fails when the room does not exist or storage does.
func (c *Controller) AddPlayer(ctx context.Context, roomID model.RoomID, name string, conn model.ConnectionID) (*model.Player, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	player := &model.Player{
		ID:         model.PlayerID(uuid.NewString()),
		Name:       name,
		Connection: conn,
	}
	room.Players = append(room.Players, player)

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	c.logger.Info("player joined",
		slog.String("room_id", string(room.ID)),
		slog.String("player_id", string(player.ID)),
		slog.String("name", player.Name),
	)

	return player, nil
}

// RemovePlayer removes whatever the connection was in its room: the
// facilitator, a player, or nothing.
//
// A nil returned room with a nil error means the room was closed: the
// facilitator left, or the last player did. The removed player is returned
// when one existed (the facilitator is not a player, so facilitator
// departure returns a nil player). model.ErrRoomNotFound means the
// connection matched nothing.
func (c *Controller) RemovePlayer(ctx context.Context, conn model.ConnectionID) (*model.Room, *model.Player, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.storage.FindRoomByConnection(ctx, conn)
	if err != nil {
		return nil, nil, err
	}

	if room.Facilitator == conn {
		if err := c.storage.DeleteRoom(ctx, room.ID); err != nil {
			return nil, nil, err
		}
		c.logger.Info("room closed, facilitator left",
			slog.String("room_id", string(room.ID)),
		)
		return nil, nil, nil
	}

	var removed *model.Player
	for i, p := range room.Players {
		if p.Connection == conn {
			removed = p
			room.Players = append(room.Players[:i], room.Players[i+1:]...)
			break
		}
	}
	if removed == nil {
		// FindRoomByConnection matched, so this cannot happen unless the
		// one-room-per-connection invariant broke
		c.logger.Warn("connection matched room but no member",
			slog.String("room_id", string(room.ID)),
			slog.String("connection", string(conn)),
		)
		return nil, nil, model.ErrRoomNotFound
	}

	if len(room.Players) == 0 {
		if err := c.storage.DeleteRoom(ctx, room.ID); err != nil {
			return nil, removed, err
		}
		c.logger.Info("room closed, last player left",
			slog.String("room_id", string(room.ID)),
		)
		return nil, removed, nil
	}

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, removed, err
	}

	c.logger.Info("player left",
		slog.String("room_id", string(room.ID)),
		slog.String("player_id", string(removed.ID)),
	)

	return room, removed, nil
}

// StartGame runs role assignment and moves the room to (started, day).
// Rejected when the room is missing, the actor is not the facilitator, or
// the game already started; fails with model.ErrInsufficientPlayers below
// the minimum headcount. Roles are assigned exactly once, here.
func (c *Controller) StartGame(ctx context.Context, acting model.ConnectionID, roomID model.RoomID) (*model.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Facilitator != acting {
		return nil, model.ErrNotFacilitator
	}
	if room.Started {
		return nil, model.ErrGameAlreadyStarted
	}

	if err := c.engine.Assign(room.Players); err != nil {
		return nil, err
	}

	room.Started = true
	room.Phase = model.PhaseDay

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	c.logger.Info("game started",
		slog.String("room_id", string(room.ID)),
		slog.Int("players", len(room.Players)),
	)

	return room, nil
}

// ChangePhase sets the day/night phase of a started room. Setting the
// current phase again is a no-op that still succeeds.
func (c *Controller) ChangePhase(ctx context.Context, acting model.ConnectionID, roomID model.RoomID, phase model.Phase) (*model.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.startedRoomForFacilitator(ctx, acting, roomID)
	if err != nil {
		return nil, err
	}

	room.Phase = phase
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	c.logger.Info("phase changed",
		slog.String("room_id", string(room.ID)),
		slog.String("phase", string(phase)),
	)

	return room, nil
}

// KillPlayer marks the named player dead
func (c *Controller) KillPlayer(ctx context.Context, acting model.ConnectionID, roomID model.RoomID, playerID model.PlayerID) (*model.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setDead(ctx, acting, roomID, playerID, true)
}

// RevivePlayer clears the named player's dead flag
func (c *Controller) RevivePlayer(ctx context.Context, acting model.ConnectionID, roomID model.RoomID, playerID model.PlayerID) (*model.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setDead(ctx, acting, roomID, playerID, false)
}

// setDead runs with mu held by the exported wrappers
func (c *Controller) setDead(ctx context.Context, acting model.ConnectionID, roomID model.RoomID, playerID model.PlayerID, dead bool) (*model.Room, error) {
	room, err := c.startedRoomForFacilitator(ctx, acting, roomID)
	if err != nil {
		return nil, err
	}

	player := room.GetPlayer(playerID)
	if player == nil {
		return nil, model.ErrPlayerNotFound
	}

	player.IsDead = dead
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	c.logger.Info("player life state changed",
		slog.String("room_id", string(room.ID)),
		slog.String("player_id", string(player.ID)),
		slog.Bool("is_dead", dead),
	)

	return room, nil
}

// startedRoomForFacilitator loads a room and applies the shared gates for
// facilitator actions on a running game
func (c *Controller) startedRoomForFacilitator(ctx context.Context, acting model.ConnectionID, roomID model.RoomID) (*model.Room, error) {
	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Facilitator != acting {
		return nil, model.ErrNotFacilitator
	}
	if !room.Started {
		return nil, model.ErrGameNotStarted
	}
	return room, nil
}

// IsFacilitator reports whether the connection is the room's facilitator.
// False when the room does not exist.
func (c *Controller) IsFacilitator(ctx context.Context, conn model.ConnectionID, roomID model.RoomID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return false
	}
	return room.Facilitator == conn
}

// GetWerewolves returns the players holding the werewolf role. An unknown
// room or a game that has not started yields an empty slice, not an error.
func (c *Controller) GetWerewolves(ctx context.Context, roomID model.RoomID) ([]*model.Player, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.storage.GetRoom(ctx, roomID)
	if errors.Is(err, model.ErrRoomNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !room.Started {
		return nil, nil
	}
	return room.Werewolves(), nil
}

// ListRooms returns every room in the registry, for stats and debugging
func (c *Controller) ListRooms(ctx context.Context) ([]*model.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.storage.ListRooms(ctx)
}

// SweepExpired deletes every room older than maxAge and returns how many
// were removed. It is driven by a recurring timer owned by the host process.
func (c *Controller) SweepExpired(ctx context.Context, maxAge time.Duration) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rooms, err := c.storage.ListRooms(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, room := range rooms {
		if c.clock.Since(room.CreatedAt) > maxAge {
			if err := c.storage.DeleteRoom(ctx, room.ID); err != nil {
				return removed, err
			}
			removed++
		}
	}

	if removed > 0 {
		c.logger.Info("expired rooms swept", slog.Int("removed", removed))
	}

	return removed, nil
}

// CleanupOldRooms sweeps with the fixed maximum room age
func (c *Controller) CleanupOldRooms(ctx context.Context) (int, error) {
	return c.SweepExpired(ctx, MaxRoomAge)
}

// Interface for dependency injection
type ControllerInterface interface {
	CreateRoom(ctx context.Context, facilitator model.ConnectionID) (*model.Room, error)
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	FindRoomByPasscode(ctx context.Context, code model.Passcode) (*model.Room, error)
	FindRoomByConnection(ctx context.Context, conn model.ConnectionID) (*model.Room, error)
	AddPlayer(ctx context.Context, roomID model.RoomID, name string, conn model.ConnectionID) (*model.Player, error)
	RemovePlayer(ctx context.Context, conn model.ConnectionID) (*model.Room, *model.Player, error)
	StartGame(ctx context.Context, acting model.ConnectionID, roomID model.RoomID) (*model.Room, error)
	ChangePhase(ctx context.Context, acting model.ConnectionID, roomID model.RoomID, phase model.Phase) (*model.Room, error)
	KillPlayer(ctx context.Context, acting model.ConnectionID, roomID model.RoomID, playerID model.PlayerID) (*model.Room, error)
	RevivePlayer(ctx context.Context, acting model.ConnectionID, roomID model.RoomID, playerID model.PlayerID) (*model.Room, error)
	IsFacilitator(ctx context.Context, conn model.ConnectionID, roomID model.RoomID) bool
	GetWerewolves(ctx context.Context, roomID model.RoomID) ([]*model.Player, error)
	ListRooms(ctx context.Context) ([]*model.Room, error)
	SweepExpired(ctx context.Context, maxAge time.Duration) (int, error)
	CleanupOldRooms(ctx context.Context) (int, error)
}

var _ ControllerInterface = (*Controller)(nil)
