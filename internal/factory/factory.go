package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/moonhowl/werewolf-go/internal/dependencies/clock"
	"github.com/moonhowl/werewolf-go/internal/dependencies/random"
	"github.com/moonhowl/werewolf-go/internal/services/roles"
	"github.com/moonhowl/werewolf-go/internal/services/room"
	"github.com/moonhowl/werewolf-go/internal/storage"
	"github.com/moonhowl/werewolf-go/internal/storage/memory"
	redisstorage "github.com/moonhowl/werewolf-go/internal/storage/redis"
	"github.com/moonhowl/werewolf-go/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	RolesEngine    *roles.Engine
	RoomController *room.Controller

	// Websocket layer
	Hub        *ws.Hub
	Dispatcher *ws.Dispatcher
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// RolesConfig controls role assignment (optional)
	// If zero value, defaults to roles.DefaultConfig()
	RolesConfig roles.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	rolesCfg := cfg.RolesConfig
	if rolesCfg.MinPlayers == 0 {
		rolesCfg = roles.DefaultConfig()
	}

	return newWithDependencies(store, clock.New(), random.New(), rolesCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, rolesCfg roles.Config, logger *slog.Logger) *App {
	engine := roles.New(rolesCfg, rnd, logger)
	controller := room.NewController(store, engine, clk, rnd, logger)
	hub := ws.NewHub(logger)
	dispatcher := ws.NewDispatcher(controller, hub, logger)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		RolesEngine:    engine,
		RoomController: controller,
		Hub:            hub,
		Dispatcher:     dispatcher,
	}
}
