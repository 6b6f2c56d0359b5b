package roles

import (
	"log/slog"

	"github.com/moonhowl/werewolf-go/internal/dependencies/random"
	"github.com/moonhowl/werewolf-go/internal/model"
)

// Config holds the count-based assignment rules
type Config struct {
	// MinPlayers is the minimum eligible headcount to start a game
	MinPlayers int
	// IncludeDoctor selects the three-role variant. When false the engine
	// assigns only villagers and werewolves.
	IncludeDoctor bool
}

// DefaultConfig returns the default three-role rules
func DefaultConfig() Config {
	return Config{
		MinPlayers:    4,
		IncludeDoctor: true,
	}
}

// Engine partitions a room's eligible players into roles.
// The facilitator is never eligible and must not be in the input.
type Engine struct {
	cfg    Config
	random random.Random
	logger *slog.Logger
}

// New creates a new role assignment engine
func New(cfg Config, random random.Random, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		random: random,
		logger: logger,
	}
}

// WerewolfCount returns how many werewolves a game with the given eligible
// headcount gets: one below five players, two from five up
func (e *Engine) WerewolfCount(eligible int) int {
	if eligible >= 5 {
		return 2
	}
	return 1
}

// Assign sets a role on every eligible player. The slot order (werewolves,
// then the doctor, then villagers) is mapped over a uniform random
// permutation of the players, so each player is equally likely to land in
// any slot. Callers enforce the once-per-room invariant.
func (e *Engine) Assign(players []*model.Player) error {
	n := len(players)
	if n < e.cfg.MinPlayers {
		return model.ErrInsufficientPlayers
	}

	order := make([]*model.Player, n)
	copy(order, players)
	e.random.Shuffle(n, func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	werewolves := e.WerewolfCount(n)
	for i, p := range order {
		switch {
		case i < werewolves:
			p.Role = model.RoleWerewolf
		case e.cfg.IncludeDoctor && i == werewolves:
			p.Role = model.RoleDoctor
		default:
			p.Role = model.RoleVillager
		}
	}

	e.logger.Info("roles assigned",
		slog.Int("eligible", n),
		slog.Int("werewolves", werewolves),
		slog.Bool("doctor", e.cfg.IncludeDoctor),
	)

	return nil
}
