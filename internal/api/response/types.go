package response

import (
	"time"

	"github.com/moonhowl/werewolf-go/internal/model"
)

// Player represents a player in API responses. Roles are secret and never
// exposed on this surface.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsDead bool   `json:"is_dead"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:     string(p.ID),
		Name:   p.Name,
		IsDead: p.IsDead,
	}
}

// Room represents a room in API responses
type Room struct {
	ID        string    `json:"id"`
	Passcode  string    `json:"passcode,omitempty"`
	Players   []Player  `json:"players"`
	Started   bool      `json:"started"`
	Phase     string    `json:"phase"`
	CreatedAt time.Time `json:"created_at"`
}

// RoomFromModel converts model.Room. The passcode is only included while
// the room is still joinable.
func RoomFromModel(r *model.Room) Room {
	players := make([]Player, len(r.Players))
	for i, p := range r.Players {
		players[i] = PlayerFromModel(p)
	}

	room := Room{
		ID:        string(r.ID),
		Players:   players,
		Started:   r.Started,
		Phase:     string(r.Phase),
		CreatedAt: r.CreatedAt,
	}
	if r.Joinable() {
		room.Passcode = string(r.Passcode)
	}
	return room
}

// Health is the health check response
type Health struct {
	Status string `json:"status"`
}

// Stats is the server statistics response
type Stats struct {
	TotalRooms   int `json:"total_rooms"`
	ActiveGames  int `json:"active_games"`
	TotalPlayers int `json:"total_players"`
}
