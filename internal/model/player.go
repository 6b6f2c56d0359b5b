package model

// PlayerID uniquely identifies a player within a room
type PlayerID string

// ConnectionID is an opaque reference to a client's transport connection.
// It addresses the client; it is not an identity beyond the connection's
// lifetime.
type ConnectionID string

// Role is a player's secret role once the game has started
type Role string

const (
	RoleVillager Role = "villager"
	RoleWerewolf Role = "werewolf"
	RoleDoctor   Role = "doctor"
)

// Player represents a participant in a room.
// Name is set at join time and immutable; Role stays empty until the
// facilitator starts the game.
type Player struct {
	ID         PlayerID     `json:"id"`
	Name       string       `json:"name"`
	Connection ConnectionID `json:"connection"`
	Role       Role         `json:"role,omitempty"`
	IsDead     bool         `json:"is_dead"`
}
