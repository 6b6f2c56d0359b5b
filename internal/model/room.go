package model

import (
	"strings"
	"time"
)

// RoomID uniquely identifies a room
type RoomID string

// Passcode is the short human-shareable code used to locate a joinable room.
// Stored uppercase; comparisons are done on the normalized form.
type Passcode string

// Normalize returns the uppercase form of a raw passcode entry
func (p Passcode) Normalize() Passcode {
	return Passcode(strings.ToUpper(strings.TrimSpace(string(p))))
}

// Phase is the day/night sub-state of a started game
type Phase string

const (
	PhaseDay   Phase = "day"
	PhaseNight Phase = "night"
)

// Valid reports whether the phase is one of the known values
func (p Phase) Valid() bool {
	return p == PhaseDay || p == PhaseNight
}

// Room is a game session: a facilitator, the players they host, and the
// (started, phase) state machine driven by facilitator actions.
// The facilitator is addressed by Facilitator and is not an entry in Players.
type Room struct {
	ID          RoomID       `json:"id"`
	Passcode    Passcode     `json:"passcode"`
	Facilitator ConnectionID `json:"facilitator"`
	Players     []*Player    `json:"players"` // insertion order = join order
	Started     bool         `json:"started"`
	Phase       Phase        `json:"phase"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Joinable reports whether the room can still be found by passcode
func (r *Room) Joinable() bool {
	return !r.Started
}

// Clone returns a deep copy of the room. Storage backends hand out clones so
// no two callers ever share a mutable Room.
func (r *Room) Clone() *Room {
	clone := *r
	clone.Players = make([]*Player, len(r.Players))
	for i, p := range r.Players {
		player := *p
		clone.Players[i] = &player
	}
	return &clone
}

// GetPlayer returns the player with the given ID, or nil if not present
func (r *Room) GetPlayer(id PlayerID) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// GetPlayerByConnection returns the player owning the given connection,
// or nil if no player matches. The facilitator never matches here.
func (r *Room) GetPlayerByConnection(conn ConnectionID) *Player {
	for _, p := range r.Players {
		if p.Connection == conn {
			return p
		}
	}
	return nil
}

// HasConnection reports whether the connection belongs to this room,
// either as the facilitator or as a player
func (r *Room) HasConnection(conn ConnectionID) bool {
	if r.Facilitator == conn {
		return true
	}
	return r.GetPlayerByConnection(conn) != nil
}

// HasName reports whether a player with the given display name is already
// in the room, compared case-insensitively
func (r *Room) HasName(name string) bool {
	for _, p := range r.Players {
		if strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

// Werewolves returns the players holding the werewolf role, in join order
func (r *Room) Werewolves() []*Player {
	var wolves []*Player
	for _, p := range r.Players {
		if p.Role == RoleWerewolf {
			wolves = append(wolves, p)
		}
	}
	return wolves
}

// Connections returns every connection addressed by this room: the
// facilitator first, then players in join order
func (r *Room) Connections() []ConnectionID {
	conns := make([]ConnectionID, 0, len(r.Players)+1)
	conns = append(conns, r.Facilitator)
	for _, p := range r.Players {
		conns = append(conns, p.Connection)
	}
	return conns
}
