package ws

import (
	"encoding/json"

	"github.com/moonhowl/werewolf-go/internal/model"
)

// Client-originated events
const (
	EventCreateRoom   = "create_room"
	EventJoinRoom     = "join_room"
	EventLeaveRoom    = "leave_room"
	EventStartGame    = "start_game"
	EventChangePhase  = "change_phase"
	EventKillPlayer   = "kill_player"
	EventRevivePlayer = "revive_player"
	EventWerewolfChat = "werewolf_chat"
	EventGetRoomInfo  = "get_room_info"
)

// Server-originated events
const (
	EventRoomCreated     = "room_created"
	EventRoomInfo        = "room_info"
	EventRoomClosed      = "room_closed"
	EventPlayerJoined    = "player_joined"
	EventPlayerLeft      = "player_left"
	EventGameStarted     = "game_started"
	EventRoleAssigned    = "role_assigned"
	EventPhaseChanged    = "phase_changed"
	EventPlayerKilled    = "player_killed"
	EventPlayerRevived   = "player_revived"
	EventWerewolfMessage = "werewolf_message"
	EventError           = "error"
)

// Envelope is the wire frame for every message in both directions
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinRoomData is the payload for join_room
type JoinRoomData struct {
	Passcode string `json:"passcode"`
	Name     string `json:"name"`
}

// ChangePhaseData is the payload for change_phase
type ChangePhaseData struct {
	Phase string `json:"phase"`
}

// TargetPlayerData is the payload for kill_player and revive_player
type TargetPlayerData struct {
	PlayerID string `json:"player_id"`
}

// WerewolfChatData is the payload for werewolf_chat
type WerewolfChatData struct {
	Message string `json:"message"`
}

// PlayerView is a player as seen by a client. Role is only populated for
// the player themselves and for the facilitator.
type PlayerView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role,omitempty"`
	IsDead bool   `json:"is_dead"`
}

// RoomView is a room snapshot as seen by a particular connection
type RoomView struct {
	ID            string       `json:"id"`
	Passcode      string       `json:"passcode,omitempty"`
	Players       []PlayerView `json:"players"`
	Started       bool         `json:"started"`
	Phase         string       `json:"phase"`
	IsFacilitator bool         `json:"is_facilitator"`
}

// NewRoomView renders a room for the given viewer, hiding secret roles:
// the facilitator sees every role, a player sees only their own, and the
// passcode is omitted once the room is no longer joinable.
func NewRoomView(room *model.Room, viewer model.ConnectionID) RoomView {
	isFacilitator := room.Facilitator == viewer

	players := make([]PlayerView, len(room.Players))
	for i, p := range room.Players {
		pv := PlayerView{
			ID:     string(p.ID),
			Name:   p.Name,
			IsDead: p.IsDead,
		}
		if isFacilitator || p.Connection == viewer {
			pv.Role = string(p.Role)
		}
		players[i] = pv
	}

	view := RoomView{
		ID:            string(room.ID),
		Players:       players,
		Started:       room.Started,
		Phase:         string(room.Phase),
		IsFacilitator: isFacilitator,
	}
	if room.Joinable() {
		view.Passcode = string(room.Passcode)
	}
	return view
}

// PlayerEventData announces a membership change to a room. The player view
// never carries a role here so broadcasts cannot leak secret assignments.
type PlayerEventData struct {
	Player      PlayerView `json:"player"`
	PlayerCount int        `json:"player_count"`
}

// RoleAssignedData privately tells a player their role
type RoleAssignedData struct {
	PlayerID string `json:"player_id"`
	Role     string `json:"role"`
}

// PhaseChangedData announces a phase transition
type PhaseChangedData struct {
	Phase string `json:"phase"`
}

// WerewolfMessageData carries werewolf chat to the pack and the facilitator
type WerewolfMessageData struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// ErrorData is a user-facing error message
type ErrorData struct {
	Message string `json:"message"`
}
