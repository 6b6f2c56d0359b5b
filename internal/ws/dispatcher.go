package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/moonhowl/werewolf-go/internal/model"
	"github.com/moonhowl/werewolf-go/internal/services/room"
)

const maxNameLength = 20

// Dispatcher routes decoded client events to room operations and fans the
// resulting notifications back out through the sender
type Dispatcher struct {
	rooms  room.ControllerInterface
	sender Sender
	logger *slog.Logger
}

func NewDispatcher(rooms room.ControllerInterface, sender Sender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		rooms:  rooms,
		sender: sender,
		logger: logger,
	}
}

// HandleMessage decodes one inbound frame and runs the matching handler.
// Failures are reported back to the sending connection as error events.
func (d *Dispatcher) HandleMessage(ctx context.Context, conn model.ConnectionID, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		d.sendError(conn, "invalid message")
		return
	}

	var err error
	switch env.Event {
	case EventCreateRoom:
		err = d.handleCreateRoom(ctx, conn)
	case EventJoinRoom:
		err = d.handleJoinRoom(ctx, conn, env.Data)
	case EventLeaveRoom:
		err = d.handleLeave(ctx, conn)
	case EventStartGame:
		err = d.handleStartGame(ctx, conn)
	case EventChangePhase:
		err = d.handleChangePhase(ctx, conn, env.Data)
	case EventKillPlayer:
		err = d.handleSetDead(ctx, conn, env.Data, true)
	case EventRevivePlayer:
		err = d.handleSetDead(ctx, conn, env.Data, false)
	case EventWerewolfChat:
		err = d.handleWerewolfChat(ctx, conn, env.Data)
	case EventGetRoomInfo:
		err = d.handleGetRoomInfo(ctx, conn)
	default:
		err = fmt.Errorf("unknown event %q", env.Event)
	}

	if err != nil {
		d.logger.Info("event rejected",
			slog.String("event", env.Event),
			slog.String("connection_id", string(conn)),
			slog.String("error", err.Error()),
		)
		d.sendError(conn, userMessage(err))
	}
}

// HandleDisconnect removes the connection from whatever room it was in and
// notifies the remaining members. A connection that was in no room is a no-op.
func (d *Dispatcher) HandleDisconnect(ctx context.Context, conn model.ConnectionID) {
	if err := d.handleLeave(ctx, conn); err != nil && !errors.Is(err, model.ErrRoomNotFound) {
		d.logger.Error("failed to clean up disconnected client",
			slog.String("connection_id", string(conn)),
			slog.String("error", err.Error()),
		)
	}
}

func (d *Dispatcher) handleCreateRoom(ctx context.Context, conn model.ConnectionID) error {
	if err := d.requireNotInRoom(ctx, conn); err != nil {
		return err
	}

	created, err := d.rooms.CreateRoom(ctx, conn)
	if err != nil {
		return err
	}

	d.sender.Send(conn, EventRoomCreated, NewRoomView(created, conn))
	return nil
}

func (d *Dispatcher) handleJoinRoom(ctx context.Context, conn model.ConnectionID, data json.RawMessage) error {
	var payload JoinRoomData
	if err := json.Unmarshal(data, &payload); err != nil {
		return errInvalidPayload
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" || len(name) > maxNameLength {
		return errInvalidName
	}
	if payload.Passcode == "" {
		return errInvalidPasscode
	}

	if err := d.requireNotInRoom(ctx, conn); err != nil {
		return err
	}

	target, err := d.rooms.FindRoomByPasscode(ctx, model.Passcode(payload.Passcode))
	if err != nil {
		return err
	}
	if target.HasName(name) {
		return errNameTaken
	}

	player, err := d.rooms.AddPlayer(ctx, target.ID, name, conn)
	if err != nil {
		return err
	}

	// Re-read so the joiner's snapshot includes themselves
	joined, err := d.rooms.GetRoom(ctx, target.ID)
	if err != nil {
		return err
	}

	d.sender.Send(conn, EventRoomInfo, NewRoomView(joined, conn))
	d.broadcastExcept(joined, conn, EventPlayerJoined, PlayerEventData{
		Player:      playerView(player),
		PlayerCount: len(joined.Players),
	})
	return nil
}

func (d *Dispatcher) handleLeave(ctx context.Context, conn model.ConnectionID) error {
	// Snapshot before removal so a closed room can still be announced
	// to the members it had.
	before, err := d.rooms.FindRoomByConnection(ctx, conn)
	if err != nil {
		return err
	}

	after, left, err := d.rooms.RemovePlayer(ctx, conn)
	if err != nil {
		return err
	}

	if after == nil {
		for _, member := range before.Connections() {
			if member == conn {
				continue
			}
			d.sender.Send(member, EventRoomClosed, nil)
		}
		return nil
	}

	d.broadcastExcept(after, conn, EventPlayerLeft, PlayerEventData{
		Player:      playerView(left),
		PlayerCount: len(after.Players),
	})
	return nil
}

func (d *Dispatcher) handleStartGame(ctx context.Context, conn model.ConnectionID) error {
	current, err := d.rooms.FindRoomByConnection(ctx, conn)
	if err != nil {
		return err
	}

	started, err := d.rooms.StartGame(ctx, conn, current.ID)
	if err != nil {
		return err
	}

	d.sender.SendMany(started.Connections(), EventGameStarted, PhaseChangedData{
		Phase: string(started.Phase),
	})
	for _, p := range started.Players {
		d.sender.Send(p.Connection, EventRoleAssigned, RoleAssignedData{
			PlayerID: string(p.ID),
			Role:     string(p.Role),
		})
	}
	return nil
}

func (d *Dispatcher) handleChangePhase(ctx context.Context, conn model.ConnectionID, data json.RawMessage) error {
	var payload ChangePhaseData
	if err := json.Unmarshal(data, &payload); err != nil {
		return errInvalidPayload
	}
	phase := model.Phase(payload.Phase)
	if !phase.Valid() {
		return errInvalidPhase
	}

	current, err := d.rooms.FindRoomByConnection(ctx, conn)
	if err != nil {
		return err
	}

	changed, err := d.rooms.ChangePhase(ctx, conn, current.ID, phase)
	if err != nil {
		return err
	}

	d.sender.SendMany(changed.Connections(), EventPhaseChanged, PhaseChangedData{
		Phase: string(changed.Phase),
	})
	return nil
}

func (d *Dispatcher) handleSetDead(ctx context.Context, conn model.ConnectionID, data json.RawMessage, dead bool) error {
	var payload TargetPlayerData
	if err := json.Unmarshal(data, &payload); err != nil {
		return errInvalidPayload
	}

	current, err := d.rooms.FindRoomByConnection(ctx, conn)
	if err != nil {
		return err
	}

	event := EventPlayerRevived
	var updated *model.Room
	if dead {
		event = EventPlayerKilled
		updated, err = d.rooms.KillPlayer(ctx, conn, current.ID, model.PlayerID(payload.PlayerID))
	} else {
		updated, err = d.rooms.RevivePlayer(ctx, conn, current.ID, model.PlayerID(payload.PlayerID))
	}
	if err != nil {
		return err
	}

	d.sender.SendMany(updated.Connections(), event, TargetPlayerData{
		PlayerID: payload.PlayerID,
	})
	return nil
}

func (d *Dispatcher) handleWerewolfChat(ctx context.Context, conn model.ConnectionID, data json.RawMessage) error {
	var payload WerewolfChatData
	if err := json.Unmarshal(data, &payload); err != nil {
		return errInvalidPayload
	}
	message := strings.TrimSpace(payload.Message)
	if message == "" {
		return errInvalidPayload
	}

	current, err := d.rooms.FindRoomByConnection(ctx, conn)
	if err != nil {
		return err
	}
	if !current.Started {
		return model.ErrGameNotStarted
	}
	if current.Phase != model.PhaseNight {
		return errChatWrongPhase
	}

	from := "facilitator"
	if current.Facilitator != conn {
		sender := current.GetPlayerByConnection(conn)
		if sender == nil || sender.Role != model.RoleWerewolf || sender.IsDead {
			return errNotWerewolf
		}
		from = sender.Name
	}

	recipients := []model.ConnectionID{current.Facilitator}
	for _, wolf := range current.Werewolves() {
		recipients = append(recipients, wolf.Connection)
	}
	d.sender.SendMany(recipients, EventWerewolfMessage, WerewolfMessageData{
		From:    from,
		Message: message,
	})
	return nil
}

func (d *Dispatcher) handleGetRoomInfo(ctx context.Context, conn model.ConnectionID) error {
	current, err := d.rooms.FindRoomByConnection(ctx, conn)
	if err != nil {
		return err
	}
	d.sender.Send(conn, EventRoomInfo, NewRoomView(current, conn))
	return nil
}

// requireNotInRoom enforces one room per connection. A storage failure is
// surfaced rather than treated as room-less, so backend outages cannot
// bypass the pre-check.
func (d *Dispatcher) requireNotInRoom(ctx context.Context, conn model.ConnectionID) error {
	_, err := d.rooms.FindRoomByConnection(ctx, conn)
	switch {
	case err == nil:
		return errAlreadyInRoom
	case errors.Is(err, model.ErrRoomNotFound):
		return nil
	default:
		return err
	}
}

func (d *Dispatcher) broadcastExcept(r *model.Room, except model.ConnectionID, event string, data any) {
	conns := make([]model.ConnectionID, 0, len(r.Players)+1)
	for _, member := range r.Connections() {
		if member != except {
			conns = append(conns, member)
		}
	}
	d.sender.SendMany(conns, event, data)
}

func (d *Dispatcher) sendError(conn model.ConnectionID, message string) {
	d.sender.Send(conn, EventError, ErrorData{Message: message})
}

func playerView(p *model.Player) PlayerView {
	return PlayerView{
		ID:     string(p.ID),
		Name:   p.Name,
		IsDead: p.IsDead,
	}
}
