package ws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/moonhowl/werewolf-go/internal/dependencies/mocks"
	"github.com/moonhowl/werewolf-go/internal/model"
	"github.com/moonhowl/werewolf-go/internal/services/roles"
	"github.com/moonhowl/werewolf-go/internal/services/room"
	"github.com/moonhowl/werewolf-go/internal/storage/memory"
	"github.com/moonhowl/werewolf-go/internal/testutil"
)

type sentFrame struct {
	conn  model.ConnectionID
	event string
	data  any
}

// recordingSender captures outbound frames instead of writing to sockets
type recordingSender struct {
	frames []sentFrame
}

func (s *recordingSender) Send(conn model.ConnectionID, event string, data any) {
	s.frames = append(s.frames, sentFrame{conn: conn, event: event, data: data})
}

func (s *recordingSender) SendMany(conns []model.ConnectionID, event string, data any) {
	for _, conn := range conns {
		s.Send(conn, event, data)
	}
}

func (s *recordingSender) framesFor(conn model.ConnectionID, event string) []sentFrame {
	var out []sentFrame
	for _, f := range s.frames {
		if f.conn == conn && f.event == event {
			out = append(out, f)
		}
	}
	return out
}

func (s *recordingSender) reset() {
	s.frames = nil
}

type DispatcherTestSuite struct {
	suite.Suite

	clock      *mocks.MockClock
	random     *mocks.MockRandom
	rooms      *room.Controller
	sender     *recordingSender
	dispatcher *Dispatcher
	ctx        context.Context
}

func (s *DispatcherTestSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.random.QueueString("AAAAAA", "BBBBBB", "CCCCCC")

	logger := testutil.NopLogger()
	engine := roles.New(roles.DefaultConfig(), s.random, logger)
	s.rooms = room.NewController(memory.New(), engine, s.clock, s.random, logger)
	s.sender = &recordingSender{}
	s.dispatcher = NewDispatcher(s.rooms, s.sender, logger)
	s.ctx = context.Background()
}

func (s *DispatcherTestSuite) send(conn model.ConnectionID, event string, data any) {
	env := Envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		s.Require().NoError(err)
		env.Data = raw
	}
	raw, err := json.Marshal(env)
	s.Require().NoError(err)
	s.dispatcher.HandleMessage(s.ctx, conn, raw)
}

func (s *DispatcherTestSuite) requireError(conn model.ConnectionID) string {
	frames := s.sender.framesFor(conn, EventError)
	s.Require().NotEmpty(frames, "expected an error frame for %s", conn)
	data, ok := frames[len(frames)-1].data.(ErrorData)
	s.Require().True(ok)
	return data.Message
}

// createAndFill creates a room and joins four players, returning the
// facilitator connection and the player connections in join order
func (s *DispatcherTestSuite) createAndFill() (model.ConnectionID, []model.ConnectionID) {
	fac := model.ConnectionID("conn-fac")
	s.send(fac, EventCreateRoom, nil)

	names := []string{"alice", "bob", "carol", "dave"}
	conns := make([]model.ConnectionID, len(names))
	for i, name := range names {
		conns[i] = model.ConnectionID("conn-" + name)
		s.send(conns[i], EventJoinRoom, JoinRoomData{Passcode: "AAAAAA", Name: name})
	}
	s.Require().Empty(s.sender.framesFor(fac, EventError))
	return fac, conns
}

// startGame pins the shuffle to the identity permutation, so with the
// default role set alice is the werewolf and bob is the doctor
func (s *DispatcherTestSuite) startGame(fac model.ConnectionID) {
	s.random.QueueIntn(3, 2, 1)
	s.send(fac, EventStartGame, nil)
	s.Require().Empty(s.sender.framesFor(fac, EventError))
}

func (s *DispatcherTestSuite) TestCreateRoom() {
	fac := model.ConnectionID("conn-fac")
	s.send(fac, EventCreateRoom, nil)

	frames := s.sender.framesFor(fac, EventRoomCreated)
	s.Require().Len(frames, 1)
	view, ok := frames[0].data.(RoomView)
	s.Require().True(ok)
	s.Equal("AAAAAA", view.Passcode)
	s.True(view.IsFacilitator)
	s.False(view.Started)
	s.Empty(view.Players)
}

func (s *DispatcherTestSuite) TestCreateRoomWhileInRoomFails() {
	fac := model.ConnectionID("conn-fac")
	s.send(fac, EventCreateRoom, nil)
	s.send(fac, EventCreateRoom, nil)

	s.Equal("already in a room", s.requireError(fac))
	s.Len(s.sender.framesFor(fac, EventRoomCreated), 1)
}

func (s *DispatcherTestSuite) TestJoinRoomNotifiesMembers() {
	fac := model.ConnectionID("conn-fac")
	s.send(fac, EventCreateRoom, nil)

	alice := model.ConnectionID("conn-alice")
	s.send(alice, EventJoinRoom, JoinRoomData{Passcode: "AAAAAA", Name: "alice"})

	infos := s.sender.framesFor(alice, EventRoomInfo)
	s.Require().Len(infos, 1)
	view := infos[0].data.(RoomView)
	s.False(view.IsFacilitator)
	s.Require().Len(view.Players, 1)
	s.Equal("alice", view.Players[0].Name)

	joined := s.sender.framesFor(fac, EventPlayerJoined)
	s.Require().Len(joined, 1)
	data := joined[0].data.(PlayerEventData)
	s.Equal("alice", data.Player.Name)
	s.Equal(1, data.PlayerCount)

	// The joiner does not get their own join broadcast
	s.Empty(s.sender.framesFor(alice, EventPlayerJoined))
}

func (s *DispatcherTestSuite) TestJoinRoomPasscodeIsNormalized() {
	fac := model.ConnectionID("conn-fac")
	s.send(fac, EventCreateRoom, nil)

	alice := model.ConnectionID("conn-alice")
	s.send(alice, EventJoinRoom, JoinRoomData{Passcode: "  aaaaaa ", Name: "alice"})

	s.Len(s.sender.framesFor(alice, EventRoomInfo), 1)
	s.Empty(s.sender.framesFor(alice, EventError))
}

func (s *DispatcherTestSuite) TestJoinRoomValidation() {
	fac := model.ConnectionID("conn-fac")
	s.send(fac, EventCreateRoom, nil)

	conn := model.ConnectionID("conn-x")

	s.send(conn, EventJoinRoom, JoinRoomData{Passcode: "AAAAAA", Name: "   "})
	s.Equal("name must be between 1 and 20 characters", s.requireError(conn))

	s.sender.reset()
	s.send(conn, EventJoinRoom, JoinRoomData{Passcode: "AAAAAA", Name: "this name is far too long to allow"})
	s.Equal("name must be between 1 and 20 characters", s.requireError(conn))

	s.sender.reset()
	s.send(conn, EventJoinRoom, JoinRoomData{Name: "eve"})
	s.Equal("passcode is required", s.requireError(conn))

	s.sender.reset()
	s.send(conn, EventJoinRoom, JoinRoomData{Passcode: "ZZZZZZ", Name: "eve"})
	s.Equal("room not found or no longer joinable", s.requireError(conn))
}

func (s *DispatcherTestSuite) TestJoinRoomRejectsDuplicateName() {
	fac := model.ConnectionID("conn-fac")
	s.send(fac, EventCreateRoom, nil)

	s.send(model.ConnectionID("conn-1"), EventJoinRoom, JoinRoomData{Passcode: "AAAAAA", Name: "alice"})
	s.send(model.ConnectionID("conn-2"), EventJoinRoom, JoinRoomData{Passcode: "AAAAAA", Name: "ALICE"})

	s.Equal("that name is already taken in this room", s.requireError("conn-2"))
}

func (s *DispatcherTestSuite) TestStartGameBroadcastsAndAssignsRoles() {
	fac, conns := s.createAndFill()
	s.sender.reset()
	s.startGame(fac)

	// Everyone including the facilitator learns the game started
	for _, conn := range append([]model.ConnectionID{fac}, conns...) {
		frames := s.sender.framesFor(conn, EventGameStarted)
		s.Require().Len(frames, 1, "missing game_started for %s", conn)
		s.Equal(string(model.PhaseDay), frames[0].data.(PhaseChangedData).Phase)
	}

	// Each player gets exactly their own role, the facilitator gets none
	s.Empty(s.sender.framesFor(fac, EventRoleAssigned))
	gotRoles := make(map[model.ConnectionID]string)
	for _, conn := range conns {
		frames := s.sender.framesFor(conn, EventRoleAssigned)
		s.Require().Len(frames, 1)
		gotRoles[conn] = frames[0].data.(RoleAssignedData).Role
	}
	s.Equal(string(model.RoleWerewolf), gotRoles["conn-alice"])
	s.Equal(string(model.RoleDoctor), gotRoles["conn-bob"])
	s.Equal(string(model.RoleVillager), gotRoles["conn-carol"])
	s.Equal(string(model.RoleVillager), gotRoles["conn-dave"])
}

func (s *DispatcherTestSuite) TestStartGameRequiresFacilitator() {
	_, conns := s.createAndFill()
	s.sender.reset()

	s.send(conns[0], EventStartGame, nil)
	s.Equal("only the facilitator can do that", s.requireError(conns[0]))
	s.Empty(s.sender.framesFor(conns[1], EventGameStarted))
}

func (s *DispatcherTestSuite) TestStartGameRequiresEnoughPlayers() {
	fac := model.ConnectionID("conn-fac")
	s.send(fac, EventCreateRoom, nil)
	s.send(model.ConnectionID("conn-1"), EventJoinRoom, JoinRoomData{Passcode: "AAAAAA", Name: "alice"})

	s.send(fac, EventStartGame, nil)
	s.Equal("not enough players to start the game", s.requireError(fac))
}

func (s *DispatcherTestSuite) TestChangePhase() {
	fac, conns := s.createAndFill()
	s.startGame(fac)
	s.sender.reset()

	s.send(fac, EventChangePhase, ChangePhaseData{Phase: "night"})

	for _, conn := range append([]model.ConnectionID{fac}, conns...) {
		frames := s.sender.framesFor(conn, EventPhaseChanged)
		s.Require().Len(frames, 1)
		s.Equal("night", frames[0].data.(PhaseChangedData).Phase)
	}
}

func (s *DispatcherTestSuite) TestChangePhaseRejectsUnknownPhase() {
	fac, _ := s.createAndFill()
	s.startGame(fac)
	s.sender.reset()

	s.send(fac, EventChangePhase, ChangePhaseData{Phase: "dusk"})
	s.Equal("phase must be day or night", s.requireError(fac))
}

func (s *DispatcherTestSuite) TestKillAndRevivePlayer() {
	fac, conns := s.createAndFill()
	s.startGame(fac)
	s.sender.reset()

	current, err := s.rooms.FindRoomByConnection(s.ctx, conns[2])
	s.Require().NoError(err)
	target := current.GetPlayerByConnection(conns[2])
	s.Require().NotNil(target)

	s.send(fac, EventKillPlayer, TargetPlayerData{PlayerID: string(target.ID)})
	frames := s.sender.framesFor(conns[0], EventPlayerKilled)
	s.Require().Len(frames, 1)
	s.Equal(string(target.ID), frames[0].data.(TargetPlayerData).PlayerID)

	s.send(fac, EventRevivePlayer, TargetPlayerData{PlayerID: string(target.ID)})
	s.Len(s.sender.framesFor(conns[0], EventPlayerRevived), 1)
}

func (s *DispatcherTestSuite) TestKillPlayerRequiresFacilitator() {
	fac, conns := s.createAndFill()
	s.startGame(fac)
	s.sender.reset()

	s.send(conns[0], EventKillPlayer, TargetPlayerData{PlayerID: "anything"})
	s.Equal("only the facilitator can do that", s.requireError(conns[0]))
}

func (s *DispatcherTestSuite) TestWerewolfChatReachesPackAndFacilitatorOnly() {
	fac, conns := s.createAndFill()
	s.startGame(fac)
	s.send(fac, EventChangePhase, ChangePhaseData{Phase: "night"})
	s.sender.reset()

	// alice is the werewolf under the pinned shuffle
	s.send(conns[0], EventWerewolfChat, WerewolfChatData{Message: "who do we take?"})

	for _, conn := range []model.ConnectionID{fac, conns[0]} {
		frames := s.sender.framesFor(conn, EventWerewolfMessage)
		s.Require().Len(frames, 1)
		data := frames[0].data.(WerewolfMessageData)
		s.Equal("alice", data.From)
		s.Equal("who do we take?", data.Message)
	}
	s.Empty(s.sender.framesFor(conns[1], EventWerewolfMessage))
	s.Empty(s.sender.framesFor(conns[2], EventWerewolfMessage))
}

func (s *DispatcherTestSuite) TestWerewolfChatFromFacilitator() {
	fac, conns := s.createAndFill()
	s.startGame(fac)
	s.send(fac, EventChangePhase, ChangePhaseData{Phase: "night"})
	s.sender.reset()

	s.send(fac, EventWerewolfChat, WerewolfChatData{Message: "30 seconds left"})

	frames := s.sender.framesFor(conns[0], EventWerewolfMessage)
	s.Require().Len(frames, 1)
	s.Equal("facilitator", frames[0].data.(WerewolfMessageData).From)
}

func (s *DispatcherTestSuite) TestWerewolfChatRejectsVillagersAndDaytime() {
	fac, conns := s.createAndFill()
	s.startGame(fac)
	s.sender.reset()

	// Day phase, even for the werewolf
	s.send(conns[0], EventWerewolfChat, WerewolfChatData{Message: "hello"})
	s.Equal("werewolf chat is only available at night", s.requireError(conns[0]))

	s.send(fac, EventChangePhase, ChangePhaseData{Phase: "night"})
	s.sender.reset()

	// carol is a villager
	s.send(conns[2], EventWerewolfChat, WerewolfChatData{Message: "hello"})
	s.Equal("only living werewolves can use werewolf chat", s.requireError(conns[2]))
}

func (s *DispatcherTestSuite) TestWerewolfChatRequiresStartedGame() {
	fac := model.ConnectionID("conn-fac")
	s.send(fac, EventCreateRoom, nil)
	s.send(model.ConnectionID("conn-1"), EventJoinRoom, JoinRoomData{Passcode: "AAAAAA", Name: "alice"})
	s.sender.reset()

	s.send(fac, EventWerewolfChat, WerewolfChatData{Message: "hello"})
	s.Equal("the game has not started yet", s.requireError(fac))
}

func (s *DispatcherTestSuite) TestLeaveRoomNotifiesRemaining() {
	fac, conns := s.createAndFill()
	s.sender.reset()

	s.send(conns[3], EventLeaveRoom, nil)

	frames := s.sender.framesFor(fac, EventPlayerLeft)
	s.Require().Len(frames, 1)
	data := frames[0].data.(PlayerEventData)
	s.Equal("dave", data.Player.Name)
	s.Equal(3, data.PlayerCount)
	s.Empty(s.sender.framesFor(conns[3], EventPlayerLeft))
}

func (s *DispatcherTestSuite) TestFacilitatorLeavingClosesRoom() {
	fac, conns := s.createAndFill()
	s.sender.reset()

	s.dispatcher.HandleDisconnect(s.ctx, fac)

	for _, conn := range conns {
		s.Len(s.sender.framesFor(conn, EventRoomClosed), 1)
	}
	s.Empty(s.sender.framesFor(fac, EventRoomClosed))

	// The room is gone, so former members are no longer in it
	_, err := s.rooms.FindRoomByConnection(s.ctx, conns[0])
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *DispatcherTestSuite) TestDisconnectOutsideRoomIsNoOp() {
	s.dispatcher.HandleDisconnect(s.ctx, model.ConnectionID("conn-stranger"))
	s.Empty(s.sender.frames)
}

func (s *DispatcherTestSuite) TestRoomInfoHidesOtherRoles() {
	fac, conns := s.createAndFill()
	s.startGame(fac)
	s.sender.reset()

	// carol sees only her own role
	s.send(conns[2], EventGetRoomInfo, nil)
	frames := s.sender.framesFor(conns[2], EventRoomInfo)
	s.Require().Len(frames, 1)
	view := frames[0].data.(RoomView)
	s.Empty(view.Passcode, "started rooms must not expose the passcode")
	for _, p := range view.Players {
		if p.Name == "carol" {
			s.Equal(string(model.RoleVillager), p.Role)
		} else {
			s.Empty(p.Role, "role of %s leaked to carol", p.Name)
		}
	}

	// The facilitator sees every role
	s.send(fac, EventGetRoomInfo, nil)
	facFrames := s.sender.framesFor(fac, EventRoomInfo)
	s.Require().Len(facFrames, 1)
	for _, p := range facFrames[0].data.(RoomView).Players {
		s.NotEmpty(p.Role, "facilitator missing role for %s", p.Name)
	}
}

// flakyRooms fails connection lookups with an injected error while passing
// everything else through
type flakyRooms struct {
	room.ControllerInterface
	findErr error
}

func (f *flakyRooms) FindRoomByConnection(ctx context.Context, conn model.ConnectionID) (*model.Room, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.ControllerInterface.FindRoomByConnection(ctx, conn)
}

func (s *DispatcherTestSuite) TestCreateRoomSurfacesRegistryFailure() {
	flaky := &flakyRooms{ControllerInterface: s.rooms, findErr: errors.New("registry unavailable")}
	d := NewDispatcher(flaky, s.sender, testutil.NopLogger())

	conn := model.ConnectionID("conn-x")
	raw, err := json.Marshal(Envelope{Event: EventCreateRoom})
	s.Require().NoError(err)
	d.HandleMessage(s.ctx, conn, raw)

	s.Equal("registry unavailable", s.requireError(conn))
	s.Empty(s.sender.framesFor(conn, EventRoomCreated))
}

func (s *DispatcherTestSuite) TestJoinRoomSurfacesRegistryFailure() {
	fac := model.ConnectionID("conn-fac")
	s.send(fac, EventCreateRoom, nil)

	flaky := &flakyRooms{ControllerInterface: s.rooms, findErr: errors.New("registry unavailable")}
	d := NewDispatcher(flaky, s.sender, testutil.NopLogger())

	conn := model.ConnectionID("conn-x")
	data, err := json.Marshal(JoinRoomData{Passcode: "AAAAAA", Name: "alice"})
	s.Require().NoError(err)
	raw, err := json.Marshal(Envelope{Event: EventJoinRoom, Data: data})
	s.Require().NoError(err)
	d.HandleMessage(s.ctx, conn, raw)

	s.Equal("registry unavailable", s.requireError(conn))

	// The join never reached the room
	current, err := s.rooms.FindRoomByPasscode(s.ctx, "AAAAAA")
	s.Require().NoError(err)
	s.Empty(current.Players)
}

func (s *DispatcherTestSuite) TestUnknownEvent() {
	conn := model.ConnectionID("conn-x")
	s.send(conn, "do_a_flip", nil)
	s.Equal(`unknown event "do_a_flip"`, s.requireError(conn))
}

func (s *DispatcherTestSuite) TestMalformedFrame() {
	conn := model.ConnectionID("conn-x")
	s.dispatcher.HandleMessage(s.ctx, conn, []byte("{not json"))
	s.Equal("invalid message", s.requireError(conn))
}

func TestDispatcherTestSuite(t *testing.T) {
	suite.Run(t, new(DispatcherTestSuite))
}
