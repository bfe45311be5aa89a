package service_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"roomsplit/internal/domain"
	"roomsplit/internal/publisher"
	publishermocks "roomsplit/internal/publisher/mocks"
	"roomsplit/internal/repository"
	"roomsplit/internal/repository/mocks"
	"roomsplit/internal/service"
)

func newRoomService(t *testing.T, rooms *mocks.RoomRepository, users *mocks.UserRepository, pub *publishermocks.Publisher) *service.RoomService {
	t.Helper()
	return service.NewRoomService(rooms, users, pub, rand.New(rand.NewSource(42)), service.RoomServiceOptions{EnableHiddenPairing: false})
}

func waitingRoomAggregate(ownerID, code string, maxMembers int) repository.RoomAggregate {
	owner := domain.User{ID: ownerID, Nickname: "owner"}
	return repository.RoomAggregate{
		Room: domain.Room{
			ID:         "room-1",
			Code:       code,
			GameName:   "werewolf",
			OwnerID:    ownerID,
			Status:     domain.StatusWaiting,
			MaxMembers: maxMembers,
			LabelRules: domain.LabelRules{},
		},
		Owner:   owner,
		Members: []repository.MemberWithUser{{Membership: domain.Membership{UserID: ownerID}, User: owner}},
	}
}

// runWithLock wires rooms.WithRoomLock to invoke fn against agg and a
// permissive RoomWriter mock, matching how the real GORM implementation
// hands the closure a writer bound to the locked transaction.
func runWithLock(rooms *mocks.RoomRepository, agg *repository.RoomAggregate) *mocks.RoomWriter {
	writer := new(mocks.RoomWriter)
	writer.On("AddMember", mock.Anything, mock.Anything, mock.Anything).Return(domain.Membership{ID: "m-new"}, nil).Maybe()
	writer.On("RemoveMember", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	writer.On("UpdateMemberTeam", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	writer.On("UpdateMemberLabels", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	writer.On("UpdateRoom", mock.Anything, mock.Anything).Return(nil).Maybe()

	call := rooms.On("WithRoomLock", mock.Anything, agg.Room.Code, mock.AnythingOfType("func(*repository.RoomAggregate, repository.RoomWriter) error")).Once()
	call.Run(func(args mock.Arguments) {
		fn := args.Get(2).(func(agg *repository.RoomAggregate, w repository.RoomWriter) error)
		call.ReturnArguments = mock.Arguments{fn(agg, writer)}
	})
	return writer
}

func TestCreateRoom_Success(t *testing.T) {
	rooms := new(mocks.RoomRepository)
	users := new(mocks.UserRepository)
	pub := new(publishermocks.Publisher)
	svc := newRoomService(t, rooms, users, pub)
	ctx := context.Background()

	rooms.On("FindOwnedWaitingRoom", ctx, "owner-1").Return(nil, nil).Once()
	users.On("FindByID", ctx, "owner-1").Return(nil, nil).Once()
	rooms.On("CreateRoom", ctx, mock.AnythingOfType("domain.Room"), mock.AnythingOfType("domain.User")).
		Return(waitingRoomAggregate("owner-1", "123456", domain.DefaultMaxMembers), nil).Once()

	snapshot, err := svc.CreateRoom(ctx, "owner-1", "werewolf", 0)
	require.NoError(t, err)
	assert.Equal(t, "123456", snapshot.RoomCode)
	assert.Equal(t, domain.StatusWaiting, snapshot.Status)

	rooms.AssertExpectations(t)
}

func TestCreateRoom_HasActiveRoom(t *testing.T) {
	rooms := new(mocks.RoomRepository)
	users := new(mocks.UserRepository)
	pub := new(publishermocks.Publisher)
	svc := newRoomService(t, rooms, users, pub)
	ctx := context.Background()

	existing := waitingRoomAggregate("owner-1", "111111", 10)
	rooms.On("FindOwnedWaitingRoom", ctx, "owner-1").Return(&existing, nil).Once()

	_, err := svc.CreateRoom(ctx, "owner-1", "werewolf", 4)
	svcErr, ok := err.(*service.Error)
	require.True(t, ok)
	assert.Equal(t, service.KindHasActiveRoom, svcErr.Kind)
}

func TestCreateRoom_RejectsOutOfRangeMaxMembers(t *testing.T) {
	rooms := new(mocks.RoomRepository)
	users := new(mocks.UserRepository)
	pub := new(publishermocks.Publisher)
	svc := newRoomService(t, rooms, users, pub)

	_, err := svc.CreateRoom(context.Background(), "owner-1", "werewolf", 1)
	require.Error(t, err)
	rooms.AssertNotCalled(t, "CreateRoom", mock.Anything, mock.Anything, mock.Anything)
}

func TestJoinRoom_Success_EmitsMemberJoined(t *testing.T) {
	rooms := new(mocks.RoomRepository)
	users := new(mocks.UserRepository)
	pub := new(publishermocks.Publisher)
	svc := newRoomService(t, rooms, users, pub)
	ctx := context.Background()

	agg := waitingRoomAggregate("owner-1", "222222", 3)
	runWithLock(rooms, &agg)
	users.On("FindByID", ctx, "joiner-1").Return(nil, nil).Once()
	pub.On("Publish", ctx, agg.Room.Channel(), publisher.EventMemberJoined, mock.Anything).Once()

	snapshot, err := svc.JoinRoom(ctx, "joiner-1", "222222")
	require.NoError(t, err)
	assert.Equal(t, 2, snapshot.MemberCount)
	pub.AssertExpectations(t)
}

func TestJoinRoom_AlreadyMember_IsIdempotentAndDoesNotPublish(t *testing.T) {
	rooms := new(mocks.RoomRepository)
	users := new(mocks.UserRepository)
	pub := new(publishermocks.Publisher)
	svc := newRoomService(t, rooms, users, pub)
	ctx := context.Background()

	agg := waitingRoomAggregate("owner-1", "333333", 3)
	runWithLock(rooms, &agg)

	snapshot, err := svc.JoinRoom(ctx, "owner-1", "333333")
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.MemberCount)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestJoinRoom_RoomFull(t *testing.T) {
	rooms := new(mocks.RoomRepository)
	users := new(mocks.UserRepository)
	pub := new(publishermocks.Publisher)
	svc := newRoomService(t, rooms, users, pub)
	ctx := context.Background()

	agg := waitingRoomAggregate("owner-1", "444444", 1)
	runWithLock(rooms, &agg)

	_, err := svc.JoinRoom(ctx, "joiner-1", "444444")
	svcErr, ok := err.(*service.Error)
	require.True(t, ok)
	assert.Equal(t, service.KindRoomFull, svcErr.Kind)
}

func TestLeaveRoom_OwnerLeaving_ClosesRoom(t *testing.T) {
	rooms := new(mocks.RoomRepository)
	users := new(mocks.UserRepository)
	pub := new(publishermocks.Publisher)
	svc := newRoomService(t, rooms, users, pub)
	ctx := context.Background()

	agg := waitingRoomAggregate("owner-1", "555555", 3)
	rooms.On("GetRoomByCode", ctx, "555555").Return(agg, nil).Once()
	pub.On("Publish", ctx, agg.Room.Channel(), publisher.EventRoomClosed, mock.Anything).Once()
	rooms.On("DeleteRoom", ctx, agg.Room.ID).Return(nil).Once()

	err := svc.LeaveRoom(ctx, "owner-1", "555555")
	require.NoError(t, err)
	rooms.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestRemoveMember_CannotRemoveOwner(t *testing.T) {
	rooms := new(mocks.RoomRepository)
	users := new(mocks.UserRepository)
	pub := new(publishermocks.Publisher)
	svc := newRoomService(t, rooms, users, pub)
	ctx := context.Background()

	agg := waitingRoomAggregate("owner-1", "666666", 3)
	runWithLock(rooms, &agg)

	err := svc.RemoveMember(ctx, "owner-1", "666666", "owner-1")
	svcErr, ok := err.(*service.Error)
	require.True(t, ok)
	assert.Equal(t, service.KindCannotRemoveOwner, svcErr.Kind)
}

func TestSetMemberLabels_InvalidLabel(t *testing.T) {
	rooms := new(mocks.RoomRepository)
	users := new(mocks.UserRepository)
	pub := new(publishermocks.Publisher)
	svc := newRoomService(t, rooms, users, pub)

	err := svc.SetMemberLabels(context.Background(), "owner-1", "777777", "member-1", []domain.Label{"not-a-label"})
	svcErr, ok := err.(*service.Error)
	require.True(t, ok)
	assert.Equal(t, service.KindInvalidLabel, svcErr.Kind)
	rooms.AssertNotCalled(t, "WithRoomLock", mock.Anything, mock.Anything, mock.Anything)
}

func TestSetLabelRules_ConflictingRules(t *testing.T) {
	rooms := new(mocks.RoomRepository)
	users := new(mocks.UserRepository)
	pub := new(publishermocks.Publisher)
	svc := newRoomService(t, rooms, users, pub)

	rules := domain.LabelRules{domain.LabelGod: domain.RuleSameTeam, domain.LabelBoss: domain.RuleSameTeam}
	err := svc.SetLabelRules(context.Background(), "owner-1", "888888", rules)
	svcErr, ok := err.(*service.Error)
	require.True(t, ok)
	assert.Equal(t, service.KindConflictingRules, svcErr.Kind)
	rooms.AssertNotCalled(t, "WithRoomLock", mock.Anything, mock.Anything, mock.Anything)
}

func TestDivideTeams_TooFewMembers(t *testing.T) {
	rooms := new(mocks.RoomRepository)
	users := new(mocks.UserRepository)
	pub := new(publishermocks.Publisher)
	svc := newRoomService(t, rooms, users, pub)
	ctx := context.Background()

	agg := waitingRoomAggregate("owner-1", "999999", 3)
	runWithLock(rooms, &agg)

	_, err := svc.DivideTeams(ctx, "owner-1", "999999")
	svcErr, ok := err.(*service.Error)
	require.True(t, ok)
	assert.Equal(t, service.KindTooFewMembers, svcErr.Kind)
}

func TestDivideTeams_Success_EmitsTeamsDivided(t *testing.T) {
	rooms := new(mocks.RoomRepository)
	users := new(mocks.UserRepository)
	pub := new(publishermocks.Publisher)
	svc := newRoomService(t, rooms, users, pub)
	ctx := context.Background()

	agg := waitingRoomAggregate("owner-1", "121212", 10)
	agg.Members = append(agg.Members, repository.MemberWithUser{
		Membership: domain.Membership{UserID: "p2"},
		User:       domain.User{ID: "p2", Nickname: "p2"},
	})
	runWithLock(rooms, &agg)
	pub.On("Publish", ctx, agg.Room.Channel(), publisher.EventTeamsDivided, mock.Anything).Once()

	result, err := svc.DivideTeams(ctx, "owner-1", "121212")
	require.NoError(t, err)
	assert.Len(t, result.TeamA, 1)
	assert.Len(t, result.TeamB, 1)
	pub.AssertExpectations(t)
}

func TestGetMyOwnedRoom_NoneFound(t *testing.T) {
	rooms := new(mocks.RoomRepository)
	users := new(mocks.UserRepository)
	pub := new(publishermocks.Publisher)
	svc := newRoomService(t, rooms, users, pub)
	ctx := context.Background()

	rooms.On("FindOwnedWaitingRoom", ctx, "owner-1").Return(nil, nil).Once()

	_, found, err := svc.GetMyOwnedRoom(ctx, "owner-1")
	require.NoError(t, err)
	assert.False(t, found)
}
