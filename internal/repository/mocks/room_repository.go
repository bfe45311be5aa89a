// Package mocks holds testify/mock implementations of the repository
// interfaces, for service-layer tests that should not touch a real
// database.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"roomsplit/internal/domain"
	"roomsplit/internal/repository"
)

// RoomRepository is a mock.Mock-backed repository.RoomRepository.
type RoomRepository struct {
	mock.Mock
}

func (m *RoomRepository) CreateRoom(ctx context.Context, room domain.Room, owner domain.User) (repository.RoomAggregate, error) {
	args := m.Called(ctx, room, owner)
	agg, _ := args.Get(0).(repository.RoomAggregate)
	return agg, args.Error(1)
}

func (m *RoomRepository) GetRoomByCode(ctx context.Context, code string) (repository.RoomAggregate, error) {
	args := m.Called(ctx, code)
	agg, _ := args.Get(0).(repository.RoomAggregate)
	return agg, args.Error(1)
}

func (m *RoomRepository) FindOwnedWaitingRoom(ctx context.Context, userID string) (*repository.RoomAggregate, error) {
	args := m.Called(ctx, userID)
	agg, _ := args.Get(0).(*repository.RoomAggregate)
	return agg, args.Error(1)
}

func (m *RoomRepository) FindJoinedRoom(ctx context.Context, userID string) (*repository.RoomAggregate, error) {
	args := m.Called(ctx, userID)
	agg, _ := args.Get(0).(*repository.RoomAggregate)
	return agg, args.Error(1)
}

func (m *RoomRepository) FindStaleWaitingRoomCodes(ctx context.Context, before time.Time) ([]string, error) {
	args := m.Called(ctx, before)
	codes, _ := args.Get(0).([]string)
	return codes, args.Error(1)
}

func (m *RoomRepository) DeleteRoom(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *RoomRepository) WithRoomLock(ctx context.Context, code string, fn func(agg *repository.RoomAggregate, w repository.RoomWriter) error) error {
	args := m.Called(ctx, code, fn)
	return args.Error(0)
}

// RoomWriter is a mock.Mock-backed repository.RoomWriter.
type RoomWriter struct {
	mock.Mock
}

func (m *RoomWriter) AddMember(ctx context.Context, roomID string, user domain.User) (domain.Membership, error) {
	args := m.Called(ctx, roomID, user)
	membership, _ := args.Get(0).(domain.Membership)
	return membership, args.Error(1)
}

func (m *RoomWriter) RemoveMember(ctx context.Context, roomID, userID string) error {
	args := m.Called(ctx, roomID, userID)
	return args.Error(0)
}

func (m *RoomWriter) UpdateMemberTeam(ctx context.Context, membershipID string, team domain.Team) error {
	args := m.Called(ctx, membershipID, team)
	return args.Error(0)
}

func (m *RoomWriter) UpdateMemberLabels(ctx context.Context, membershipID string, labels []domain.Label) error {
	args := m.Called(ctx, membershipID, labels)
	return args.Error(0)
}

func (m *RoomWriter) UpdateRoom(ctx context.Context, room domain.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}
