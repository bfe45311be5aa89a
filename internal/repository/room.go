package repository

import (
	"context"
	"time"

	"roomsplit/internal/domain"
)

// MemberWithUser pairs a Membership row with the User projection it
// resolves to, the shape GetRoomByCode and friends hand back so the service
// layer never has to join the two itself.
type MemberWithUser struct {
	Membership domain.Membership
	User       domain.User
}

// RoomAggregate is a room together with its owner and member projections —
// the full read model the repository loads as one unit.
type RoomAggregate struct {
	Room    domain.Room
	Owner   domain.User
	Members []MemberWithUser
}

// MemberCount returns the number of current memberships.
func (a RoomAggregate) MemberCount() int {
	return len(a.Members)
}

// FindMember returns the membership for userID, if present.
func (a RoomAggregate) FindMember(userID string) (MemberWithUser, bool) {
	for _, m := range a.Members {
		if m.Membership.UserID == userID {
			return m, true
		}
	}
	return MemberWithUser{}, false
}

// RoomWriter is bound to a single locked transaction; every method acts on
// the room that WithRoomLock already holds the lock for.
type RoomWriter interface {
	AddMember(ctx context.Context, roomID string, user domain.User) (domain.Membership, error)
	RemoveMember(ctx context.Context, roomID, userID string) error
	UpdateMemberTeam(ctx context.Context, membershipID string, team domain.Team) error
	UpdateMemberLabels(ctx context.Context, membershipID string, labels []domain.Label) error
	UpdateRoom(ctx context.Context, room domain.Room) error
}

// RoomRepository is the persistence contract for rooms, members, and the
// users they resolve to. Every mutating method, directly or through
// WithRoomLock, runs inside a transaction that holds at least a row-level
// lock on the target room, so concurrent calls on the same room serialize.
type RoomRepository interface {
	// CreateRoom persists a new room with its owner already a member.
	// Fails with ErrRoomCodeConflict if Code is already used by a
	// non-closed room.
	CreateRoom(ctx context.Context, room domain.Room, owner domain.User) (RoomAggregate, error)

	// GetRoomByCode returns the full aggregate for a room. Fails with
	// ErrNotFound if no non-closed room has that code.
	GetRoomByCode(ctx context.Context, code string) (RoomAggregate, error)

	// FindOwnedWaitingRoom returns the waiting room userID owns, if any.
	FindOwnedWaitingRoom(ctx context.Context, userID string) (*RoomAggregate, error)

	// FindJoinedRoom returns a non-closed, non-owned room userID belongs
	// to, if any.
	FindJoinedRoom(ctx context.Context, userID string) (*RoomAggregate, error)

	// FindStaleWaitingRoomCodes returns the codes of every waiting room
	// whose LastActiveAt is older than before, for the Stale Room Reaper.
	FindStaleWaitingRoomCodes(ctx context.Context, before time.Time) ([]string, error)

	// DeleteRoom deletes a room and cascades to its memberships.
	DeleteRoom(ctx context.Context, roomID string) error

	// WithRoomLock loads the aggregate for code under an exclusive
	// per-room lock held for the lifetime of fn, and hands fn a
	// RoomWriter bound to that same transaction. If fn returns an
	// error the transaction rolls back and no write is kept.
	WithRoomLock(ctx context.Context, code string, fn func(agg *RoomAggregate, w RoomWriter) error) error
}
