package repository

import "errors"

var (
	// ErrNotFound means the requested room/membership/user does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry means a write violated a unique constraint whose
	// specific meaning the caller doesn't need to distinguish.
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
	// ErrRoomCodeConflict means CreateRoom's code collided with an
	// existing non-closed room.
	ErrRoomCodeConflict = errors.New("repository: room code already in use")
	// ErrAlreadyMember means AddMember was called for a user already in
	// the room.
	ErrAlreadyMember = errors.New("repository: user is already a member")
)