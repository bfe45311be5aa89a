package repository

import (
	"context"

	"roomsplit/internal/domain"
)

// UserRepository stores the projection (nickname, avatar) the core needs to
// render member/owner views. It is written to by the out-of-scope profile
// interface and by first-touch user creation on authentication; the core
// never authenticates or authorizes through it.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)

	// Upsert creates the user on first sight or applies a profile push
	// (nickname/avatar) on subsequent calls.
	Upsert(ctx context.Context, user domain.User) error
}