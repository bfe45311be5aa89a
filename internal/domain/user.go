package domain

import "time"

// User is the internal identity a resolved bearer token maps to. The core
// never authenticates a user itself; it only ever receives an already
// resolved id and, independently, profile pushes for Nickname/AvatarURL.
type User struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Nickname  string    `gorm:"size:191"`
	AvatarURL string    `gorm:"size:512"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
