package domain

import "time"

// Status is a room's position in the lifecycle state machine.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusDivided Status = "divided"
	StatusClosed  Status = "closed"
)

// DefaultMaxMembers is used when a caller does not specify one on create.
const DefaultMaxMembers = 10

const (
	MinMaxMembers = 2
	MaxMaxMembers = 100
	MaxGameName   = 128
)

// Room is a single ephemeral multi-user room.
type Room struct {
	ID           string          `gorm:"primaryKey;size:36"`
	Code         string          `gorm:"uniqueIndex:idx_room_code;size:6;not null"`
	GameName     string          `gorm:"size:128;not null"`
	OwnerID      string          `gorm:"index;size:36;not null"`
	Status       Status          `gorm:"size:16;not null"`
	MaxMembers   int             `gorm:"not null"`
	LabelRules   LabelRules      `gorm:"serializer:json"`
	Division     *DivisionResult `gorm:"serializer:json"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastActiveAt time.Time `gorm:"index"`
}

// Channel returns the pub/sub channel name for this room's code, per the
// "room-<code>" convention.
func (r Room) Channel() string {
	return "room-" + r.Code
}
