package domain

import "time"

// MemberView is one entry in a RoomSnapshot's member list.
type MemberView struct {
	ID        string    `json:"id"`
	Nickname  string    `json:"nickname"`
	AvatarURL string    `json:"avatarUrl"`
	Team      Team      `json:"team"`
	Labels    []Label   `json:"labels"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// OwnerView is the owner projection embedded in a RoomSnapshot.
type OwnerView struct {
	ID        string `json:"id"`
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatarUrl"`
}

// RoomSnapshot is the full aggregated read-model returned by the API.
type RoomSnapshot struct {
	ID          string     `json:"id"`
	RoomCode    string     `json:"roomCode"`
	GameName    string     `json:"gameName"`
	Status      Status     `json:"status"`
	MaxMembers  int        `json:"maxMembers"`
	OwnerID     string     `json:"ownerId"`
	LabelRules  LabelRules `json:"labelRules"`
	Owner       *OwnerView `json:"owner"`
	Members     []MemberView `json:"members"`
	MemberCount int        `json:"memberCount"`
	CreatedAt   time.Time  `json:"createdAt"`
}
