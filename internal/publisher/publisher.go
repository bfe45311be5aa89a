// Package publisher implements the channel-keyed fan-out the Room Service
// pushes state-change notifications through. Every delivery is
// best-effort: a failure is logged and swallowed, never surfaced to the
// caller.
package publisher

import "context"

// EventType names one of the five events a room channel ever carries.
type EventType string

const (
	EventMemberJoined EventType = "member-joined"
	EventMemberLeft   EventType = "member-left"
	EventRoomUpdated  EventType = "room-updated"
	EventRoomClosed   EventType = "room-closed"
	EventTeamsDivided EventType = "teams-divided"
)

// Event is one message delivered to a channel's subscribers.
type Event struct {
	Channel string      `json:"channel"`
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Publisher is a multi-subscriber pub/sub keyed by channel name. Publish
// never returns an error to the Room Service — implementations log and
// swallow delivery failures themselves, keeping the best-effort contract
// entirely internal.
type Publisher interface {
	Publish(ctx context.Context, channel string, eventType EventType, payload interface{})

	// Subscribe attaches to channel and returns a receive-only stream of
	// its events plus an unsubscribe function. The stream is closed when
	// unsubscribe is called.
	Subscribe(ctx context.Context, channel string) (<-chan Event, func())
}
