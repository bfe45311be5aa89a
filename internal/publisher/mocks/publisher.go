// Package mocks holds a testify/mock implementation of publisher.Publisher
// for service-layer tests.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"roomsplit/internal/publisher"
)

// Publisher is a mock.Mock-backed publisher.Publisher.
type Publisher struct {
	mock.Mock
}

func (m *Publisher) Publish(ctx context.Context, channel string, eventType publisher.EventType, payload interface{}) {
	m.Called(ctx, channel, eventType, payload)
}

func (m *Publisher) Subscribe(ctx context.Context, channel string) (<-chan publisher.Event, func()) {
	args := m.Called(ctx, channel)
	ch, _ := args.Get(0).(<-chan publisher.Event)
	unsub, _ := args.Get(1).(func())
	return ch, unsub
}
