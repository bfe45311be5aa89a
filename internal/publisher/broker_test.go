package publisher_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomsplit/internal/publisher"
)

func recv(t *testing.T, ch <-chan publisher.Event) publisher.Event {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return publisher.Event{}
	}
}

func TestBroker_PublishDeliversToSubscriber(t *testing.T) {
	b := publisher.NewBroker()
	ch, unsubscribe := b.Subscribe(context.Background(), "room-abc123")
	defer unsubscribe()

	b.Publish(context.Background(), "room-abc123", publisher.EventRoomUpdated, map[string]int{"memberCount": 2})

	event := recv(t, ch)
	assert.Equal(t, "room-abc123", event.Channel)
	assert.Equal(t, publisher.EventRoomUpdated, event.Type)
}

func TestBroker_PublishOnlyReachesMatchingChannel(t *testing.T) {
	b := publisher.NewBroker()
	chA, unsubA := b.Subscribe(context.Background(), "room-aaa111")
	defer unsubA()
	chB, unsubB := b.Subscribe(context.Background(), "room-bbb222")
	defer unsubB()

	b.Publish(context.Background(), "room-aaa111", publisher.EventMemberJoined, nil)

	event := recv(t, chA)
	assert.Equal(t, publisher.EventMemberJoined, event.Type)

	select {
	case <-chB:
		t.Fatal("unrelated channel should not have received an event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroker_PublishFansOutToEverySubscriber(t *testing.T) {
	b := publisher.NewBroker()
	ch1, unsub1 := b.Subscribe(context.Background(), "room-ccc333")
	defer unsub1()
	ch2, unsub2 := b.Subscribe(context.Background(), "room-ccc333")
	defer unsub2()

	b.Publish(context.Background(), "room-ccc333", publisher.EventTeamsDivided, nil)

	assert.Equal(t, publisher.EventTeamsDivided, recv(t, ch1).Type)
	assert.Equal(t, publisher.EventTeamsDivided, recv(t, ch2).Type)
}

func TestBroker_UnsubscribeClosesChannelAndStopsDelivery(t *testing.T) {
	b := publisher.NewBroker()
	ch, unsubscribe := b.Subscribe(context.Background(), "room-ddd444")

	unsubscribe()

	_, open := <-ch
	require.False(t, open, "channel should be closed after unsubscribe")

	// Publishing after every subscriber left must not panic or block.
	b.Publish(context.Background(), "room-ddd444", publisher.EventRoomClosed, nil)
}

func TestBroker_UnsubscribeIsIdempotent(t *testing.T) {
	b := publisher.NewBroker()
	_, unsubscribe := b.Subscribe(context.Background(), "room-eee555")

	assert.NotPanics(t, func() {
		unsubscribe()
		unsubscribe()
	})
}

func TestBroker_SlowSubscriberDropsRatherThanBlocks(t *testing.T) {
	b := publisher.NewBroker()
	ch, unsubscribe := b.Subscribe(context.Background(), "room-fff666")
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			b.Publish(context.Background(), "room-fff666", publisher.EventRoomUpdated, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber buffer instead of dropping")
	}
	<-ch
}
