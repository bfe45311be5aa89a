package publisher

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// subscriberBufferSize bounds each subscriber's event channel; a slow
// subscriber drops events rather than blocking the publishing call, the
// same trade-off the source hub made for its per-client send channel.
const subscriberBufferSize = 64

// Broker is the in-process Publisher: a channel-per-subscriber model
// keyed by channel name, guarded by a reader-writer lock since
// subscriptions change far less often than publications happen.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
}

// NewBroker creates an empty in-process Broker.
func NewBroker() *Broker {
	return &Broker{subscribers: make(map[string]map[chan Event]struct{})}
}

func (b *Broker) Publish(ctx context.Context, channel string, eventType EventType, payload interface{}) {
	event := Event{Channel: channel, Type: eventType, Payload: payload}

	b.mu.RLock()
	subs := b.subscribers[channel]
	recipients := make([]chan Event, 0, len(subs))
	for ch := range subs {
		recipients = append(recipients, ch)
	}
	b.mu.RUnlock()

	for _, ch := range recipients {
		select {
		case ch <- event:
		default:
			logrus.WithFields(logrus.Fields{
				"channel": channel,
				"event":   eventType,
			}).Warn("broker: subscriber channel full, dropping event")
		}
	}
}

func (b *Broker) Subscribe(ctx context.Context, channel string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBufferSize)

	b.mu.Lock()
	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[chan Event]struct{})
	}
	b.subscribers[channel][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers[channel], ch)
			if len(b.subscribers[channel]) == 0 {
				delete(b.subscribers, channel)
			}
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsubscribe
}
