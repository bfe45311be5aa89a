package publisher

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RedisPublisher is the Publisher interface's Redis-backed implementation,
// for deployments that run more than one API process and need fan-out to
// cross process boundaries. Grounded on the source's
// RedisStateRepository.PublishAction, generalized from a single
// whiteboard-action payload to the five-event room taxonomy.
type RedisPublisher struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisPublisher creates a RedisPublisher. keyPrefix namespaces pub/sub
// channel names; pass "" to use the default.
func NewRedisPublisher(client *redis.Client, keyPrefix string) *RedisPublisher {
	if client == nil {
		panic("redis client cannot be nil for RedisPublisher")
	}
	if keyPrefix == "" {
		keyPrefix = "roomsplit:"
	}
	return &RedisPublisher{client: client, keyPrefix: keyPrefix}
}

func (p *RedisPublisher) topic(channel string) string {
	return p.keyPrefix + channel
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, eventType EventType, payload interface{}) {
	event := Event{Channel: channel, Type: eventType, Payload: payload}
	body, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).WithField("channel", channel).Error("publisher: marshal event failed")
		return
	}
	if err := p.client.Publish(ctx, p.topic(channel), body).Err(); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"channel": channel,
			"event":   eventType,
		}).Error("publisher: redis publish failed")
	}
}

func (p *RedisPublisher) Subscribe(ctx context.Context, channel string) (<-chan Event, func()) {
	sub := p.client.Subscribe(ctx, p.topic(channel))
	out := make(chan Event, subscriberBufferSize)

	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logrus.WithError(err).WithField("channel", channel).Warn("publisher: discarding malformed event")
				continue
			}
			select {
			case out <- event:
			default:
				logrus.WithField("channel", channel).Warn("publisher: subscriber channel full, dropping event")
			}
		}
	}()

	unsubscribe := func() {
		_ = sub.Close()
	}
	return out, unsubscribe
}
