package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/go-redis/redis/v8"
)

const Channel = "solarops:changes"

type RedisBroker struct {
	client  *redis.Client
	channel string
}

func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client, channel: Channel}
}

func (b *RedisBroker) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context) (<-chan Event, func(), error) {
	sub := b.client.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	out := make(chan Event, subscriberBuffer)
	done := make(chan struct{})
	go func() {
		defer close(out)
		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					slog.Warn("realtime: dropping malformed event", "err", err)
					continue
				}
				select {
				case out <- event:
				default:
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = sub.Close()
		})
	}
	return out, cancel, nil
}

// Close is a no-op; the Redis client is owned and closed by the server.
func (b *RedisBroker) Close() error {
	return nil
}
