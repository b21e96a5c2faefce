// Package notifications provides real-time game event delivery.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"

	"playhub/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Notifier publishes game events into Redis and subscribes to them.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
// A nil client turns every call into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishGameEvent sends an event to every API instance subscribed to GameEventsChannel.
func (n *Notifier) PublishGameEvent(ctx context.Context, event GameEvent) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal game event: %w", err)
	}
	return n.rdb.Publish(ctx, GameEventsChannel, payload).Err()
}

// StartGameEventSubscriber subscribes to GameEventsChannel and calls onMessage
// for each incoming payload until ctx is cancelled.
func (n *Notifier) StartGameEventSubscriber(ctx context.Context, onMessage func(payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, GameEventsChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", GameEventsChannel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in game event subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()

	return nil
}
