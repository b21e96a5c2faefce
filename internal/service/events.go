package service

import (
	"context"
	"log/slog"

	"playhub/internal/middleware"
	"playhub/internal/notifications"
)

// EventPublisher delivers live game events. *notifications.Notifier implements it.
type EventPublisher interface {
	PublishGameEvent(ctx context.Context, event notifications.GameEvent) error
}

// publish sends an event without letting delivery problems fail the caller.
func publish(ctx context.Context, events EventPublisher, event notifications.GameEvent) {
	if events == nil {
		return
	}
	if err := events.PublishGameEvent(ctx, event); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish game event",
			slog.String("type", event.Type),
			slog.String("game_id", event.GameID),
			slog.String("error", err.Error()),
		)
	}
}
