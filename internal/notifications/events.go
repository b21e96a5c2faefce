package notifications

import (
	"encoding/json"
	"time"
)

// GameEventsChannel is the Redis channel carrying live catalog events.
const GameEventsChannel = "games:events"

const (
	EventReactionChanged = "reaction.changed"
	EventGamePlayed      = "game.played"
)

// GameEvent is the payload published on GameEventsChannel and forwarded to websocket clients.
type GameEvent struct {
	Type         string    `json:"type"`
	GameID       string    `json:"game_id"`
	LikeCount    *int64    `json:"like_count,omitempty"`
	DislikeCount *int64    `json:"dislike_count,omitempty"`
	PlayCount    *int64    `json:"play_count,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// ReactionChanged builds the event sent after a reaction write changed a game's tally.
func ReactionChanged(gameID string, likes, dislikes int64) GameEvent {
	return GameEvent{
		Type:         EventReactionChanged,
		GameID:       gameID,
		LikeCount:    &likes,
		DislikeCount: &dislikes,
		OccurredAt:   time.Now().UTC(),
	}
}

// GamePlayed builds the event sent after a play was recorded.
func GamePlayed(gameID string, playCount int64) GameEvent {
	return GameEvent{
		Type:       EventGamePlayed,
		GameID:     gameID,
		PlayCount:  &playCount,
		OccurredAt: time.Now().UTC(),
	}
}

func decodeGameEvent(payload string) (GameEvent, error) {
	var event GameEvent
	err := json.Unmarshal([]byte(payload), &event)
	return event, err
}
