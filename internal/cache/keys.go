package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	GameKeyPrefix = "game:%s"
	PageKeyPrefix = "page:%s"
)

const (
	GameTTL = 5 * time.Minute
	PageTTL = 10 * time.Minute
)

func GameKey(gameID string) string {
	return fmt.Sprintf(GameKeyPrefix, gameID)
}

func PageKey(slug string) string {
	return fmt.Sprintf(PageKeyPrefix, slug)
}

// InvalidateGame drops the cached detail of each game.
func InvalidateGame(ctx context.Context, gameIDs ...string) {
	keys := make([]string, 0, len(gameIDs))
	for _, id := range gameIDs {
		keys = append(keys, GameKey(id))
	}
	Invalidate(ctx, keys...)
}

func InvalidatePage(ctx context.Context, slug string) {
	Invalidate(ctx, PageKey(slug))
}
