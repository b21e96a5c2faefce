package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"playhub/internal/models"
	"playhub/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionRepository is the storage behind the reaction ledger. Every write touches at most
// one row and none of them take locks; callers reconcile races by re-reading.
type ReactionRepository interface {
	// Get returns the pair's reaction, or nil when the user has none on the game.
	Get(ctx context.Context, gameID, userID string) (*models.Reaction, error)
	// Insert adds the reaction unless the pair already has one, in a single statement.
	// It reports whether a row was created.
	Insert(ctx context.Context, reaction *models.Reaction) (bool, error)
	// CompareAndSwapKind flips the row's kind only if it still holds from.
	CompareAndSwapKind(ctx context.Context, id string, from, to models.ReactionKind) (bool, error)
	// DeleteByPair hard-deletes the pair's reaction and reports whether a row existed.
	DeleteByPair(ctx context.Context, gameID, userID string) (bool, error)
	// Aggregate counts the game's likes and dislikes and reads userID's own reaction
	// in one statement, so all three come from the same snapshot.
	Aggregate(ctx context.Context, gameID, userID string) (*models.ReactionStats, error)
}

type reactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository creates a new ReactionRepository
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) Get(ctx context.Context, gameID, userID string) (*models.Reaction, error) {
	defer observability.TrackQuery("select", "game_reactions")()

	var reaction models.Reaction
	err := r.db.WithContext(ctx).
		Where("game_id = ? AND user_id = ?", gameID, userID).
		Limit(1).
		Find(&reaction).Error
	if err != nil {
		return nil, fmt.Errorf("get reaction: %w", err)
	}
	if reaction.ID == "" {
		return nil, nil
	}
	return &reaction, nil
}

func (r *reactionRepository) Insert(ctx context.Context, reaction *models.Reaction) (bool, error) {
	defer observability.TrackQuery("insert", "game_reactions")()

	result := r.db.WithContext(ctx).
		Omit("Game").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "game_id"}},
			DoNothing: true,
		}).
		Create(reaction)
	if result.Error != nil {
		return false, fmt.Errorf("insert reaction: %w", classifyWriteError(result.Error))
	}
	return result.RowsAffected == 1, nil
}

func (r *reactionRepository) CompareAndSwapKind(ctx context.Context, id string, from, to models.ReactionKind) (bool, error) {
	defer observability.TrackQuery("update", "game_reactions")()

	result := r.db.WithContext(ctx).
		Model(&models.Reaction{}).
		Where("id = ? AND reaction_type = ?", id, from).
		UpdateColumns(map[string]interface{}{
			"reaction_type": to,
			"updated_at":    time.Now().UTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("update reaction: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *reactionRepository) DeleteByPair(ctx context.Context, gameID, userID string) (bool, error) {
	defer observability.TrackQuery("delete", "game_reactions")()

	result := r.db.WithContext(ctx).
		Where("game_id = ? AND user_id = ?", gameID, userID).
		Delete(&models.Reaction{})
	if result.Error != nil {
		return false, fmt.Errorf("delete reaction: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

type aggregateRow struct {
	Likes        int64   `gorm:"column:likes"`
	Dislikes     int64   `gorm:"column:dislikes"`
	UserReaction *string `gorm:"column:user_reaction"`
}

const aggregateSelect = "COUNT(CASE WHEN reaction_type = ? THEN 1 END) AS likes, " +
	"COUNT(CASE WHEN reaction_type = ? THEN 1 END) AS dislikes, " +
	"MAX(CASE WHEN user_id = ? THEN reaction_type END) AS user_reaction"

func (r *reactionRepository) Aggregate(ctx context.Context, gameID, userID string) (*models.ReactionStats, error) {
	defer observability.TrackQuery("aggregate", "game_reactions")()

	var row aggregateRow
	err := r.db.WithContext(ctx).
		Model(&models.Reaction{}).
		Select(aggregateSelect, models.ReactionLike, models.ReactionDislike, userID).
		Where("game_id = ?", gameID).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate reactions: %w", err)
	}

	stats := &models.ReactionStats{LikeCount: row.Likes, DislikeCount: row.Dislikes}
	if row.UserReaction != nil && userID != "" {
		kind := models.ReactionKind(*row.UserReaction)
		stats.UserReaction = &kind
	}
	return stats, nil
}

// isNotFound reports gorm's record-not-found sentinel.
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
