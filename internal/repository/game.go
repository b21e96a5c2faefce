package repository

import (
	"context"
	"fmt"
	"strings"

	"playhub/internal/models"
	"playhub/internal/observability"

	"gorm.io/gorm"
)

// GameFilter narrows and orders a game listing. OrderBy must be a trusted column expression.
type GameFilter struct {
	Search        string
	PublishedOnly bool
	TrendingOnly  bool
	OrderBy       string
	Offset        int
	Limit         int
}

// GameRepository defines persistence operations for games and their category links.
type GameRepository interface {
	Create(ctx context.Context, game *models.Game, categoryIDs []string) error
	GetByID(ctx context.Context, id string) (*models.Game, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter GameFilter) ([]models.Game, int64, error)
	// Update saves every column of game. A non-nil categoryIDs replaces the game's links.
	Update(ctx context.Context, game *models.Game, categoryIDs []string) error
	Delete(ctx context.Context, id string) (bool, error)
	IncrementPlayCount(ctx context.Context, id string) (int64, error)
}

type gameRepository struct {
	db *gorm.DB
}

// NewGameRepository creates and returns a new GameRepository instance.
func NewGameRepository(db *gorm.DB) GameRepository {
	return &gameRepository{db: db}
}

func (r *gameRepository) Create(ctx context.Context, game *models.Game, categoryIDs []string) error {
	defer observability.TrackQuery("insert", "games")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Categories").Create(game).Error; err != nil {
			return fmt.Errorf("create game: %w", err)
		}
		if err := linkCategories(tx, game.ID, categoryIDs); err != nil {
			return err
		}
		return loadCategories(tx, game)
	})
}

func (r *gameRepository) GetByID(ctx context.Context, id string) (*models.Game, error) {
	defer observability.TrackQuery("select", "games")()

	var game models.Game
	if err := r.db.WithContext(ctx).Preload("Categories", orderByName).First(&game, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, models.NewNotFoundError("Game", id)
		}
		return nil, fmt.Errorf("get game: %w", err)
	}
	return &game, nil
}

func (r *gameRepository) Exists(ctx context.Context, id string) (bool, error) {
	defer observability.TrackQuery("exists", "games")()

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Game{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check game exists: %w", err)
	}
	return count > 0, nil
}

func (r *gameRepository) List(ctx context.Context, filter GameFilter) ([]models.Game, int64, error) {
	defer observability.TrackQuery("list", "games")()

	query := r.db.WithContext(ctx).Model(&models.Game{})
	if filter.PublishedOnly {
		query = query.Where("publish_status = ?", true)
	}
	if filter.TrendingOnly {
		query = query.Where("is_trending = ?", true)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count games: %w", err)
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at DESC"
	}
	query = query.Order(orderBy).Preload("Categories", orderByName)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var games []models.Game
	if err := query.Find(&games).Error; err != nil {
		return nil, 0, fmt.Errorf("list games: %w", err)
	}
	return games, total, nil
}

func (r *gameRepository) Update(ctx context.Context, game *models.Game, categoryIDs []string) error {
	defer observability.TrackQuery("update", "games")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(game).Select("*").Omit("id", "created_at", "play_count", "Categories").Updates(game)
		if result.Error != nil {
			return fmt.Errorf("update game: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError("Game", game.ID)
		}
		if categoryIDs != nil {
			if err := tx.Where("game_id = ?", game.ID).Delete(&models.GameCategory{}).Error; err != nil {
				return fmt.Errorf("clear game categories: %w", err)
			}
			if err := linkCategories(tx, game.ID, categoryIDs); err != nil {
				return err
			}
		}
		return loadCategories(tx, game)
	})
}

// Delete removes the game with its reactions and category links.
func (r *gameRepository) Delete(ctx context.Context, id string) (bool, error) {
	defer observability.TrackQuery("delete", "games")()

	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("game_id = ?", id).Delete(&models.Reaction{}).Error; err != nil {
			return fmt.Errorf("delete game reactions: %w", err)
		}
		if err := tx.Where("game_id = ?", id).Delete(&models.GameCategory{}).Error; err != nil {
			return fmt.Errorf("delete game categories: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&models.Game{})
		if result.Error != nil {
			return fmt.Errorf("delete game: %w", result.Error)
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	return deleted, err
}

func (r *gameRepository) IncrementPlayCount(ctx context.Context, id string) (int64, error) {
	defer observability.TrackQuery("update", "games")()

	var playCount int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Game{}).
			Where("id = ?", id).
			UpdateColumn("play_count", gorm.Expr("play_count + ?", 1))
		if result.Error != nil {
			return fmt.Errorf("increment play count: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError("Game", id)
		}
		return tx.Model(&models.Game{}).Where("id = ?", id).Pluck("play_count", &playCount).Error
	})
	if err != nil {
		return 0, err
	}
	return playCount, nil
}

func linkCategories(tx *gorm.DB, gameID string, categoryIDs []string) error {
	ids := uniqueIDs(categoryIDs)
	if len(ids) == 0 {
		return nil
	}

	var found int64
	if err := tx.Model(&models.Category{}).Where("id IN ?", ids).Count(&found).Error; err != nil {
		return fmt.Errorf("check categories: %w", err)
	}
	if found != int64(len(ids)) {
		return ErrUnknownCategory
	}

	links := make([]models.GameCategory, 0, len(ids))
	for _, categoryID := range ids {
		links = append(links, models.GameCategory{GameID: gameID, CategoryID: categoryID})
	}
	if err := tx.Create(&links).Error; err != nil {
		return fmt.Errorf("link categories: %w", classifyWriteError(err))
	}
	return nil
}

func loadCategories(tx *gorm.DB, game *models.Game) error {
	game.Categories = nil
	if err := tx.Model(game).Order("categories.name ASC").Association("Categories").Find(&game.Categories); err != nil {
		return fmt.Errorf("load game categories: %w", err)
	}
	return nil
}

func orderByName(db *gorm.DB) *gorm.DB {
	return db.Order("categories.name ASC")
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
