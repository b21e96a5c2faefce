package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"playhub/internal/cache"
	"playhub/internal/models"
	"playhub/internal/notifications"
	"playhub/internal/observability"
	"playhub/internal/repository"
	"playhub/internal/validation"
)

const (
	defaultGameListLimit = 10
	maxGameListLimit     = 100
)

// Sortable admin list fields mapped to trusted SQL columns.
var gameSortColumns = map[string]string{
	"title":         "title",
	"rating":        "rating",
	"publishStatus": "publish_status",
	"isTrending":    "is_trending",
	"createdAt":     "created_at",
	"publishedAt":   "published_at",
}

// GameService provides catalog business logic.
type GameService struct {
	games  repository.GameRepository
	events EventPublisher
	now    func() time.Time
}

// NewGameService returns a new GameService. events may be nil.
func NewGameService(games repository.GameRepository, events EventPublisher) *GameService {
	return &GameService{games: games, events: events, now: time.Now}
}

type CreateGameInput struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Rating        float64  `json:"rating"`
	Icon          string   `json:"icon"`
	Video         string   `json:"video"`
	URL           string   `json:"url"`
	PublishStatus bool     `json:"publishStatus"`
	IsTrending    bool     `json:"isTrending"`
	CategoryIDs   []string `json:"categoryIds"`
}

// UpdateGameInput is a partial update: nil fields are left unchanged.
type UpdateGameInput struct {
	Title         *string   `json:"title"`
	Description   *string   `json:"description"`
	Rating        *float64  `json:"rating"`
	Icon          *string   `json:"icon"`
	Video         *string   `json:"video"`
	URL           *string   `json:"url"`
	PublishStatus *bool     `json:"publishStatus"`
	IsTrending    *bool     `json:"isTrending"`
	CategoryIDs   *[]string `json:"categoryIds"`
}

// AdminGameQuery controls the paginated admin listing.
type AdminGameQuery struct {
	Search    string
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// GamePage is one page of the admin listing.
type GamePage struct {
	Data  []models.Game `json:"data"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// Create validates the input and stores the game with its category links in one transaction.
func (s *GameService) Create(ctx context.Context, in CreateGameInput) (*models.Game, error) {
	game := &models.Game{
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		Rating:        in.Rating,
		Icon:          strings.TrimSpace(in.Icon),
		Video:         strings.TrimSpace(in.Video),
		URL:           strings.TrimSpace(in.URL),
		PublishStatus: in.PublishStatus,
		IsTrending:    in.IsTrending,
	}
	if err := validateGame(game); err != nil {
		return nil, err
	}
	if game.PublishStatus {
		now := s.now().UTC()
		game.PublishedAt = &now
	}

	if err := s.games.Create(ctx, game, in.CategoryIDs); err != nil {
		return nil, mapGameWriteError(err)
	}
	return game, nil
}

// List returns the public catalog, optionally filtered by a title/description search.
func (s *GameService) List(ctx context.Context, search string, publishedOnly bool) ([]models.Game, error) {
	games, _, err := s.games.List(ctx, repository.GameFilter{
		Search:        search,
		PublishedOnly: publishedOnly,
		OrderBy:       "created_at DESC",
	})
	return games, err
}

// ListAdmin returns one page of every game, published or not.
func (s *GameService) ListAdmin(ctx context.Context, q AdminGameQuery) (*GamePage, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = defaultGameListLimit
	}
	if limit > maxGameListLimit {
		limit = maxGameListLimit
	}

	column, ok := gameSortColumns[q.SortBy]
	if !ok {
		column = "created_at"
	}
	order := "DESC"
	if strings.EqualFold(q.SortOrder, "ASC") {
		order = "ASC"
	}

	games, total, err := s.games.List(ctx, repository.GameFilter{
		Search:  q.Search,
		OrderBy: column + " " + order,
		Offset:  (page - 1) * limit,
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}
	if games == nil {
		games = []models.Game{}
	}
	return &GamePage{Data: games, Total: total, Page: page, Limit: limit}, nil
}

// ListNew returns the most recently published games.
func (s *GameService) ListNew(ctx context.Context, limit int) ([]models.Game, error) {
	games, _, err := s.games.List(ctx, repository.GameFilter{
		PublishedOnly: true,
		OrderBy:       "published_at DESC",
		Limit:         clampLimit(limit),
	})
	return games, err
}

// ListTrending returns published games flagged as trending.
func (s *GameService) ListTrending(ctx context.Context, limit int) ([]models.Game, error) {
	games, _, err := s.games.List(ctx, repository.GameFilter{
		PublishedOnly: true,
		TrendingOnly:  true,
		OrderBy:       "created_at DESC",
		Limit:         clampLimit(limit),
	})
	return games, err
}

// Get returns a game with its categories. Cached per game.
func (s *GameService) Get(ctx context.Context, id string) (*models.Game, error) {
	var game models.Game
	_, err := cache.Aside(ctx, cache.GameKey(id), &game, cache.GameTTL, func() error {
		found, err := s.games.GetByID(ctx, id)
		if err != nil {
			return err
		}
		game = *found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// Exists reports whether a game with id is stored.
func (s *GameService) Exists(ctx context.Context, id string) (bool, error) {
	return s.games.Exists(ctx, id)
}

// Update applies a partial update. Publishing stamps published_at once; unpublishing clears it.
func (s *GameService) Update(ctx context.Context, id string, in UpdateGameInput) (*models.Game, error) {
	game, err := s.games.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		game.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		game.Description = strings.TrimSpace(*in.Description)
	}
	if in.Rating != nil {
		game.Rating = *in.Rating
	}
	if in.Icon != nil {
		game.Icon = strings.TrimSpace(*in.Icon)
	}
	if in.Video != nil {
		game.Video = strings.TrimSpace(*in.Video)
	}
	if in.URL != nil {
		game.URL = strings.TrimSpace(*in.URL)
	}
	if in.IsTrending != nil {
		game.IsTrending = *in.IsTrending
	}
	if in.PublishStatus != nil {
		game.PublishStatus = *in.PublishStatus
		switch {
		case game.PublishStatus && game.PublishedAt == nil:
			now := s.now().UTC()
			game.PublishedAt = &now
		case !game.PublishStatus:
			game.PublishedAt = nil
		}
	}
	if err := validateGame(game); err != nil {
		return nil, err
	}

	var categoryIDs []string
	if in.CategoryIDs != nil {
		categoryIDs = *in.CategoryIDs
		if categoryIDs == nil {
			categoryIDs = []string{}
		}
	}
	if err := s.games.Update(ctx, game, categoryIDs); err != nil {
		return nil, mapGameWriteError(err)
	}
	cache.InvalidateGame(ctx, id)
	return game, nil
}

// Delete removes a game along with its reactions and category links.
func (s *GameService) Delete(ctx context.Context, id string) error {
	deleted, err := s.games.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("Game", id)
	}
	cache.InvalidateGame(ctx, id)
	return nil
}

// IncrementPlayCount atomically records one play and returns the new total.
func (s *GameService) IncrementPlayCount(ctx context.Context, id string) (int64, error) {
	count, err := s.games.IncrementPlayCount(ctx, id)
	if err != nil {
		return 0, err
	}
	observability.GamePlays.Inc()
	cache.Invalidate(ctx, cache.GameKey(id))
	publish(ctx, s.events, notifications.GamePlayed(id, count))
	return count, nil
}

func validateGame(game *models.Game) error {
	if game.Title == "" {
		return models.NewValidationError("title is required")
	}
	if len(game.Title) > validation.MaxTitleLength {
		return models.NewValidationError("title must not exceed 255 characters")
	}
	if game.Description == "" {
		return models.NewValidationError("description is required")
	}
	if err := validation.ValidateRating(game.Rating); err != nil {
		return models.NewValidationError(err.Error())
	}
	for field, value := range map[string]string{"icon": game.Icon, "video": game.Video, "url": game.URL} {
		if err := validation.ValidateLink(field, value); err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	return nil
}

func mapGameWriteError(err error) error {
	if errors.Is(err, repository.ErrUnknownCategory) {
		return models.NewValidationError("categoryIds contains an unknown category")
	}
	return err
}

func clampLimit(limit int) int {
	if limit < 1 {
		return defaultGameListLimit
	}
	if limit > maxGameListLimit {
		return maxGameListLimit
	}
	return limit
}
