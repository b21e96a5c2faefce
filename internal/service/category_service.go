package service

import (
	"context"
	"strings"

	"playhub/internal/cache"
	"playhub/internal/models"
	"playhub/internal/repository"
	"playhub/internal/validation"
)

const maxCategoryNameLength = 100

// CategoryService provides category management.
type CategoryService struct {
	categories repository.CategoryRepository
}

// NewCategoryService returns a new CategoryService.
func NewCategoryService(categories repository.CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

type CategoryInput struct {
	Name *string `json:"name"`
	Icon *string `json:"icon"`
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	category := &models.Category{}
	if in.Name == nil {
		return nil, models.NewValidationError("name is required")
	}
	if err := applyCategoryInput(category, in); err != nil {
		return nil, err
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.categories.List(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id string) (*models.Category, error) {
	return s.categories.GetByID(ctx, id)
}

func (s *CategoryService) Update(ctx context.Context, id string, in CategoryInput) (*models.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyCategoryInput(category, in); err != nil {
		return nil, err
	}
	gameIDs, err := s.categories.GameIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, err
	}
	cache.InvalidateGame(ctx, gameIDs...)
	return category, nil
}

// Delete removes a category; games that used it simply lose the link.
// Cached game details embed their categories, so linked games are dropped from the cache.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	gameIDs, err := s.categories.GameIDs(ctx, id)
	if err != nil {
		return err
	}
	deleted, err := s.categories.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("Category", id)
	}
	cache.InvalidateGame(ctx, gameIDs...)
	return nil
}

func applyCategoryInput(category *models.Category, in CategoryInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return models.NewValidationError("name is required")
		}
		if len(name) > maxCategoryNameLength {
			return models.NewValidationError("name must not exceed 100 characters")
		}
		category.Name = name
	}
	if in.Icon != nil {
		icon := strings.TrimSpace(*in.Icon)
		if err := validation.ValidateLink("icon", icon); err != nil {
			return models.NewValidationError(err.Error())
		}
		category.Icon = icon
	}
	return nil
}
