package repository

import (
	"context"
	"fmt"

	"playhub/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	List(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id string) (*models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id string) (bool, error)
	// GameIDs lists the games linked to the category.
	GameIDs(ctx context.Context, id string) ([]string, error)
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepository) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, models.NewNotFoundError("Category", id)
		}
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) Update(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Model(category).Select("name", "icon").Updates(category).Error
}

func (r *categoryRepository) GameIDs(ctx context.Context, id string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.GameCategory{}).
		Where("category_id = ?", id).
		Pluck("game_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list category games: %w", err)
	}
	return ids, nil
}

// Delete removes the category and unlinks it from every game.
func (r *categoryRepository) Delete(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category_id = ?", id).Delete(&models.GameCategory{}).Error; err != nil {
			return fmt.Errorf("unlink category: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&models.Category{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	return deleted, err
}
