package repository

import (
	"context"
	"fmt"

	"playhub/internal/models"

	"gorm.io/gorm"
)

// PageRepository defines persistence operations for static pages.
type PageRepository interface {
	Create(ctx context.Context, page *models.Page) error
	List(ctx context.Context, publishedOnly bool) ([]models.Page, error)
	GetByID(ctx context.Context, id string) (*models.Page, error)
	GetBySlug(ctx context.Context, slug string) (*models.Page, error)
	Update(ctx context.Context, page *models.Page) error
	Delete(ctx context.Context, id string) (bool, error)
}

type pageRepository struct {
	db *gorm.DB
}

// NewPageRepository creates a new PageRepository
func NewPageRepository(db *gorm.DB) PageRepository {
	return &pageRepository{db: db}
}

func (r *pageRepository) Create(ctx context.Context, page *models.Page) error {
	if err := r.db.WithContext(ctx).Create(page).Error; err != nil {
		return fmt.Errorf("create page: %w", classifyWriteError(err))
	}
	return nil
}

func (r *pageRepository) List(ctx context.Context, publishedOnly bool) ([]models.Page, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if publishedOnly {
		query = query.Where("publish_status = ?", true)
	}
	var pages []models.Page
	err := query.Find(&pages).Error
	return pages, err
}

func (r *pageRepository) GetByID(ctx context.Context, id string) (*models.Page, error) {
	var page models.Page
	if err := r.db.WithContext(ctx).First(&page, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, models.NewNotFoundError("Page", id)
		}
		return nil, err
	}
	return &page, nil
}

func (r *pageRepository) GetBySlug(ctx context.Context, slug string) (*models.Page, error) {
	var page models.Page
	if err := r.db.WithContext(ctx).First(&page, "slug = ?", slug).Error; err != nil {
		if isNotFound(err) {
			return nil, models.NewNotFoundError("Page", slug)
		}
		return nil, err
	}
	return &page, nil
}

func (r *pageRepository) Update(ctx context.Context, page *models.Page) error {
	err := r.db.WithContext(ctx).
		Model(page).
		Select("title", "slug", "html_content", "publish_status").
		Updates(page).Error
	if err != nil {
		return fmt.Errorf("update page: %w", classifyWriteError(err))
	}
	return nil
}

func (r *pageRepository) Delete(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Page{})
	return result.RowsAffected > 0, result.Error
}
