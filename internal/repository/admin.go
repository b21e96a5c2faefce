package repository

import (
	"context"
	"fmt"

	"playhub/internal/models"

	"gorm.io/gorm"
)

// AdminRepository defines persistence operations for admin accounts and their session hash.
type AdminRepository interface {
	Create(ctx context.Context, admin *models.Admin) error
	GetByID(ctx context.Context, id string) (*models.Admin, error)
	GetByUsername(ctx context.Context, username string) (*models.Admin, error)
	List(ctx context.Context) ([]models.Admin, error)
	SetTokenHash(ctx context.Context, id string, hash *string) error
}

type adminRepository struct {
	db *gorm.DB
}

// NewAdminRepository returns a new AdminRepository implementation.
func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) Create(ctx context.Context, admin *models.Admin) error {
	if err := r.db.WithContext(ctx).Create(admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", classifyWriteError(err))
	}
	return nil
}

func (r *adminRepository) GetByID(ctx context.Context, id string) (*models.Admin, error) {
	var admin models.Admin
	if err := r.db.WithContext(ctx).First(&admin, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, models.NewNotFoundError("Admin", id)
		}
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var admin models.Admin
	if err := r.db.WithContext(ctx).First(&admin, "username = ?", username).Error; err != nil {
		if isNotFound(err) {
			return nil, models.NewNotFoundError("Admin", username)
		}
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepository) List(ctx context.Context) ([]models.Admin, error) {
	var admins []models.Admin
	err := r.db.WithContext(ctx).Order("username ASC").Find(&admins).Error
	return admins, err
}

// SetTokenHash stores the hash of the admin's active token. A nil hash revokes the session.
func (r *adminRepository) SetTokenHash(ctx context.Context, id string, hash *string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Admin{}).
		Where("id = ?", id).
		Update("current_token_hash", hash)
	if result.Error != nil {
		return fmt.Errorf("set admin token hash: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Admin", id)
	}
	return nil
}
