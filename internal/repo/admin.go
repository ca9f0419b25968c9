package repo

import (
	"context"

	"github.com/Skotchmaster/headphones_shop/internal/models"
)

func (r *GormRepo) AdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var a models.Admin
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormRepo) AdminByID(ctx context.Context, id uint) (*models.Admin, error) {
	var a models.Admin
	if err := r.DB.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormRepo) CreateAdmin(ctx context.Context, a *models.Admin) error {
	return r.DB.WithContext(ctx).Create(a).Error
}
