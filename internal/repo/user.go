package repo

import (
	"context"

	"github.com/Skotchmaster/product_rating/internal/models"
)

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Create(u).Error
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) UserExists(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, &models.User{}, "id = ?", id)
}

func (r *GormRepo) EmailTaken(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, &models.User{}, "email = ?", email)
}

// DeleteUser removes the user and, with it, every rating they submitted.
func (r *GormRepo) DeleteUser(ctx context.Context, id uint) error {
	return r.Transaction(ctx, func(tx *GormRepo) error {
		if err := tx.DB.Where("user_id = ?", id).Delete(&models.Rating{}).Error; err != nil {
			return err
		}
		return deleteByID(tx.DB, &models.User{}, id)
	})
}
