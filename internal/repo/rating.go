package repo

import (
	"context"

	"github.com/Skotchmaster/product_rating/internal/models"
)

func (r *GormRepo) GetRating(ctx context.Context, id uint) (*models.Rating, error) {
	var rating models.Rating
	if err := r.DB.WithContext(ctx).First(&rating, id).Error; err != nil {
		return nil, err
	}
	return &rating, nil
}

func (r *GormRepo) GetRatings(ctx context.Context, offset, limit int) (int64, []models.Rating, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Rating{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Rating, 0, limit)
	if err := r.DB.WithContext(ctx).
		Model(&models.Rating{}).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// RatingPairTaken reports whether userID already rated productID, ignoring
// the rating with excludeID.
func (r *GormRepo) RatingPairTaken(ctx context.Context, userID, productID, excludeID uint) (bool, error) {
	if excludeID == 0 {
		return r.exists(ctx, &models.Rating{}, "user_id = ? AND product_id = ?", userID, productID)
	}
	return r.exists(ctx, &models.Rating{}, "user_id = ? AND product_id = ? AND id <> ?", userID, productID, excludeID)
}

func (r *GormRepo) CreateRating(ctx context.Context, rating *models.Rating) error {
	return r.DB.WithContext(ctx).Create(rating).Error
}

func (r *GormRepo) SaveRating(ctx context.Context, rating *models.Rating) error {
	return r.DB.WithContext(ctx).Save(rating).Error
}

func (r *GormRepo) DeleteRating(ctx context.Context, id uint) error {
	return deleteByID(r.DB.WithContext(ctx), &models.Rating{}, id)
}
