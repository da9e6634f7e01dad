package repo

import (
	"context"
	"database/sql"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/product_rating/internal/models"
)

var defaultProductOrder = []clause.OrderByColumn{{Column: clause.Column{Name: "id"}}}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) GetProducts(ctx context.Context, order []clause.OrderByColumn, offset, limit int) (int64, []models.Product, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	if len(order) == 0 {
		order = defaultProductOrder
	}
	items := make([]models.Product, 0, limit)
	if err := r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Order(clause.OrderBy{Columns: order}).
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return total, items, nil
}

// GetProductsByIDs returns products in the order of ids, skipping ids that no longer exist.
func (r *GormRepo) GetProductsByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var found []models.Product
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// ProductNameTaken reports whether another product already uses name.
func (r *GormRepo) ProductNameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	if excludeID == 0 {
		return r.exists(ctx, &models.Product{}, "name = ?", name)
	}
	return r.exists(ctx, &models.Product{}, "name = ? AND id <> ?", name, excludeID)
}

func (r *GormRepo) ProductExists(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, &models.Product{}, "id = ?", id)
}

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) error {
	return r.DB.WithContext(ctx).Create(prod).Error
}

func (r *GormRepo) SaveProduct(ctx context.Context, prod *models.Product) error {
	return r.DB.WithContext(ctx).Save(prod).Error
}

func (r *GormRepo) SetProductRating(ctx context.Context, prod *models.Product, rating float64) error {
	prod.Rating = rating
	return r.DB.WithContext(ctx).Model(prod).Select("rating", "updated_at").Updates(prod).Error
}

// DeleteProduct removes the product and its ratings. It returns
// gorm.ErrRecordNotFound when no product has the given id.
func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	if err := r.DB.WithContext(ctx).Where("product_id = ?", id).Delete(&models.Rating{}).Error; err != nil {
		return err
	}
	return deleteByID(r.DB.WithContext(ctx), &models.Product{}, id)
}

// AverageRating returns AVG(rating) over the product's ratings; Valid is
// false when the product has none.
func (r *GormRepo) AverageRating(ctx context.Context, productID uint) (sql.NullFloat64, error) {
	var avg sql.NullFloat64
	err := r.DB.WithContext(ctx).
		Model(&models.Rating{}).
		Select("AVG(CAST(rating AS FLOAT))").
		Where("product_id = ?", productID).
		Row().
		Scan(&avg)
	return avg, err
}

// SearchProducts is the database fallback for product search: a
// case-insensitive substring match on name.
func (r *GormRepo) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	where := "LOWER(name) LIKE ? ESCAPE '\\'"

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Where(where, pattern).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, limit)
	if err := r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Where(where, pattern).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func deleteByID(db *gorm.DB, model any, id uint) error {
	res := db.Delete(model, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
