package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"        json:"id"`
	Email       string `gorm:"size:255;uniqueIndex;not null"   json:"email"`
	Name        string `gorm:"size:255;not null;default:''"    json:"name"`
	IsActive    bool   `gorm:"not null;default:true"           json:"is_active"`
	IsStaff     bool   `gorm:"not null;default:false"          json:"is_staff"`
	IsSuperuser bool   `gorm:"not null;default:false"          json:"is_superuser"`
	Password    string `gorm:"size:255;not null"               json:"-"`

	Ratings []Rating `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
}

type Product struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"       json:"id"`
	Name      string          `gorm:"size:255;uniqueIndex;not null"  json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(7,2);not null"     json:"price"`
	Rating    float64         `gorm:"not null"                       json:"rating"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime"                 json:"updated_at"`

	// ProductRating is the back-reference used by the average computation.
	ProductRating []Rating `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE;" json:"-"`
}

type Rating struct {
	ID        uint `gorm:"primaryKey;autoIncrement"                          json:"id"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_ratings_user_product"     json:"user"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_ratings_user_product;index" json:"product"`
	Rating    int  `gorm:"not null"                                          json:"rating"`
}

func (Rating) TableName() string {
	return "ratings"
}

// All lists every model in migration order.
func All() []any {
	return []any{&User{}, &Product{}, &Rating{}}
}
