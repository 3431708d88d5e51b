package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog listing.
type Product struct {
	ID              int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Name            string          `gorm:"column:name;size:255;not null"`
	Description     *string         `gorm:"column:description"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	ImageURL        *string         `gorm:"column:image_url;size:500"`
	CategoryID      *int64          `gorm:"column:category_id;index"`
	Category        *Category       `gorm:"foreignKey:CategoryID"`
	StockQuantity   int             `gorm:"column:stock_quantity;not null;default:0"`
	Rating          float64         `gorm:"column:rating;not null;default:0"`
	IsFeatured      bool            `gorm:"column:is_featured;not null;default:false"`
	IsActive        bool            `gorm:"column:is_active;not null;default:true"`
	DiscountPercent int             `gorm:"column:discount_percent;not null;default:0"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
