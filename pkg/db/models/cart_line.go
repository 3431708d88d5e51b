package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineVariant is one stored variant selector.
type LineVariant struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CartLine persists one cart line. Position keeps insertion order.
type CartLine struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CartID    uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;index"`
	LineKey   string          `gorm:"column:line_key;not null"`
	Position  int             `gorm:"column:position;not null"`
	ProductID int64           `gorm:"column:product_id;not null"`
	Name      string          `gorm:"column:name"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	Variants  []LineVariant   `gorm:"column:variants;type:jsonb;serializer:json"`
	StockHint *int            `gorm:"column:stock_hint"`
	AddedAt   time.Time       `gorm:"column:added_at;not null"`
}
