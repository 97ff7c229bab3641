package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
)

// CartItem is one line of a registered user's cart. Line identity is
// (cart_id, product_id, weight_kg): the same product at two different
// selected weights is two lines.
//
// Price follows the single-basis rule: unit lines charge price times
// quantity, custom-weight lines charge price times weight, and locked
// fixed-weight units carry their final line total in Price.
type CartItem struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID        uuid.UUID           `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:idx_cart_items_line"`
	ProductID     uuid.UUID           `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_cart_items_line"`
	ProductName   string              `gorm:"column:product_name;not null"`
	Image         *string             `gorm:"column:image"`
	SellingMethod enums.SellingMethod `gorm:"column:selling_method;type:text;not null"`
	Price         decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity      int                 `gorm:"column:quantity;not null;default:1"`
	WeightKg      *float64            `gorm:"column:weight_kg;type:numeric(8,3);uniqueIndex:idx_cart_items_line"`
	Locked        bool                `gorm:"column:locked;not null;default:false"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
