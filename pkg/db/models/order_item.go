package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
)

// OrderItem snapshots a cart line at materialization time. Prices are
// frozen here so later catalog edits never change order history.
type OrderItem struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID     uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	ProductName   string              `gorm:"column:product_name;not null"`
	SellingMethod enums.SellingMethod `gorm:"column:selling_method;type:text;not null"`
	Quantity      int                 `gorm:"column:quantity;not null;default:1"`
	WeightKg      *float64            `gorm:"column:weight_kg;type:numeric(8,3)"`
	UnitPrice     decimal.Decimal     `gorm:"column:unit_price;type:numeric(12,2);not null"`
	LineTotal     decimal.Decimal     `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}
