package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
)

// Product represents a storefront listing. Price is per piece for
// unit-sold products and per kilogram for weight-sold ones.
type Product struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU                string              `gorm:"column:sku;not null;uniqueIndex"`
	Name               string              `gorm:"column:name;not null"`
	NameAr             *string             `gorm:"column:name_ar"`
	Description        *string             `gorm:"column:description"`
	Category           string              `gorm:"column:category;not null;index"`
	Images             pq.StringArray      `gorm:"column:images;type:text[];not null;default:ARRAY[]::text[]"`
	SellingMethod      enums.SellingMethod `gorm:"column:selling_method;type:text;not null"`
	Price              decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	Currency           enums.Currency      `gorm:"column:currency;type:text;not null;default:'EGP'"`
	WeightUnit         *enums.WeightUnit   `gorm:"column:weight_unit;type:text"`
	FixedWeightOptions pq.Float64Array     `gorm:"column:fixed_weight_options;type:numeric[];not null;default:ARRAY[]::numeric[]"`
	MinWeightKg        *float64            `gorm:"column:min_weight_kg;type:numeric(8,3)"`
	MaxWeightKg        *float64            `gorm:"column:max_weight_kg;type:numeric(8,3)"`
	IsActive           bool                `gorm:"column:is_active;not null;default:true"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
