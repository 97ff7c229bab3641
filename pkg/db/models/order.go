package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
	"github.com/karimsaleh/freshbasket-backend/pkg/types"
)

// Order is materialized from a staged checkout only after payment
// settles. StagingToken is unique so a duplicate materialization of
// the same staged checkout hits the constraint instead of creating a
// second order.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SimplifiedID    string                `gorm:"column:simplified_id;not null;uniqueIndex"`
	StagingToken    string                `gorm:"column:staging_token;not null;uniqueIndex"`
	UserID          *uuid.UUID            `gorm:"column:user_id;type:uuid;index"`
	CustomerName    string                `gorm:"column:customer_name;not null"`
	CustomerPhone   string                `gorm:"column:customer_phone;not null;index"`
	Status          enums.OrderStatus     `gorm:"column:status;type:text;not null;default:'pending'"`
	DeliveryMethod  enums.DeliveryMethod  `gorm:"column:delivery_method;type:text;not null"`
	ShippingAddress *types.ShippingAddress `gorm:"column:shipping_address;type:jsonb"`
	Currency        enums.Currency        `gorm:"column:currency;type:text;not null;default:'EGP'"`
	Subtotal        decimal.Decimal       `gorm:"column:subtotal;type:numeric(12,2);not null"`
	ServiceFee      decimal.Decimal       `gorm:"column:service_fee;type:numeric(12,2);not null"`
	DeliveryFee     decimal.Decimal       `gorm:"column:delivery_fee;type:numeric(12,2);not null"`
	Total           decimal.Decimal       `gorm:"column:total;type:numeric(12,2);not null"`
	TransactionID   string                `gorm:"column:transaction_id;not null;index"`
	IsPaid          bool                  `gorm:"column:is_paid;not null;default:false"`
	PaidAt          *time.Time            `gorm:"column:paid_at"`
	IsDelivered     bool                  `gorm:"column:is_delivered;not null;default:false"`
	DeliveredAt     *time.Time            `gorm:"column:delivered_at"`
	CancelledAt     *time.Time            `gorm:"column:cancelled_at"`
	Notes           *string               `gorm:"column:notes"`
	Items           []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
