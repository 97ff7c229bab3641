// Package staging bridges the checkout form and the payment step. A
// staged checkout is a short-lived snapshot, never a durable order:
// nothing reaches the orders table until payment settles.
package staging

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/karimsaleh/freshbasket-backend/internal/cart"
	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
	"github.com/karimsaleh/freshbasket-backend/pkg/types"
)

// Record is the snapshot captured at checkout submission. Cart
// mutations after staging never alter it.
type Record struct {
	Token           string                 `json:"token"`
	UserID          *uuid.UUID             `json:"userId,omitempty"`
	SessionToken    string                 `json:"sessionToken,omitempty"`
	CustomerName    string                 `json:"customerName"`
	Phone           string                 `json:"phone"`
	DeliveryMethod  enums.DeliveryMethod   `json:"deliveryMethod"`
	ShippingAddress *types.ShippingAddress `json:"shippingAddress,omitempty"`
	PickupLocation  *string                `json:"pickupLocation,omitempty"`
	Lines           []cart.Line            `json:"lines"`
	Subtotal        decimal.Decimal        `json:"subtotal"`
	ServiceFee      decimal.Decimal        `json:"serviceFee"`
	DeliveryFee     decimal.Decimal        `json:"deliveryFee"`
	Total           decimal.Decimal        `json:"total"`
	Currency        enums.Currency         `json:"currency"`
	CreatedAt       time.Time              `json:"createdAt"`
}

// Store holds staged checkouts keyed by token. Consume is atomic:
// exactly one caller gets the record, concurrent consumers see
// not-found. Records expire after the configured TTL.
type Store interface {
	Put(ctx context.Context, record *Record, ttl time.Duration) error
	Get(ctx context.Context, token string) (*Record, error)
	Consume(ctx context.Context, token string) (*Record, error)
}
