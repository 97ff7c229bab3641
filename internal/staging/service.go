package staging

import (
	"context"
	"fmt"
	"time"

	"github.com/karimsaleh/freshbasket-backend/internal/cart"
	"github.com/karimsaleh/freshbasket-backend/internal/pricing"
	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
	apperrors "github.com/karimsaleh/freshbasket-backend/pkg/errors"
	"github.com/karimsaleh/freshbasket-backend/pkg/types"
)

type cartReader interface {
	Get(ctx context.Context, owner cart.Owner) (*cart.Snapshot, error)
}

// Service stages checkouts: it snapshots the cart with its quote and
// parks the result until payment settles or the TTL runs out.
type Service interface {
	Stage(ctx context.Context, owner cart.Owner, input StageInput) (*Record, error)
	Retrieve(ctx context.Context, token string) (*Record, error)
	Quote(ctx context.Context, owner cart.Owner, method enums.DeliveryMethod) (*pricing.Quote, error)
}

type service struct {
	carts cartReader
	store Store
	rates pricing.Rates
	ttl   time.Duration
	now   func() time.Time
}

// NewService builds the staging service.
func NewService(carts cartReader, store Store, rates pricing.Rates, ttl time.Duration) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart reader required")
	}
	if store == nil {
		return nil, fmt.Errorf("staging store required")
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &service{
		carts: carts,
		store: store,
		rates: rates,
		ttl:   ttl,
		now:   time.Now,
	}, nil
}

// StageInput is the checkout form payload.
type StageInput struct {
	CustomerName    string
	Phone           string
	DeliveryMethod  enums.DeliveryMethod
	ShippingAddress *types.ShippingAddress
	PickupLocation  *string
}

// Quote prices the current cart for the chosen delivery method
// without staging anything.
func (s *service) Quote(ctx context.Context, owner cart.Owner, method enums.DeliveryMethod) (*pricing.Quote, error) {
	snapshot, err := s.carts.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	if snapshot.IsEmpty() {
		return nil, apperrors.New(apperrors.CodeValidation, "cart is empty")
	}
	return pricing.Compute(snapshot.PricingItems(), method, s.rates)
}

// Stage snapshots the cart and checkout form into a consumable
// record. The cart itself is left untouched until materialization.
func (s *service) Stage(ctx context.Context, owner cart.Owner, input StageInput) (*Record, error) {
	if err := validateStageInput(input); err != nil {
		return nil, err
	}

	snapshot, err := s.carts.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	if snapshot.IsEmpty() {
		return nil, apperrors.New(apperrors.CodeValidation, "cart is empty")
	}

	quote, err := pricing.Compute(snapshot.PricingItems(), input.DeliveryMethod, s.rates)
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := &Record{
		Token:           NewToken(now),
		UserID:          owner.UserID,
		SessionToken:    owner.SessionToken,
		CustomerName:    input.CustomerName,
		Phone:           input.Phone,
		DeliveryMethod:  input.DeliveryMethod,
		ShippingAddress: input.ShippingAddress,
		PickupLocation:  input.PickupLocation,
		Lines:           snapshot.Lines,
		Subtotal:        quote.Subtotal,
		ServiceFee:      quote.ServiceFee,
		DeliveryFee:     quote.DeliveryFee,
		Total:           quote.Total,
		Currency:        quote.Currency,
		CreatedAt:       now,
	}

	if err := s.store.Put(ctx, record, s.ttl); err != nil {
		return nil, err
	}
	return record, nil
}

// Retrieve loads a staged checkout without consuming it. Callers get
// a not-found when the token expired and must send the shopper back
// to the cart rather than proceed with partial data.
func (s *service) Retrieve(ctx context.Context, token string) (*Record, error) {
	if !ValidToken(token) {
		return nil, apperrors.New(apperrors.CodeValidation, "malformed staging token")
	}
	return s.store.Get(ctx, token)
}

func validateStageInput(input StageInput) error {
	if input.CustomerName == "" {
		return apperrors.New(apperrors.CodeValidation, "customer name is required")
	}
	if len(normalizeDigits(input.Phone)) < 8 {
		return apperrors.New(apperrors.CodeValidation, "a valid phone number is required")
	}
	if !input.DeliveryMethod.IsValid() {
		return apperrors.New(apperrors.CodeValidation, "unknown delivery method")
	}
	if input.DeliveryMethod == enums.DeliveryMethodDelivery && input.ShippingAddress == nil {
		return apperrors.New(apperrors.CodeValidation, "shipping address is required for delivery")
	}
	return nil
}

func normalizeDigits(value string) string {
	digits := make([]rune, 0, len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	return string(digits)
}
