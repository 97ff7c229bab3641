// Package pricing derives checkout totals from cart contents and the
// chosen delivery method. The calculator is a pure function: totals
// are recomputed on every call, never cached.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
	apperrors "github.com/karimsaleh/freshbasket-backend/pkg/errors"
)

// Item is the pricing view of one cart line. Exactly one pricing
// basis applies: unit lines charge Price times Quantity, custom-weight
// lines charge Price times WeightKg, and locked fixed-weight units
// already carry their final line total in Price.
type Item struct {
	SellingMethod enums.SellingMethod
	Price         decimal.Decimal
	Quantity      int
	WeightKg      float64
	Locked        bool
}

// Quote is the derived fee breakdown for a cart.
type Quote struct {
	Subtotal    decimal.Decimal
	ServiceFee  decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal
	Currency    enums.Currency
}

// Rates holds the tunable pricing constants.
type Rates struct {
	ServiceFeeRate        decimal.Decimal
	DeliveryFee           decimal.Decimal
	FreeDeliveryThreshold decimal.Decimal
}

// LineTotal resolves the single pricing basis for one item.
func LineTotal(item Item) (decimal.Decimal, error) {
	if item.Price.IsNegative() {
		return decimal.Zero, apperrors.New(apperrors.CodeValidation, "item price cannot be negative")
	}
	switch item.SellingMethod {
	case enums.SellingMethodUnit:
		if item.Quantity < 1 {
			return decimal.Zero, apperrors.New(apperrors.CodeValidation, "quantity must be at least 1")
		}
		return item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))), nil
	case enums.SellingMethodWeightCustom:
		if item.WeightKg < 0.1 {
			return decimal.Zero, apperrors.New(apperrors.CodeValidation, "weight must be at least 0.1 kg")
		}
		return item.Price.Mul(decimal.NewFromFloat(item.WeightKg)).Round(2), nil
	case enums.SellingMethodWeightFixed:
		// Price on a locked fixed-weight unit is the final line total.
		return item.Price, nil
	default:
		return decimal.Zero, apperrors.New(apperrors.CodeValidation, "unknown selling method")
	}
}

// Compute derives the full quote. ServiceFee is rounded to two
// decimal places; DeliveryFee applies only for delivery orders under
// the free-delivery threshold.
func Compute(items []Item, method enums.DeliveryMethod, rates Rates) (*Quote, error) {
	if !method.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "unknown delivery method")
	}

	subtotal := decimal.Zero
	for _, item := range items {
		line, err := LineTotal(item)
		if err != nil {
			return nil, err
		}
		subtotal = subtotal.Add(line)
	}

	serviceFee := subtotal.Mul(rates.ServiceFeeRate).Round(2)

	deliveryFee := decimal.Zero
	if method == enums.DeliveryMethodDelivery && subtotal.LessThan(rates.FreeDeliveryThreshold) {
		deliveryFee = rates.DeliveryFee
	}

	return &Quote{
		Subtotal:    subtotal,
		ServiceFee:  serviceFee,
		DeliveryFee: deliveryFee,
		Total:       subtotal.Add(serviceFee).Add(deliveryFee),
		Currency:    enums.CurrencyEGP,
	}, nil
}
