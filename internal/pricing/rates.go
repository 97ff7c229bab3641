package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/karimsaleh/freshbasket-backend/pkg/config"
)

// RatesFromConfig parses the configured pricing constants.
func RatesFromConfig(cfg config.CheckoutConfig) (Rates, error) {
	serviceFeeRate, err := decimal.NewFromString(cfg.ServiceFeeRate)
	if err != nil {
		return Rates{}, fmt.Errorf("parsing service fee rate %q: %w", cfg.ServiceFeeRate, err)
	}
	deliveryFee, err := decimal.NewFromString(cfg.DeliveryFee)
	if err != nil {
		return Rates{}, fmt.Errorf("parsing delivery fee %q: %w", cfg.DeliveryFee, err)
	}
	threshold, err := decimal.NewFromString(cfg.FreeDeliveryThreshold)
	if err != nil {
		return Rates{}, fmt.Errorf("parsing free delivery threshold %q: %w", cfg.FreeDeliveryThreshold, err)
	}
	return Rates{
		ServiceFeeRate:        serviceFeeRate,
		DeliveryFee:           deliveryFee,
		FreeDeliveryThreshold: threshold,
	}, nil
}
