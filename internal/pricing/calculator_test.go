package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
	apperrors "github.com/karimsaleh/freshbasket-backend/pkg/errors"
)

func testRates() Rates {
	return Rates{
		ServiceFeeRate:        decimal.RequireFromString("0.03"),
		DeliveryFee:           decimal.RequireFromString("15"),
		FreeDeliveryThreshold: decimal.RequireFromString("450"),
	}
}

func TestComputePickupHappyPath(t *testing.T) {
	quote, err := Compute([]Item{
		{SellingMethod: enums.SellingMethodUnit, Price: decimal.NewFromInt(100), Quantity: 2},
	}, enums.DeliveryMethodPickup, testRates())
	require.NoError(t, err)

	assert.True(t, quote.Subtotal.Equal(decimal.NewFromInt(200)), "subtotal %s", quote.Subtotal)
	assert.True(t, quote.ServiceFee.Equal(decimal.NewFromInt(6)), "service fee %s", quote.ServiceFee)
	assert.True(t, quote.DeliveryFee.IsZero(), "delivery fee %s", quote.DeliveryFee)
	assert.True(t, quote.Total.Equal(decimal.NewFromInt(206)), "total %s", quote.Total)
}

func TestComputeDeliveryUnderThreshold(t *testing.T) {
	quote, err := Compute([]Item{
		{SellingMethod: enums.SellingMethodUnit, Price: decimal.NewFromInt(100), Quantity: 1},
	}, enums.DeliveryMethodDelivery, testRates())
	require.NoError(t, err)

	assert.True(t, quote.DeliveryFee.Equal(decimal.NewFromInt(15)))
	assert.True(t, quote.ServiceFee.Equal(decimal.NewFromInt(3)))
	assert.True(t, quote.Total.Equal(decimal.NewFromInt(118)))
}

func TestComputeDeliveryAtThresholdIsFree(t *testing.T) {
	quote, err := Compute([]Item{
		{SellingMethod: enums.SellingMethodUnit, Price: decimal.NewFromInt(450), Quantity: 1},
	}, enums.DeliveryMethodDelivery, testRates())
	require.NoError(t, err)

	assert.True(t, quote.DeliveryFee.IsZero())
}

func TestComputeInvariantTotalEqualsParts(t *testing.T) {
	quote, err := Compute([]Item{
		{SellingMethod: enums.SellingMethodUnit, Price: decimal.RequireFromString("33.33"), Quantity: 3},
		{SellingMethod: enums.SellingMethodWeightCustom, Price: decimal.RequireFromString("80"), WeightKg: 1.25},
		{SellingMethod: enums.SellingMethodWeightFixed, Price: decimal.RequireFromString("42.50"), Locked: true},
	}, enums.DeliveryMethodDelivery, testRates())
	require.NoError(t, err)

	sum := quote.Subtotal.Add(quote.ServiceFee).Add(quote.DeliveryFee)
	assert.True(t, quote.Total.Equal(sum), "total %s != parts %s", quote.Total, sum)
}

func TestLineTotalWeightCustom(t *testing.T) {
	line, err := LineTotal(Item{
		SellingMethod: enums.SellingMethodWeightCustom,
		Price:         decimal.NewFromInt(60),
		WeightKg:      0.5,
	})
	require.NoError(t, err)
	assert.True(t, line.Equal(decimal.NewFromInt(30)))
}

func TestLineTotalFixedWeightIsFinal(t *testing.T) {
	line, err := LineTotal(Item{
		SellingMethod: enums.SellingMethodWeightFixed,
		Price:         decimal.RequireFromString("87.25"),
		Locked:        true,
	})
	require.NoError(t, err)
	assert.True(t, line.Equal(decimal.RequireFromString("87.25")))
}

func TestLineTotalRejectsBadInputs(t *testing.T) {
	cases := []Item{
		{SellingMethod: enums.SellingMethodUnit, Price: decimal.NewFromInt(10), Quantity: 0},
		{SellingMethod: enums.SellingMethodWeightCustom, Price: decimal.NewFromInt(10), WeightKg: 0.05},
		{SellingMethod: enums.SellingMethod("bundle"), Price: decimal.NewFromInt(10), Quantity: 1},
		{SellingMethod: enums.SellingMethodUnit, Price: decimal.NewFromInt(-1), Quantity: 1},
	}
	for _, item := range cases {
		_, err := LineTotal(item)
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeValidation, apperrors.As(err).Code())
	}
}
