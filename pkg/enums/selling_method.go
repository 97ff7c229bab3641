package enums

import "fmt"

// SellingMethod describes how a cart line is priced: per unit, by a buyer-chosen
// weight, or as a pre-measured fixed-weight inventory unit whose weight is frozen.
type SellingMethod string

const (
	SellingMethodUnit         SellingMethod = "unit"
	SellingMethodWeightCustom SellingMethod = "weight_custom"
	SellingMethodWeightFixed  SellingMethod = "weight_fixed"
)

var validSellingMethods = []SellingMethod{
	SellingMethodUnit,
	SellingMethodWeightCustom,
	SellingMethodWeightFixed,
}

// String implements fmt.Stringer.
func (s SellingMethod) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SellingMethod.
func (s SellingMethod) IsValid() bool {
	for _, candidate := range validSellingMethods {
		if candidate == s {
			return true
		}
	}
	return false
}

// ByWeight reports whether the line is priced against a weight.
func (s SellingMethod) ByWeight() bool {
	return s == SellingMethodWeightCustom || s == SellingMethodWeightFixed
}

// ParseSellingMethod converts raw input into a SellingMethod.
func ParseSellingMethod(value string) (SellingMethod, error) {
	for _, candidate := range validSellingMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid selling method %q", value)
}
