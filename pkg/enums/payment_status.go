package enums

import "fmt"

// PaymentStatus is the canonical state of a payment transaction. Processor-specific
// codes are translated into this set at the gateway boundary.
type PaymentStatus string

const (
	PaymentStatusRequesting PaymentStatus = "requesting"
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusPaid       PaymentStatus = "paid"
	PaymentStatusExpired    PaymentStatus = "expired"
	PaymentStatusError      PaymentStatus = "error"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusRequesting,
	PaymentStatusPending,
	PaymentStatusPaid,
	PaymentStatusExpired,
	PaymentStatusError,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether polling should stop for this status.
func (p PaymentStatus) IsTerminal() bool {
	switch p {
	case PaymentStatusPaid, PaymentStatusExpired, PaymentStatusError:
		return true
	default:
		return false
	}
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
