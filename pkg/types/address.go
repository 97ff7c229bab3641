package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ShippingAddress is the delivery destination captured at checkout.
// Stored on orders as a jsonb snapshot so later profile edits do not
// rewrite order history.
type ShippingAddress struct {
	FullName  string  `json:"fullName" validate:"required,min=2,max=120"`
	Phone     string  `json:"phone" validate:"required,min=8,max=20"`
	City      string  `json:"city" validate:"required,max=80"`
	Street    string  `json:"street" validate:"required,max=240"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	Notes     string  `json:"notes,omitempty" validate:"max=500"`
}

// Value implements driver.Valuer for jsonb persistence.
func (a ShippingAddress) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements sql.Scanner for jsonb persistence.
func (a *ShippingAddress) Scan(value any) error {
	if value == nil {
		*a = ShippingAddress{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("unsupported shipping address type %T", value)
	}
}
