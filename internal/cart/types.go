package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/karimsaleh/freshbasket-backend/internal/pricing"
	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
)

// Owner identifies the shopper a cart belongs to. Registered users
// carry a UserID and persist rows; guests carry only a session token
// and live in redis until login or checkout.
type Owner struct {
	UserID       *uuid.UUID
	SessionToken string
}

// IsGuest reports whether the owner is an anonymous session.
func (o Owner) IsGuest() bool {
	return o.UserID == nil
}

// Line is one cart line. Price is the catalog snapshot taken when the
// line was added: per piece for unit lines, per kilogram for
// custom-weight lines, and the final line total for locked
// fixed-weight units.
type Line struct {
	ProductID     uuid.UUID           `json:"productId"`
	ProductName   string              `json:"productName"`
	Image         *string             `json:"image,omitempty"`
	SellingMethod enums.SellingMethod `json:"sellingMethod"`
	Price         decimal.Decimal     `json:"price"`
	Quantity      int                 `json:"quantity"`
	WeightKg      *float64            `json:"weightKg,omitempty"`
	Locked        bool                `json:"locked"`
}

// Snapshot is a cart's contents with the derived total. Total is
// recomputed server-side on every read and write.
type Snapshot struct {
	Lines []Line          `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// IsEmpty reports whether the snapshot holds no lines.
func (s *Snapshot) IsEmpty() bool {
	return s == nil || len(s.Lines) == 0
}

func (l Line) pricingItem() pricing.Item {
	weight := 0.0
	if l.WeightKg != nil {
		weight = *l.WeightKg
	}
	return pricing.Item{
		SellingMethod: l.SellingMethod,
		Price:         l.Price,
		Quantity:      l.Quantity,
		WeightKg:      weight,
		Locked:        l.Locked,
	}
}

// PricingItems converts the lines for the pricing calculator.
func (s *Snapshot) PricingItems() []pricing.Item {
	items := make([]pricing.Item, 0, len(s.Lines))
	for _, line := range s.Lines {
		items = append(items, line.pricingItem())
	}
	return items
}

func computeTotal(lines []Line) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, line := range lines {
		lineTotal, err := pricing.LineTotal(line.pricingItem())
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(lineTotal)
	}
	return total, nil
}
