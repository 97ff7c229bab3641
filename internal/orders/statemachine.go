package orders

import (
	"fmt"
	"time"

	"github.com/karimsaleh/freshbasket-backend/pkg/db/models"
	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
	apperrors "github.com/karimsaleh/freshbasket-backend/pkg/errors"
)

// allowedTransitions is the status graph. Delivered is reachable from
// any non-delivered state; leaving delivered is handled separately
// because the landing status depends on payment history.
var allowedTransitions = map[enums.OrderStatus]map[enums.OrderStatus]bool{
	enums.OrderStatusPending: {
		enums.OrderStatusPaid:      true,
		enums.OrderStatusCancelled: true,
		enums.OrderStatusDelivered: true,
	},
	enums.OrderStatusPaid: {
		enums.OrderStatusShipped:   true,
		enums.OrderStatusCancelled: true,
		enums.OrderStatusDelivered: true,
		enums.OrderStatusPending:   true,
	},
	enums.OrderStatusShipped: {
		enums.OrderStatusDelivered: true,
	},
	enums.OrderStatusDelivered: {
		enums.OrderStatusPaid:    true,
		enums.OrderStatusPending: true,
	},
	enums.OrderStatusCancelled: {
		enums.OrderStatusDelivered: true,
	},
}

// Flags is the administrative view of an order's lifecycle, derived
// from status so the booleans can never drift from it. Exactly one
// flag is true for any order.
type Flags struct {
	IsPending   bool `json:"isPending"`
	IsPaid      bool `json:"isPaid"`
	IsShipped   bool `json:"isShipped"`
	IsDelivered bool `json:"isDelivered"`
	IsCancelled bool `json:"isCancelled"`
}

// DeriveFlags maps a status to its administrative flags.
func DeriveFlags(status enums.OrderStatus) Flags {
	switch status {
	case enums.OrderStatusPending:
		return Flags{IsPending: true}
	case enums.OrderStatusPaid:
		return Flags{IsPaid: true}
	case enums.OrderStatusShipped:
		return Flags{IsShipped: true}
	case enums.OrderStatusDelivered:
		return Flags{IsDelivered: true}
	case enums.OrderStatusCancelled:
		return Flags{IsCancelled: true}
	default:
		return Flags{}
	}
}

// ApplyTransition mutates the order in place for an allowed status
// change, or returns a state-conflict error naming the rejected pair.
//
// Side effects follow the lifecycle rules: entering paid or delivered
// asserts payment; delivering self-heals an unpaid order rather than
// rejecting it; leaving delivered lands on paid or pending depending
// on payment history; unpaying a delivered order is forbidden.
func ApplyTransition(order *models.Order, target enums.OrderStatus, now time.Time) error {
	if order == nil {
		return apperrors.New(apperrors.CodeInternal, "order is required")
	}
	if !target.IsValid() {
		return apperrors.New(apperrors.CodeValidation, "unknown order status")
	}
	from := order.Status
	if from == target {
		return nil
	}
	if !allowedTransitions[from][target] {
		return invalidTransition(from, target)
	}

	// Unpaying a delivered order is unreachable by construction: the
	// only pending-ward edge out of delivered is guarded below.
	if target == enums.OrderStatusPending && order.IsDelivered && from != enums.OrderStatusDelivered {
		return invalidTransition(from, target)
	}

	switch target {
	case enums.OrderStatusPaid:
		markPaid(order, now)
		if from == enums.OrderStatusDelivered {
			clearDelivered(order)
		}

	case enums.OrderStatusShipped:
		// Re-asserts payment; idempotent when already paid.
		markPaid(order, now)

	case enums.OrderStatusDelivered:
		markPaid(order, now)
		order.IsDelivered = true
		deliveredAt := now
		order.DeliveredAt = &deliveredAt

	case enums.OrderStatusPending:
		if from == enums.OrderStatusDelivered {
			// Undelivering lands on paid when paid, pending otherwise.
			clearDelivered(order)
			if order.IsPaid {
				order.Status = enums.OrderStatusPaid
				return nil
			}
		} else if order.IsPaid {
			// paid -> pending is the unpay edge; delivered orders
			// never reach here.
			order.IsPaid = false
			order.PaidAt = nil
		}

	case enums.OrderStatusCancelled:
		// Payment and delivery flags stay as historical fact.
		cancelledAt := now
		order.CancelledAt = &cancelledAt
	}

	order.Status = target
	return nil
}

func markPaid(order *models.Order, now time.Time) {
	if order.IsPaid {
		return
	}
	order.IsPaid = true
	paidAt := now
	order.PaidAt = &paidAt
}

func clearDelivered(order *models.Order) {
	order.IsDelivered = false
	order.DeliveredAt = nil
}

func invalidTransition(from, to enums.OrderStatus) error {
	return apperrors.New(apperrors.CodeStateConflict,
		fmt.Sprintf("cannot transition order from %s to %s", from, to))
}
