package payments

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
)

// DefaultPollInterval matches the storefront's payment screen
// cadence.
const DefaultPollInterval = 3 * time.Second

// Poller drives status polls for one transaction on a fixed cadence
// until a terminal status or cancellation. An in-flight guard skips
// ticks that fire while the previous poll is still running, so
// overlapping polls for the same transaction never start.
type Poller struct {
	svc      Service
	interval time.Duration
}

// NewPoller builds a poller over the payment service.
func NewPoller(svc Service, interval time.Duration) (*Poller, error) {
	if svc == nil {
		return nil, fmt.Errorf("payment service required")
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{svc: svc, interval: interval}, nil
}

// Run polls until the transaction reaches a terminal status or ctx is
// cancelled, and returns the last observed result. onPaid fires once,
// synchronously, when the status first reads paid; its error is
// returned to the caller because a failed materialization after a
// settled payment must never be swallowed.
//
// Cancellation stops polling only. The processor-side transaction
// keeps its own lifecycle; the reconcile worker picks up payments
// that settle after the shopper navigated away.
func (p *Poller) Run(ctx context.Context, transactionID string, onPaid func(ctx context.Context, txn *Transaction) error) (*StatusResult, error) {
	var inFlight atomic.Bool

	// First poll fires immediately, matching the payment screen.
	result, err := p.tick(ctx, transactionID, &inFlight, onPaid)
	if err != nil {
		return nil, err
	}
	if result != nil && result.Status.IsTerminal() {
		return result, nil
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	last := result
	for {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
			result, err := p.tick(ctx, transactionID, &inFlight, onPaid)
			if err != nil {
				return nil, err
			}
			if result == nil {
				continue // previous poll still in flight
			}
			last = result
			if result.Status.IsTerminal() {
				return result, nil
			}
		}
	}
}

func (p *Poller) tick(ctx context.Context, transactionID string, inFlight *atomic.Bool, onPaid func(ctx context.Context, txn *Transaction) error) (*StatusResult, error) {
	if !inFlight.CompareAndSwap(false, true) {
		return nil, nil
	}
	defer inFlight.Store(false)

	result, err := p.svc.PollStatus(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if result.Status == enums.PaymentStatusPaid && onPaid != nil {
		txn, err := p.svc.GetTransaction(ctx, transactionID)
		if err != nil {
			return nil, err
		}
		if err := onPaid(ctx, txn); err != nil {
			return nil, err
		}
	}
	return result, nil
}
