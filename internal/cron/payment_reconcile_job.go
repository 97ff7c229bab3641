package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/karimsaleh/freshbasket-backend/internal/payments"
	"github.com/karimsaleh/freshbasket-backend/pkg/db/models"
	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
	"github.com/karimsaleh/freshbasket-backend/pkg/logger"
)

const defaultReconcileLimit = 250

// pendingLister walks transactions that can still settle.
type pendingLister interface {
	ListPendingIDs(ctx context.Context) ([]string, error)
}

type paymentPoller interface {
	GetTransaction(ctx context.Context, transactionID string) (*payments.Transaction, error)
	PollStatus(ctx context.Context, transactionID string) (*payments.StatusResult, error)
}

type orderMaterializer interface {
	Materialize(ctx context.Context, stagingToken, transactionID string) (*models.Order, error)
}

// PaymentReconcileJobParams configures the payment reconcile cron job.
type PaymentReconcileJobParams struct {
	Logger       *logger.Logger
	Store        pendingLister
	Payments     paymentPoller
	Materializer orderMaterializer
	Limit        int
}

// NewPaymentReconcileJob builds the job that catches payments which
// settled after the shopper navigated away. Each cycle it polls every
// still-pending transaction once and materializes the ones that paid,
// so an abandoned-but-paid checkout still becomes an order before the
// staging record expires.
func NewPaymentReconcileJob(params PaymentReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("transaction store required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payments service required")
	}
	if params.Materializer == nil {
		return nil, fmt.Errorf("materializer required")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultReconcileLimit
	}
	return &paymentReconcileJob{
		logg:         params.Logger,
		store:        params.Store,
		payments:     params.Payments,
		materializer: params.Materializer,
		limit:        limit,
	}, nil
}

type paymentReconcileJob struct {
	logg         *logger.Logger
	store        pendingLister
	payments     paymentPoller
	materializer orderMaterializer
	limit        int
}

func (j *paymentReconcileJob) Name() string { return "payment-reconcile" }

func (j *paymentReconcileJob) Run(ctx context.Context) error {
	ids, err := j.store.ListPendingIDs(ctx)
	if err != nil {
		return fmt.Errorf("list pending transactions: %w", err)
	}
	if len(ids) > j.limit {
		ids = ids[:j.limit]
	}

	var errs error
	scanned := len(ids)
	settled := 0
	for _, id := range ids {
		materialized, err := j.reconcileTransaction(ctx, id)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if materialized {
			settled++
		}
	}

	reportCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": scanned,
		"settled":    settled,
	})
	j.logg.Info(reportCtx, "payment reconcile loop complete")
	return errs
}

func (j *paymentReconcileJob) reconcileTransaction(ctx context.Context, transactionID string) (bool, error) {
	txn, err := j.payments.GetTransaction(ctx, transactionID)
	if err != nil {
		return false, fmt.Errorf("load transaction %s: %w", transactionID, err)
	}
	if txn.IsTerminal() {
		// Index lag: the store already recorded a terminal status.
		return false, nil
	}

	result, err := j.payments.PollStatus(ctx, transactionID)
	if err != nil {
		return false, fmt.Errorf("poll transaction %s: %w", transactionID, err)
	}
	if result.Status != enums.PaymentStatusPaid {
		return false, nil
	}

	if _, err := j.materializer.Materialize(ctx, txn.StagingToken, txn.TransactionID); err != nil {
		return false, fmt.Errorf("materialize transaction %s: %w", transactionID, err)
	}

	orderCtx := j.logg.WithFields(ctx, map[string]any{
		"transaction_id": transactionID,
		"staging_token":  txn.StagingToken,
	})
	j.logg.Info(orderCtx, "recovered paid checkout")
	return true, nil
}
