package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/karimsaleh/freshbasket-backend/internal/cart"
	"github.com/karimsaleh/freshbasket-backend/internal/staging"
	"github.com/karimsaleh/freshbasket-backend/pkg/db/models"
	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
	apperrors "github.com/karimsaleh/freshbasket-backend/pkg/errors"
	"github.com/karimsaleh/freshbasket-backend/pkg/logger"
	"github.com/karimsaleh/freshbasket-backend/pkg/metrics"
)

// simplifiedIDAttempts bounds retries on order-code collisions.
const simplifiedIDAttempts = 3

type stagingConsumer interface {
	Consume(ctx context.Context, token string) (*staging.Record, error)
}

type cartClearer interface {
	Clear(ctx context.Context, owner cart.Owner) error
}

// Materializer is the single point where a settled payment turns a
// staged checkout into a durable order, exactly once. Idempotency is
// layered: the staging store's atomic consume gates the first
// attempt, and the unique staging-token column catches anything that
// slips past it.
type Materializer struct {
	staging stagingConsumer
	repo    *Repository
	carts   cartClearer
	logg    *logger.Logger
	mtx     *metrics.PaymentMetrics
	now     func() time.Time
}

// NewMaterializer builds the materializer.
func NewMaterializer(stagingStore stagingConsumer, repo *Repository, carts cartClearer, logg *logger.Logger, mtx *metrics.PaymentMetrics) (*Materializer, error) {
	if stagingStore == nil {
		return nil, fmt.Errorf("staging store required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart clearer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Materializer{
		staging: stagingStore,
		repo:    repo,
		carts:   carts,
		logg:    logg,
		mtx:     mtx,
		now:     time.Now,
	}, nil
}

// Materialize converts the staged checkout into a durable order. A
// duplicate call for an already-materialized token returns the
// existing order and changes nothing. Only confirmed payments may
// reach this path; the caller owns that check.
func (m *Materializer) Materialize(ctx context.Context, stagingToken, transactionID string) (*models.Order, error) {
	if stagingToken == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "staging token is required")
	}

	record, err := m.staging.Consume(ctx, stagingToken)
	if apperrors.As(err).Code() == apperrors.CodeNotFound {
		// Consumed already, or genuinely expired. An existing order
		// for the token means a duplicate paid notification: no-op.
		if existing, lookupErr := m.repo.GetByStagingToken(ctx, stagingToken); lookupErr == nil {
			m.mtx.IncMaterialization("duplicate")
			return existing, nil
		}
		m.mtx.IncMaterialization("staging_lost")
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	order, err := m.insertOrder(ctx, record, transactionID)
	if err != nil {
		if IsStagingTokenConflict(err) {
			if existing, lookupErr := m.repo.GetByStagingToken(ctx, stagingToken); lookupErr == nil {
				m.mtx.IncMaterialization("duplicate")
				return existing, nil
			}
		}
		// Money has moved but the order failed to persist. This must
		// never be silent: flag for manual reconciliation.
		alertCtx := m.logg.WithFields(ctx, map[string]any{
			"staging_token":  stagingToken,
			"transaction_id": transactionID,
			"phone":          record.Phone,
			"total":          record.Total.String(),
		})
		m.logg.Error(alertCtx, "ALERT: paid checkout failed to materialize, manual reconciliation required", err)
		m.mtx.IncMaterialization("failure")
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "order could not be created")
	}

	m.clearSourceCart(ctx, record)
	m.mtx.IncMaterialization("success")
	return order, nil
}

func (m *Materializer) insertOrder(ctx context.Context, record *staging.Record, transactionID string) (*models.Order, error) {
	var lastErr error
	for attempt := 0; attempt < simplifiedIDAttempts; attempt++ {
		simplifiedID, err := NewSimplifiedID()
		if err != nil {
			return nil, err
		}

		order := buildOrder(record, transactionID, simplifiedID, m.now())
		if err := m.repo.CreateWithItems(ctx, order); err != nil {
			lastErr = err
			if IsSimplifiedIDConflict(err) {
				continue
			}
			return nil, err
		}
		return order, nil
	}
	return nil, lastErr
}

// buildOrder freezes the staged snapshot into order rows. The order
// is born paid: unpaid orders never exist.
func buildOrder(record *staging.Record, transactionID, simplifiedID string, now time.Time) *models.Order {
	paidAt := now
	order := &models.Order{
		ID:              uuid.New(),
		SimplifiedID:    simplifiedID,
		StagingToken:    record.Token,
		UserID:          record.UserID,
		CustomerName:    record.CustomerName,
		CustomerPhone:   record.Phone,
		Status:          enums.OrderStatusPaid,
		DeliveryMethod:  record.DeliveryMethod,
		ShippingAddress: record.ShippingAddress,
		Currency:        record.Currency,
		Subtotal:        record.Subtotal,
		ServiceFee:      record.ServiceFee,
		DeliveryFee:     record.DeliveryFee,
		Total:           record.Total,
		TransactionID:   transactionID,
		IsPaid:          true,
		PaidAt:          &paidAt,
	}

	order.Items = make([]models.OrderItem, 0, len(record.Lines))
	for _, line := range record.Lines {
		lineTotal := line.Price
		if line.SellingMethod == enums.SellingMethodUnit {
			lineTotal = line.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		} else if line.SellingMethod == enums.SellingMethodWeightCustom && line.WeightKg != nil {
			lineTotal = line.Price.Mul(decimal.NewFromFloat(*line.WeightKg)).Round(2)
		}
		order.Items = append(order.Items, models.OrderItem{
			ID:            uuid.New(),
			OrderID:       order.ID,
			ProductID:     line.ProductID,
			ProductName:   line.ProductName,
			SellingMethod: line.SellingMethod,
			Quantity:      line.Quantity,
			WeightKg:      line.WeightKg,
			UnitPrice:     line.Price,
			LineTotal:     lineTotal,
		})
	}
	return order
}

// clearSourceCart empties the originating cart. Failures here are
// logged, not returned: the order exists and the payment is safe, a
// stale cart is a cosmetic problem.
func (m *Materializer) clearSourceCart(ctx context.Context, record *staging.Record) {
	owner := cart.Owner{UserID: record.UserID, SessionToken: record.SessionToken}
	if owner.UserID == nil && owner.SessionToken == "" {
		return
	}
	if err := m.carts.Clear(ctx, owner); err != nil {
		warnCtx := m.logg.WithFields(ctx, map[string]any{"staging_token": record.Token})
		m.logg.Warn(warnCtx, "failed to clear cart after materialization: "+err.Error())
	}
}
