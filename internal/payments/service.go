package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
	apperrors "github.com/karimsaleh/freshbasket-backend/pkg/errors"
	"github.com/karimsaleh/freshbasket-backend/pkg/gateway"
	"github.com/karimsaleh/freshbasket-backend/pkg/logger"
	"github.com/karimsaleh/freshbasket-backend/pkg/metrics"
)

// mockPaidAfterPolls is how many status polls a mock transaction
// stays pending before it settles.
const mockPaidAfterPolls = 3

const mockQRPlaceholder = "data:image/svg+xml;base64,PHN2ZyB4bWxucz0iaHR0cDovL3d3dy53My5vcmcvMjAwMC9zdmciLz4="

// StatusResult is the poll outcome handed to callers.
type StatusResult struct {
	Status  enums.PaymentStatus `json:"status"`
	Message string              `json:"message,omitempty"`
}

// Service drives the payment code lifecycle.
type Service interface {
	RequestPayment(ctx context.Context, stagingToken string, amount decimal.Decimal, currency enums.Currency) (*Transaction, error)
	PollStatus(ctx context.Context, transactionID string) (*StatusResult, error)
	GetTransaction(ctx context.Context, transactionID string) (*Transaction, error)
}

type service struct {
	gateway   gateway.Client
	store     TransactionStore
	logg      *logger.Logger
	mtx       *metrics.PaymentMetrics
	allowMock bool
	codeTTL   time.Duration
	now       func() time.Time
}

// NewService builds the payment service. allowMock must be false in
// production configurations; without it a processor failure surfaces
// to the shopper instead of degrading to a simulated payment.
func NewService(gw gateway.Client, store TransactionStore, logg *logger.Logger, mtx *metrics.PaymentMetrics, allowMock bool, codeTTL time.Duration) (Service, error) {
	if gw == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	if store == nil {
		return nil, fmt.Errorf("transaction store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if codeTTL <= 0 {
		codeTTL = 15 * time.Minute
	}
	return &service{
		gateway:   gw,
		store:     store,
		logg:      logg,
		mtx:       mtx,
		allowMock: allowMock,
		codeTTL:   codeTTL,
		now:       time.Now,
	}, nil
}

// RequestPayment asks the processor for a scannable code tied to the
// staged checkout. On processor failure it falls back to a mock
// transaction only when the feature flag allows it.
func (s *service) RequestPayment(ctx context.Context, stagingToken string, amount decimal.Decimal, currency enums.Currency) (*Transaction, error) {
	if stagingToken == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "staging token is required")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.New(apperrors.CodeValidation, "payment amount must be positive")
	}
	if !currency.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "unknown currency")
	}

	now := s.now()
	txn := &Transaction{
		TransactionID: uuid.NewString(),
		StagingToken:  stagingToken,
		Amount:        amount,
		Currency:      currency,
		Status:        enums.PaymentStatusRequesting,
		CreatedAt:     now,
	}

	code, err := s.gateway.CreateCode(ctx, gateway.CreateCodeRequest{
		Reference: stagingToken,
		Amount:    amount,
		Currency:  currency,
	})
	switch {
	case err == nil:
		txn.QRID = code.QRID
		txn.QRImage = code.QRImage
		txn.ExpiresAt = code.ExpiresAt
		txn.Status = enums.PaymentStatusPending

	case s.allowMock && apperrors.As(err).Code() == apperrors.CodeDependency:
		warnCtx := s.logg.WithFields(ctx, map[string]any{
			"transaction_id": txn.TransactionID,
			"error":          err.Error(),
		})
		s.logg.Warn(warnCtx, "payment processor unavailable, issuing mock transaction")
		txn.IsMock = true
		txn.QRImage = mockQRPlaceholder
		txn.ExpiresAt = now.Add(s.codeTTL)
		txn.Status = enums.PaymentStatusPending

	default:
		return nil, err
	}

	if err := s.store.Save(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// PollStatus reads the transaction's current status. Idempotent and
// safe to call repeatedly; mock transactions settle after a fixed
// number of polls.
func (s *service) PollStatus(ctx context.Context, transactionID string) (*StatusResult, error) {
	if transactionID == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "transaction id is required")
	}

	txn, err := s.store.Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.IsTerminal() {
		return &StatusResult{Status: txn.Status, Message: txn.Message}, nil
	}

	if txn.IsMock {
		return s.pollMock(ctx, txn)
	}
	return s.pollReal(ctx, txn)
}

// GetTransaction returns the stored transaction.
func (s *service) GetTransaction(ctx context.Context, transactionID string) (*Transaction, error) {
	return s.store.Get(ctx, transactionID)
}

func (s *service) pollMock(ctx context.Context, txn *Transaction) (*StatusResult, error) {
	txn.PollCount++
	if txn.PollCount >= mockPaidAfterPolls {
		txn.Status = enums.PaymentStatusPaid
		txn.Message = "mock payment settled"
	}
	if s.now().After(txn.ExpiresAt) && txn.Status != enums.PaymentStatusPaid {
		txn.Status = enums.PaymentStatusExpired
	}
	if err := s.store.Save(ctx, txn); err != nil {
		return nil, err
	}
	s.mtx.IncPoll(txn.Status.String())
	return &StatusResult{Status: txn.Status, Message: txn.Message}, nil
}

func (s *service) pollReal(ctx context.Context, txn *Transaction) (*StatusResult, error) {
	status, err := s.gateway.CheckStatus(ctx, txn.QRID)
	if err != nil {
		// Transient processor failure: report pending, next tick retries.
		warnCtx := s.logg.WithFields(ctx, map[string]any{
			"transaction_id": txn.TransactionID,
			"error":          err.Error(),
		})
		s.logg.Warn(warnCtx, "payment status check failed")
		s.mtx.IncPoll("check_failed")
		return &StatusResult{Status: enums.PaymentStatusPending, Message: "status check failed, retrying"}, nil
	}

	txn.PollCount++
	txn.Status = status.Status
	txn.Message = status.Message
	if err := s.store.Save(ctx, txn); err != nil {
		return nil, err
	}
	s.mtx.IncPoll(txn.Status.String())
	return &StatusResult{Status: txn.Status, Message: txn.Message}, nil
}
