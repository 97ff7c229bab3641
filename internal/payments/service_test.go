package payments

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
	apperrors "github.com/karimsaleh/freshbasket-backend/pkg/errors"
	"github.com/karimsaleh/freshbasket-backend/pkg/gateway"
	"github.com/karimsaleh/freshbasket-backend/pkg/logger"
)

type fakeGateway struct {
	configured  bool
	createErr   error
	status      enums.PaymentStatus
	statusErr   error
	createCalls int
	statusCalls int
}

func (f *fakeGateway) CreateCode(ctx context.Context, req gateway.CreateCodeRequest) (*gateway.CreateCodeResponse, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &gateway.CreateCodeResponse{
		QRID:      "qr-1",
		QRImage:   "https://codes.example/qr-1.png",
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil
}

func (f *fakeGateway) CheckStatus(ctx context.Context, qrID string) (*gateway.StatusResponse, error) {
	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &gateway.StatusResponse{Status: f.status}, nil
}

func (f *fakeGateway) Configured() bool {
	return f.configured
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "payments-test", Output: io.Discard})
}

func newTestService(t *testing.T, gw gateway.Client, allowMock bool) (Service, *MemoryTransactionStore) {
	t.Helper()
	store := NewMemoryTransactionStore()
	svc, err := NewService(gw, store, testLogger(), nil, allowMock, 15*time.Minute)
	require.NoError(t, err)
	return svc, store
}

func TestRequestPaymentLive(t *testing.T) {
	gw := &fakeGateway{configured: true, status: enums.PaymentStatusPending}
	svc, _ := newTestService(t, gw, false)

	txn, err := svc.RequestPayment(context.Background(), "stg-1", decimal.NewFromInt(206), enums.CurrencyEGP)
	require.NoError(t, err)

	assert.False(t, txn.IsMock)
	assert.Equal(t, "qr-1", txn.QRID)
	assert.Equal(t, enums.PaymentStatusPending, txn.Status)
	assert.NotEmpty(t, txn.TransactionID)
}

func TestRequestPaymentFallsBackToMockWhenAllowed(t *testing.T) {
	gw := &fakeGateway{createErr: apperrors.New(apperrors.CodeDependency, "processor down")}
	svc, _ := newTestService(t, gw, true)

	txn, err := svc.RequestPayment(context.Background(), "stg-1", decimal.NewFromInt(100), enums.CurrencyEGP)
	require.NoError(t, err)

	assert.True(t, txn.IsMock)
	assert.NotEmpty(t, txn.QRImage)
	assert.Equal(t, enums.PaymentStatusPending, txn.Status)
}

func TestRequestPaymentSurfacesProcessorErrorInProduction(t *testing.T) {
	gw := &fakeGateway{createErr: apperrors.New(apperrors.CodeDependency, "processor down")}
	svc, _ := newTestService(t, gw, false)

	_, err := svc.RequestPayment(context.Background(), "stg-1", decimal.NewFromInt(100), enums.CurrencyEGP)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDependency, apperrors.As(err).Code())
}

func TestMockTransactionSettlesAfterFixedPolls(t *testing.T) {
	gw := &fakeGateway{createErr: apperrors.New(apperrors.CodeDependency, "processor down")}
	svc, _ := newTestService(t, gw, true)

	txn, err := svc.RequestPayment(context.Background(), "stg-1", decimal.NewFromInt(100), enums.CurrencyEGP)
	require.NoError(t, err)

	for i := 0; i < mockPaidAfterPolls-1; i++ {
		result, err := svc.PollStatus(context.Background(), txn.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, enums.PaymentStatusPending, result.Status, "poll %d", i+1)
	}

	result, err := svc.PollStatus(context.Background(), txn.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, result.Status)
}

func TestMockCountersAreIsolatedPerTransaction(t *testing.T) {
	gw := &fakeGateway{createErr: apperrors.New(apperrors.CodeDependency, "processor down")}
	svc, _ := newTestService(t, gw, true)

	first, err := svc.RequestPayment(context.Background(), "stg-1", decimal.NewFromInt(100), enums.CurrencyEGP)
	require.NoError(t, err)
	second, err := svc.RequestPayment(context.Background(), "stg-2", decimal.NewFromInt(50), enums.CurrencyEGP)
	require.NoError(t, err)

	for i := 0; i < mockPaidAfterPolls; i++ {
		_, err := svc.PollStatus(context.Background(), first.TransactionID)
		require.NoError(t, err)
	}

	firstResult, err := svc.PollStatus(context.Background(), first.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, firstResult.Status)

	secondResult, err := svc.PollStatus(context.Background(), second.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPending, secondResult.Status)
}

func TestPollRealTransactionTranslatesStatus(t *testing.T) {
	gw := &fakeGateway{configured: true, status: enums.PaymentStatusPaid}
	svc, _ := newTestService(t, gw, false)

	txn, err := svc.RequestPayment(context.Background(), "stg-1", decimal.NewFromInt(100), enums.CurrencyEGP)
	require.NoError(t, err)

	result, err := svc.PollStatus(context.Background(), txn.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, result.Status)

	// Terminal transactions stop hitting the processor.
	_, err = svc.PollStatus(context.Background(), txn.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, 1, gw.statusCalls)
}

func TestPollStatusCheckFailureReadsPending(t *testing.T) {
	gw := &fakeGateway{configured: true, status: enums.PaymentStatusPending}
	svc, _ := newTestService(t, gw, false)

	txn, err := svc.RequestPayment(context.Background(), "stg-1", decimal.NewFromInt(100), enums.CurrencyEGP)
	require.NoError(t, err)

	gw.statusErr = apperrors.New(apperrors.CodeDependency, "timeout")
	result, err := svc.PollStatus(context.Background(), txn.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPending, result.Status)
}

func TestPollUnknownTransaction(t *testing.T) {
	gw := &fakeGateway{configured: true}
	svc, _ := newTestService(t, gw, false)

	_, err := svc.PollStatus(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.As(err).Code())
}
