package payments

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
)

type scriptedService struct {
	mu       sync.Mutex
	statuses []enums.PaymentStatus
	calls    int
	delay    time.Duration
}

func (s *scriptedService) RequestPayment(ctx context.Context, stagingToken string, amount decimal.Decimal, currency enums.Currency) (*Transaction, error) {
	panic("not used")
}

func (s *scriptedService) PollStatus(ctx context.Context, transactionID string) (*StatusResult, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	if idx >= len(s.statuses) {
		idx = len(s.statuses) - 1
	}
	s.calls++
	return &StatusResult{Status: s.statuses[idx]}, nil
}

func (s *scriptedService) GetTransaction(ctx context.Context, transactionID string) (*Transaction, error) {
	return &Transaction{TransactionID: transactionID, Status: enums.PaymentStatusPaid}, nil
}

func TestPollerStopsOnTerminalStatus(t *testing.T) {
	svc := &scriptedService{statuses: []enums.PaymentStatus{
		enums.PaymentStatusPending,
		enums.PaymentStatusPending,
		enums.PaymentStatusPaid,
	}}
	poller, err := NewPoller(svc, 10*time.Millisecond)
	require.NoError(t, err)

	paidCalls := 0
	result, err := poller.Run(context.Background(), "txn-1", func(ctx context.Context, txn *Transaction) error {
		paidCalls++
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusPaid, result.Status)
	assert.Equal(t, 1, paidCalls)
	assert.Equal(t, 3, svc.calls)
}

func TestPollerCancellation(t *testing.T) {
	svc := &scriptedService{statuses: []enums.PaymentStatus{enums.PaymentStatusPending}}
	poller, err := NewPoller(svc, 10*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Millisecond)
	defer cancel()

	result, err := poller.Run(ctx, "txn-1", nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, result)
	assert.Equal(t, enums.PaymentStatusPending, result.Status)
}

func TestPollerOnPaidErrorSurfaces(t *testing.T) {
	svc := &scriptedService{statuses: []enums.PaymentStatus{enums.PaymentStatusPaid}}
	poller, err := NewPoller(svc, 10*time.Millisecond)
	require.NoError(t, err)

	wantErr := assert.AnError
	_, err = poller.Run(context.Background(), "txn-1", func(ctx context.Context, txn *Transaction) error {
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)
}
