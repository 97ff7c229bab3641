// Package payments owns the payment code lifecycle: requesting a
// scannable code from the processor, tracking the transaction, and
// polling until a terminal status. When the processor is unreachable
// and mock payments are explicitly allowed, a simulated transaction
// keeps the checkout flow usable without live credentials.
package payments

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
)

// Transaction correlates a generated payment code to a staged
// checkout. Ephemeral: it lives in the transaction store with a TTL,
// never in the orders table.
type Transaction struct {
	TransactionID string              `json:"transactionId"`
	QRID          string              `json:"qrId,omitempty"`
	QRImage       string              `json:"qrImage"`
	StagingToken  string              `json:"stagingToken"`
	Amount        decimal.Decimal     `json:"amount"`
	Currency      enums.Currency      `json:"currency"`
	Status        enums.PaymentStatus `json:"status"`
	Message       string              `json:"message,omitempty"`
	IsMock        bool                `json:"isMock"`
	PollCount     int                 `json:"pollCount"`
	ExpiresAt     time.Time           `json:"expiresAt"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// IsTerminal reports whether polling should stop.
func (t *Transaction) IsTerminal() bool {
	return t.Status.IsTerminal()
}

// TransactionStore persists payment transactions for the duration of
// a checkout. The mock poll counter lives inside the stored record,
// so concurrent transactions never share state.
type TransactionStore interface {
	Save(ctx context.Context, txn *Transaction) error
	Get(ctx context.Context, transactionID string) (*Transaction, error)
	// ListPendingIDs returns ids of transactions not yet in a terminal
	// status. The reconcile worker walks these to catch payments that
	// settled after the shopper navigated away.
	ListPendingIDs(ctx context.Context) ([]string, error)
}
