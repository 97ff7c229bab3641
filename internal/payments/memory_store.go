package payments

import (
	"context"
	"sync"

	apperrors "github.com/karimsaleh/freshbasket-backend/pkg/errors"
)

// MemoryTransactionStore is the in-process store used in tests and
// single-process deployments. Cleared on restart by construction.
type MemoryTransactionStore struct {
	mu   sync.Mutex
	txns map[string]Transaction
}

// NewMemoryTransactionStore builds an empty in-memory store.
func NewMemoryTransactionStore() *MemoryTransactionStore {
	return &MemoryTransactionStore{txns: make(map[string]Transaction)}
}

// Save writes the transaction.
func (s *MemoryTransactionStore) Save(ctx context.Context, txn *Transaction) error {
	if txn == nil || txn.TransactionID == "" {
		return apperrors.New(apperrors.CodeInternal, "transaction requires an id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txns[txn.TransactionID] = *txn
	return nil
}

// Get loads the transaction or a coded not-found.
func (s *MemoryTransactionStore) Get(ctx context.Context, transactionID string) (*Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.txns[transactionID]
	if !ok {
		return nil, apperrors.New(apperrors.CodeNotFound, "payment transaction not found")
	}
	return &txn, nil
}

// ListPendingIDs returns ids of transactions not yet terminal.
func (s *MemoryTransactionStore) ListPendingIDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.txns))
	for id, txn := range s.txns {
		if !txn.Status.IsTerminal() {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
