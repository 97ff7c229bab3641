package staging

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/karimsaleh/freshbasket-backend/pkg/errors"
)

// MemoryStore is an in-process staging store with TTL, used in tests
// and single-process deployments.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	record    Record
	expiresAt time.Time
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Put stores the record under its token with the supplied TTL.
func (s *MemoryStore) Put(ctx context.Context, record *Record, ttl time.Duration) error {
	if record == nil || record.Token == "" {
		return apperrors.New(apperrors.CodeInternal, "staging record requires a token")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Token] = memoryEntry{
		record:    *record,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

// Get reads the record without consuming it.
func (s *MemoryStore) Get(ctx context.Context, token string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.records[token]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.records, token)
		return nil, apperrors.New(apperrors.CodeNotFound, "order details expired or not found")
	}
	record := entry.record
	return &record, nil
}

// Consume atomically reads and deletes the record.
func (s *MemoryStore) Consume(ctx context.Context, token string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.records[token]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.records, token)
		return nil, apperrors.New(apperrors.CodeNotFound, "order details expired or not found")
	}
	delete(s.records, token)
	record := entry.record
	return &record, nil
}
