package payments

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	apperrors "github.com/karimsaleh/freshbasket-backend/pkg/errors"
)

type redisCommands interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SAdd(ctx context.Context, key string, members ...any) error
	SRem(ctx context.Context, key string, members ...any) error
	SMembers(ctx context.Context, key string) ([]string, error)
	PaymentTransactionKey(transactionID string) string
}

// pendingIndexID keys the index set of not-yet-terminal transactions.
const pendingIndexID = "pending"

// RedisTransactionStore keeps transactions in redis with a TTL a bit
// past code expiry, long enough for late reconciliation reads.
type RedisTransactionStore struct {
	redis redisCommands
	ttl   time.Duration
}

// NewRedisTransactionStore builds the redis-backed transaction store.
func NewRedisTransactionStore(redis redisCommands, ttl time.Duration) (*RedisTransactionStore, error) {
	if redis == nil {
		return nil, errors.New("redis client required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisTransactionStore{redis: redis, ttl: ttl}, nil
}

// Save writes the transaction, refreshing its TTL.
func (s *RedisTransactionStore) Save(ctx context.Context, txn *Transaction) error {
	if txn == nil || txn.TransactionID == "" {
		return apperrors.New(apperrors.CodeInternal, "transaction requires an id")
	}
	raw, err := json.Marshal(txn)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "encoding transaction")
	}
	key := s.redis.PaymentTransactionKey(txn.TransactionID)
	if err := s.redis.Set(ctx, key, string(raw), s.ttl); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "saving transaction")
	}

	// Keep the pending index in step so the reconcile worker only
	// walks transactions that can still settle.
	indexKey := s.redis.PaymentTransactionKey(pendingIndexID)
	if txn.Status.IsTerminal() {
		if err := s.redis.SRem(ctx, indexKey, txn.TransactionID); err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "updating pending index")
		}
	} else {
		if err := s.redis.SAdd(ctx, indexKey, txn.TransactionID); err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "updating pending index")
		}
	}
	return nil
}

// ListPendingIDs returns the ids in the pending index.
func (s *RedisTransactionStore) ListPendingIDs(ctx context.Context) ([]string, error) {
	ids, err := s.redis.SMembers(ctx, s.redis.PaymentTransactionKey(pendingIndexID))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "listing pending transactions")
	}
	return ids, nil
}

// Get loads the transaction or a coded not-found.
func (s *RedisTransactionStore) Get(ctx context.Context, transactionID string) (*Transaction, error) {
	raw, err := s.redis.Get(ctx, s.redis.PaymentTransactionKey(transactionID))
	if errors.Is(err, goredis.Nil) {
		return nil, apperrors.New(apperrors.CodeNotFound, "payment transaction not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading transaction")
	}
	var txn Transaction
	if err := json.Unmarshal([]byte(raw), &txn); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "decoding transaction")
	}
	return &txn, nil
}
