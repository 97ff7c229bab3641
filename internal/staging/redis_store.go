package staging

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
	GetDel(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	StagingKey(token string) string
}

// RedisStore keeps staged checkouts in redis so the checkout and
// payment steps can cross process boundaries. Consume maps to GETDEL,
// which makes the consume-once guarantee a property of redis rather
// than of caller timing.
type RedisStore struct {
	redis redisCommands
}

// NewRedisStore builds the redis-backed staging store.
func NewRedisStore(redis redisCommands) (*RedisStore, error) {
	if redis == nil {
		return nil, errors.New("redis client required")
	}
	return &RedisStore{redis: redis}, nil
}

// Put stores the record under its token with the supplied TTL.
func (s *RedisStore) Put(ctx context.Context, record *Record, ttl time.Duration) error {
	if record == nil || record.Token == "" {
		return apperrors.New(apperrors.CodeInternal, "staging record requires a token")
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "encoding staging record")
	}
	if err := s.redis.Set(ctx, s.redis.StagingKey(record.Token), string(raw), ttl); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "saving staging record")
	}
	return nil
}

// Get reads the record without consuming it.
func (s *RedisStore) Get(ctx context.Context, token string) (*Record, error) {
	raw, err := s.redis.Get(ctx, s.redis.StagingKey(token))
	return s.decode(raw, err)
}

// Consume atomically reads and deletes the record.
func (s *RedisStore) Consume(ctx context.Context, token string) (*Record, error) {
	raw, err := s.redis.GetDel(ctx, s.redis.StagingKey(token))
	return s.decode(raw, err)
}

func (s *RedisStore) decode(raw string, err error) (*Record, error) {
	if errors.Is(err, goredis.Nil) {
		return nil, apperrors.New(apperrors.CodeNotFound, "order details expired or not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading staging record")
	}
	var record Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "decoding staging record")
	}
	return &record, nil
}
