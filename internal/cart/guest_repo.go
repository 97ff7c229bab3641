package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	apperrors "github.com/karimsaleh/freshbasket-backend/pkg/errors"
)

type guestStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	GuestCartKey(sessionToken string) string
}

// GuestRepository keeps anonymous carts in redis, keyed by session
// token and expiring after the configured TTL.
type GuestRepository struct {
	store guestStore
	ttl   time.Duration
}

// NewGuestRepository builds the redis-backed guest cart repository.
func NewGuestRepository(store guestStore, ttl time.Duration) (*GuestRepository, error) {
	if store == nil {
		return nil, errors.New("guest cart store required")
	}
	if ttl <= 0 {
		ttl = 168 * time.Hour
	}
	return &GuestRepository{store: store, ttl: ttl}, nil
}

type guestCartPayload struct {
	Lines []Line `json:"lines"`
}

// Get loads the session's cart. A missing or expired key reads as an
// empty cart.
func (r *GuestRepository) Get(ctx context.Context, owner Owner) (*Snapshot, error) {
	token, err := requireSession(owner)
	if err != nil {
		return nil, err
	}

	raw, err := r.store.Get(ctx, r.store.GuestCartKey(token))
	if errors.Is(err, goredis.Nil) {
		return &Snapshot{}, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading guest cart")
	}

	var payload guestCartPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "decoding guest cart")
	}

	total, err := computeTotal(payload.Lines)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Lines: payload.Lines, Total: total}, nil
}

// Replace swaps the session's entire line set and refreshes the TTL.
func (r *GuestRepository) Replace(ctx context.Context, owner Owner, lines []Line) error {
	token, err := requireSession(owner)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(guestCartPayload{Lines: lines})
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "encoding guest cart")
	}
	if err := r.store.Set(ctx, r.store.GuestCartKey(token), string(raw), r.ttl); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "saving guest cart")
	}
	return nil
}

// Clear drops the session's cart key.
func (r *GuestRepository) Clear(ctx context.Context, owner Owner) error {
	token, err := requireSession(owner)
	if err != nil {
		return err
	}
	if err := r.store.Del(ctx, r.store.GuestCartKey(token)); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "clearing guest cart")
	}
	return nil
}

func requireSession(owner Owner) (string, error) {
	if owner.SessionToken == "" {
		return "", apperrors.New(apperrors.CodeInternal, "guest cart repository requires a session token")
	}
	return owner.SessionToken, nil
}
