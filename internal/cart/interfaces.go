package cart

import (
	"context"

	"github.com/google/uuid"

	"github.com/karimsaleh/freshbasket-backend/pkg/db/models"
)

// Repository abstracts where a shopper's cart lives. Registered users
// get a persisted row, guests get a redis key; the service never
// branches on storage.
//
// Replace is last-write-wins over the whole line set: concurrent
// writers (two tabs) race at cart granularity, not per line.
type Repository interface {
	Get(ctx context.Context, owner Owner) (*Snapshot, error)
	Replace(ctx context.Context, owner Owner, lines []Line) error
	Clear(ctx context.Context, owner Owner) error
}

type productLoader interface {
	GetActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}
