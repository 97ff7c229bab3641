package orders

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karimsaleh/freshbasket-backend/pkg/db"
	"github.com/karimsaleh/freshbasket-backend/pkg/db/models"
	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
	apperrors "github.com/karimsaleh/freshbasket-backend/pkg/errors"
)

// Repository encapsulates order persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// CreateWithItems inserts the order header and its lines in one
// transaction. A unique violation on the staging token means another
// materialization already won; callers treat that as success and load
// the existing order.
func (r *Repository) CreateWithItems(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
}

// GetByID loads the order with its lines.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByStagingToken loads the order materialized from a staged
// checkout, if any.
func (r *Repository) GetByStagingToken(ctx context.Context, token string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("staging_token = ?", token).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser returns the user's orders, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ListFilter narrows the admin order listing.
type ListFilter struct {
	Status *enums.OrderStatus
	Phone  string
	Limit  int
	Offset int
}

// List returns orders for the back office, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Order, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Limit(limit).
		Offset(filter.Offset)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if phone := normalizePhone(filter.Phone); phone != "" {
		query = query.Where("customer_phone LIKE ?", "%"+phone+"%")
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindForGuestLookup pulls candidate orders whose simplified id
// matches the reference exactly, case-insensitively, or as a prefix.
// Phone verification happens in the service layer.
func (r *Repository) FindForGuestLookup(ctx context.Context, reference string) ([]models.Order, error) {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return nil, nil
	}
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("simplified_id = ? OR UPPER(simplified_id) = UPPER(?) OR UPPER(simplified_id) LIKE UPPER(?)", ref, ref, ref+"%").
		Limit(10).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// Save persists mutated lifecycle fields.
func (r *Repository) Save(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

// IsStagingTokenConflict reports whether err is the unique violation
// raised when the same staged checkout materializes twice.
func IsStagingTokenConflict(err error) bool {
	return db.IsUniqueViolation(err, "idx_orders_staging_token") ||
		db.IsUniqueViolation(err, "orders.staging_token")
}

// IsSimplifiedIDConflict reports whether err is the unique violation
// on the human-facing order code.
func IsSimplifiedIDConflict(err error) bool {
	return db.IsUniqueViolation(err, "idx_orders_simplified_id") ||
		db.IsUniqueViolation(err, "orders.simplified_id")
}

func normalizePhone(value string) string {
	digits := make([]rune, 0, len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	return string(digits)
}
