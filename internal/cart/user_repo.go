package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karimsaleh/freshbasket-backend/pkg/db/models"
	apperrors "github.com/karimsaleh/freshbasket-backend/pkg/errors"
)

// UserRepository persists carts for registered users, one row per
// user.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository binds the repository to the provided GORM handle.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	if tx == nil {
		return r
	}
	return &UserRepository{db: tx}
}

// Get loads the user's cart. A missing row reads as an empty cart.
func (r *UserRepository) Get(ctx context.Context, owner Owner) (*Snapshot, error) {
	userID, err := requireUser(owner)
	if err != nil {
		return nil, err
	}

	var record models.Cart
	err = r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Snapshot{}, nil
	}
	if err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(record.Items))
	for _, item := range record.Items {
		lines = append(lines, Line{
			ProductID:     item.ProductID,
			ProductName:   item.ProductName,
			Image:         item.Image,
			SellingMethod: item.SellingMethod,
			Price:         item.Price,
			Quantity:      item.Quantity,
			WeightKg:      item.WeightKg,
			Locked:        item.Locked,
		})
	}

	total, err := computeTotal(lines)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Lines: lines, Total: total}, nil
}

// Replace swaps the user's entire line set in one transaction.
func (r *UserRepository) Replace(ctx context.Context, owner Owner, lines []Line) error {
	userID, err := requireUser(owner)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.Cart
		findErr := tx.Where("user_id = ?", userID).First(&record).Error
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			record = models.Cart{ID: uuid.New(), UserID: userID}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		} else if findErr != nil {
			return findErr
		}

		if err := tx.Where("cart_id = ?", record.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}

		items := make([]models.CartItem, 0, len(lines))
		for _, line := range lines {
			items = append(items, models.CartItem{
				ID:            uuid.New(),
				CartID:        record.ID,
				ProductID:     line.ProductID,
				ProductName:   line.ProductName,
				Image:         line.Image,
				SellingMethod: line.SellingMethod,
				Price:         line.Price,
				Quantity:      line.Quantity,
				WeightKg:      line.WeightKg,
				Locked:        line.Locked,
			})
		}
		return tx.Create(&items).Error
	})
}

// Clear deletes the user's cart row and its lines.
func (r *UserRepository) Clear(ctx context.Context, owner Owner) error {
	userID, err := requireUser(owner)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.Cart
		err := tx.Where("user_id = ?", userID).First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.Where("cart_id = ?", record.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&record).Error
	})
}

func requireUser(owner Owner) (uuid.UUID, error) {
	if owner.UserID == nil || *owner.UserID == uuid.Nil {
		return uuid.Nil, apperrors.New(apperrors.CodeInternal, "user cart repository requires a user id")
	}
	return *owner.UserID, nil
}
