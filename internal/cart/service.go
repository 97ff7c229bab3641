// Package cart maintains the authoritative line set for the current
// shopper and keeps the derived total in sync. Guest carts live in
// redis keyed by session token; registered users get one persisted
// row. On login a non-empty guest cart replaces the user's cart
// wholesale.
package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/karimsaleh/freshbasket-backend/pkg/db/models"
	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
	apperrors "github.com/karimsaleh/freshbasket-backend/pkg/errors"
)

const minCustomWeightKg = 0.1

// Service exposes cart operations for both guest and registered
// shoppers.
type Service interface {
	Get(ctx context.Context, owner Owner) (*Snapshot, error)
	AddItem(ctx context.Context, owner Owner, input AddItemInput) (*Snapshot, error)
	UpdateQuantity(ctx context.Context, owner Owner, productID uuid.UUID, quantity int) (*Snapshot, error)
	UpdateWeight(ctx context.Context, owner Owner, productID uuid.UUID, weightKg float64) (*Snapshot, error)
	RemoveItem(ctx context.Context, owner Owner, productID uuid.UUID) (*Snapshot, error)
	Clear(ctx context.Context, owner Owner) error
	MergeOnLogin(ctx context.Context, sessionToken string, userID uuid.UUID) (*Snapshot, error)
}

type service struct {
	users    Repository
	guests   Repository
	products productLoader
}

// NewService builds the cart service over both repository
// implementations.
func NewService(users, guests Repository, products productLoader) (Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user cart repository required")
	}
	if guests == nil {
		return nil, fmt.Errorf("guest cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{users: users, guests: guests, products: products}, nil
}

// AddItemInput is the client's view of an add: everything else is
// snapshotted from the catalog server-side.
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	WeightKg  float64
}

func (s *service) repoFor(owner Owner) Repository {
	if owner.IsGuest() {
		return s.guests
	}
	return s.users
}

// Get returns the current cart with its recomputed total.
func (s *service) Get(ctx context.Context, owner Owner) (*Snapshot, error) {
	return s.repoFor(owner).Get(ctx, owner)
}

// AddItem snapshots the product into a new line. Unit lines for a
// product already in the cart merge by incrementing quantity. A
// locked fixed-weight unit already in the cart is rejected: that
// specific pre-measured item cannot be sold twice.
func (s *service) AddItem(ctx context.Context, owner Owner, input AddItemInput) (*Snapshot, error) {
	if input.ProductID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "product id is required")
	}

	product, err := s.products.GetActiveByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	line, err := buildLine(product, input)
	if err != nil {
		return nil, err
	}

	repo := s.repoFor(owner)
	snapshot, err := repo.Get(ctx, owner)
	if err != nil {
		return nil, err
	}

	lines := snapshot.Lines
	merged := false
	for i := range lines {
		if lines[i].ProductID != input.ProductID {
			continue
		}
		if lines[i].Locked {
			return nil, apperrors.New(apperrors.CodeConflict, "this pre-measured item is already in your cart")
		}
		switch lines[i].SellingMethod {
		case enums.SellingMethodUnit:
			lines[i].Quantity += line.Quantity
		case enums.SellingMethodWeightCustom:
			combined := *lines[i].WeightKg + *line.WeightKg
			lines[i].WeightKg = &combined
		}
		merged = true
		break
	}
	if !merged {
		lines = append(lines, line)
	}

	return s.save(ctx, repo, owner, lines)
}

// UpdateQuantity changes a unit line's quantity.
func (s *service) UpdateQuantity(ctx context.Context, owner Owner, productID uuid.UUID, quantity int) (*Snapshot, error) {
	if quantity < 1 {
		return nil, apperrors.New(apperrors.CodeValidation, "quantity must be at least 1")
	}

	repo := s.repoFor(owner)
	snapshot, err := repo.Get(ctx, owner)
	if err != nil {
		return nil, err
	}

	line := findLine(snapshot.Lines, productID)
	if line == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "item not in cart")
	}
	if line.SellingMethod != enums.SellingMethodUnit {
		return nil, apperrors.New(apperrors.CodeValidation, "quantity applies only to unit-priced items")
	}
	line.Quantity = quantity

	return s.save(ctx, repo, owner, snapshot.Lines)
}

// UpdateWeight changes a custom-weight line's weight. Locked
// fixed-weight units are immutable once added.
func (s *service) UpdateWeight(ctx context.Context, owner Owner, productID uuid.UUID, weightKg float64) (*Snapshot, error) {
	if weightKg < minCustomWeightKg {
		return nil, apperrors.New(apperrors.CodeValidation, "weight must be at least 0.1 kg")
	}

	repo := s.repoFor(owner)
	snapshot, err := repo.Get(ctx, owner)
	if err != nil {
		return nil, err
	}

	line := findLine(snapshot.Lines, productID)
	if line == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "item not in cart")
	}
	if line.Locked {
		return nil, apperrors.New(apperrors.CodeStateConflict, "weight of a pre-measured item cannot be changed")
	}
	if line.SellingMethod != enums.SellingMethodWeightCustom {
		return nil, apperrors.New(apperrors.CodeValidation, "weight applies only to weight-priced items")
	}
	line.WeightKg = &weightKg

	return s.save(ctx, repo, owner, snapshot.Lines)
}

// RemoveItem drops the product's line from the cart.
func (s *service) RemoveItem(ctx context.Context, owner Owner, productID uuid.UUID) (*Snapshot, error) {
	repo := s.repoFor(owner)
	snapshot, err := repo.Get(ctx, owner)
	if err != nil {
		return nil, err
	}

	kept := snapshot.Lines[:0]
	removed := false
	for _, line := range snapshot.Lines {
		if line.ProductID == productID {
			removed = true
			continue
		}
		kept = append(kept, line)
	}
	if !removed {
		return nil, apperrors.New(apperrors.CodeNotFound, "item not in cart")
	}

	return s.save(ctx, repo, owner, kept)
}

// Clear empties the cart.
func (s *service) Clear(ctx context.Context, owner Owner) error {
	return s.repoFor(owner).Clear(ctx, owner)
}

// MergeOnLogin moves a guest cart onto the user account. The guest
// cart replaces the persisted one wholesale (last write wins, not a
// line-level union) and the guest copy is cleared. An empty guest
// cart leaves the user's cart untouched.
func (s *service) MergeOnLogin(ctx context.Context, sessionToken string, userID uuid.UUID) (*Snapshot, error) {
	if userID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	userOwner := Owner{UserID: &userID}
	if sessionToken == "" {
		return s.users.Get(ctx, userOwner)
	}

	guestOwner := Owner{SessionToken: sessionToken}
	guestCart, err := s.guests.Get(ctx, guestOwner)
	if err != nil {
		return nil, err
	}
	if guestCart.IsEmpty() {
		return s.users.Get(ctx, userOwner)
	}

	if err := s.users.Replace(ctx, userOwner, guestCart.Lines); err != nil {
		return nil, err
	}
	if err := s.guests.Clear(ctx, guestOwner); err != nil {
		return nil, err
	}
	return s.users.Get(ctx, userOwner)
}

func (s *service) save(ctx context.Context, repo Repository, owner Owner, lines []Line) (*Snapshot, error) {
	if err := repo.Replace(ctx, owner, lines); err != nil {
		return nil, err
	}
	total, err := computeTotal(lines)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Lines: lines, Total: total}, nil
}

func findLine(lines []Line, productID uuid.UUID) *Line {
	for i := range lines {
		if lines[i].ProductID == productID {
			return &lines[i]
		}
	}
	return nil
}

// buildLine snapshots the catalog product into a cart line, resolving
// the pricing basis from the selling method.
func buildLine(product *models.Product, input AddItemInput) (Line, error) {
	var image *string
	if len(product.Images) > 0 {
		image = &product.Images[0]
	}

	line := Line{
		ProductID:     product.ID,
		ProductName:   product.Name,
		Image:         image,
		SellingMethod: product.SellingMethod,
	}

	switch product.SellingMethod {
	case enums.SellingMethodUnit:
		if input.Quantity < 1 {
			return Line{}, apperrors.New(apperrors.CodeValidation, "quantity must be at least 1")
		}
		line.Price = product.Price
		line.Quantity = input.Quantity

	case enums.SellingMethodWeightCustom:
		if input.WeightKg < minCustomWeightKg {
			return Line{}, apperrors.New(apperrors.CodeValidation, "weight must be at least 0.1 kg")
		}
		if product.MinWeightKg != nil && input.WeightKg < *product.MinWeightKg {
			return Line{}, apperrors.New(apperrors.CodeValidation, "weight is below the product minimum")
		}
		if product.MaxWeightKg != nil && input.WeightKg > *product.MaxWeightKg {
			return Line{}, apperrors.New(apperrors.CodeValidation, "weight is above the product maximum")
		}
		weight := input.WeightKg
		line.Price = product.Price
		line.WeightKg = &weight

	case enums.SellingMethodWeightFixed:
		option, ok := matchFixedWeight(product.FixedWeightOptions, input.WeightKg)
		if !ok {
			return Line{}, apperrors.New(apperrors.CodeValidation, "weight is not offered for this product")
		}
		// Pre-measured units freeze price and weight at add time.
		line.Price = product.Price.Mul(decimal.NewFromFloat(option)).Round(2)
		line.WeightKg = &option
		line.Quantity = 1
		line.Locked = true

	default:
		return Line{}, apperrors.New(apperrors.CodeValidation, "product has an unknown selling method")
	}

	return line, nil
}

func matchFixedWeight(options []float64, weight float64) (float64, bool) {
	const epsilon = 1e-6
	for _, option := range options {
		if diff := option - weight; diff < epsilon && diff > -epsilon {
			return option, true
		}
	}
	return 0, false
}
