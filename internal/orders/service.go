// Package orders owns the durable side of the order lifecycle:
// materialization from staged checkouts, customer and back-office
// reads, guest order lookup, and admin status transitions.
package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/karimsaleh/freshbasket-backend/pkg/db/models"
	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
	apperrors "github.com/karimsaleh/freshbasket-backend/pkg/errors"
	"github.com/karimsaleh/freshbasket-backend/pkg/logger"
)

// minLookupPrefix is the shortest simplified-id fragment accepted for
// prefix matching. Anything shorter over-matches unrelated orders.
const minLookupPrefix = 6

// guestLookupMessage is deliberately identical for wrong-phone and
// wrong-reference failures so callers cannot probe which half of the
// combination was correct.
const guestLookupMessage = "no order matches that reference and phone number"

// Service exposes order reads and admin transitions.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, error)
	VerifyGuestOwnership(ctx context.Context, reference, phone string) (*models.Order, error)
	Transition(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error)
}

type service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds the orders service.
func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

// GetByID loads any order. Back-office use; customer paths go through
// GetForUser or VerifyGuestOwnership.
func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.repo.GetByID(ctx, id)
}

// GetForUser loads an order only when it belongs to the user.
func (s *service) GetForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID == nil || *order.UserID != userID {
		return nil, apperrors.New(apperrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// ListForUser returns the user's order history.
func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// List returns orders for the back office.
func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Order, error) {
	return s.repo.List(ctx, filter)
}

// VerifyGuestOwnership resolves a guest's order from its simplified
// code and phone number. Reference matching runs exact, then
// case-insensitive, then prefix (at least six characters), in that
// order; the phone must match by normalized digits. Both failure
// modes return the same generic not-found.
func (s *service) VerifyGuestOwnership(ctx context.Context, reference, phone string) (*models.Order, error) {
	reference = strings.TrimSpace(reference)
	phoneDigits := normalizePhone(phone)
	if reference == "" || len(phoneDigits) < 8 {
		return nil, apperrors.New(apperrors.CodeNotFound, guestLookupMessage)
	}

	candidates, err := s.repo.FindForGuestLookup(ctx, reference)
	if err != nil {
		return nil, err
	}

	if match := pickLookupMatch(candidates, reference); match != nil {
		if phonesMatch(normalizePhone(match.CustomerPhone), phoneDigits) {
			return s.repo.GetByID(ctx, match.ID)
		}
	}
	return nil, apperrors.New(apperrors.CodeNotFound, guestLookupMessage)
}

// pickLookupMatch applies the priority order over candidate rows.
func pickLookupMatch(candidates []models.Order, reference string) *models.Order {
	upper := strings.ToUpper(reference)
	for i := range candidates {
		if candidates[i].SimplifiedID == reference {
			return &candidates[i]
		}
	}
	for i := range candidates {
		if strings.ToUpper(candidates[i].SimplifiedID) == upper {
			return &candidates[i]
		}
	}
	if len(reference) < minLookupPrefix {
		return nil
	}
	var prefixMatch *models.Order
	for i := range candidates {
		if strings.HasPrefix(strings.ToUpper(candidates[i].SimplifiedID), upper) {
			if prefixMatch != nil {
				return nil // ambiguous fragment, refuse to guess
			}
			prefixMatch = &candidates[i]
		}
	}
	return prefixMatch
}

// phonesMatch compares normalized digit strings, tolerating a country
// code prefix on either side.
func phonesMatch(stored, provided string) bool {
	if stored == "" || provided == "" {
		return false
	}
	if stored == provided {
		return true
	}
	shorter, longer := stored, provided
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) < 9 {
		return false
	}
	return strings.HasSuffix(longer, shorter)
}

// Transition applies an admin-requested status change and persists
// the result.
func (s *service) Transition(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := ApplyTransition(order, target, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID.String(),
		"status":   order.Status.String(),
	})
	s.logg.Info(logCtx, "order status updated")
	return order, nil
}
