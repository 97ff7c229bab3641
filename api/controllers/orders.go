package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/karimsaleh/freshbasket-backend/api/responses"
	"github.com/karimsaleh/freshbasket-backend/api/validators"
	ordersvc "github.com/karimsaleh/freshbasket-backend/internal/orders"
	"github.com/karimsaleh/freshbasket-backend/pkg/db/models"
	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
	pkgerrors "github.com/karimsaleh/freshbasket-backend/pkg/errors"
	"github.com/karimsaleh/freshbasket-backend/pkg/logger"
	"github.com/karimsaleh/freshbasket-backend/pkg/types"
)

// OrdersListMine returns the authenticated user's order history.
func OrdersListMine(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		limit, _ := strconv.Atoi(query.Get("limit"))
		offset, _ := strconv.Atoi(query.Get("offset"))

		list, err := svc.ListForUser(r.Context(), userID, limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]orderResponse, 0, len(list))
		for i := range list {
			out = append(out, newOrderResponse(&list[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// OrderGetMine returns one of the user's orders.
func OrderGetMine(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetForUser(r.Context(), orderID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type guestLookupRequest struct {
	Reference string `json:"reference" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
}

// OrderGuestLookup resolves an order from its human-facing code and
// the phone it was placed under. No account needed.
func OrderGuestLookup(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var payload guestLookupRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.VerifyGuestOwnership(r.Context(), payload.Reference, payload.Phone)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type orderResponse struct {
	ID              uuid.UUID              `json:"id"`
	SimplifiedID    string                 `json:"simplified_id"`
	Status          enums.OrderStatus      `json:"status"`
	Flags           ordersvc.Flags         `json:"flags"`
	CustomerName    string                 `json:"customer_name"`
	CustomerPhone   string                 `json:"customer_phone"`
	DeliveryMethod  enums.DeliveryMethod   `json:"delivery_method"`
	ShippingAddress *types.ShippingAddress `json:"shipping_address,omitempty"`
	Currency        enums.Currency         `json:"currency"`
	Subtotal        decimal.Decimal        `json:"subtotal"`
	ServiceFee      decimal.Decimal        `json:"service_fee"`
	DeliveryFee     decimal.Decimal        `json:"delivery_fee"`
	Total           decimal.Decimal        `json:"total"`
	PaidAt          *time.Time             `json:"paid_at,omitempty"`
	DeliveredAt     *time.Time             `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time             `json:"cancelled_at,omitempty"`
	Items           []orderItemResponse    `json:"items"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

type orderItemResponse struct {
	ProductID     uuid.UUID           `json:"product_id"`
	ProductName   string              `json:"product_name"`
	SellingMethod enums.SellingMethod `json:"selling_method"`
	Quantity      int                 `json:"quantity"`
	WeightKg      *float64            `json:"weight_kg,omitempty"`
	UnitPrice     decimal.Decimal     `json:"unit_price"`
	LineTotal     decimal.Decimal     `json:"line_total"`
}

func newOrderResponse(order *models.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ProductID:     item.ProductID,
			ProductName:   item.ProductName,
			SellingMethod: item.SellingMethod,
			Quantity:      item.Quantity,
			WeightKg:      item.WeightKg,
			UnitPrice:     item.UnitPrice,
			LineTotal:     item.LineTotal,
		})
	}

	return orderResponse{
		ID:              order.ID,
		SimplifiedID:    order.SimplifiedID,
		Status:          order.Status,
		Flags:           ordersvc.DeriveFlags(order.Status),
		CustomerName:    order.CustomerName,
		CustomerPhone:   order.CustomerPhone,
		DeliveryMethod:  order.DeliveryMethod,
		ShippingAddress: order.ShippingAddress,
		Currency:        order.Currency,
		Subtotal:        order.Subtotal,
		ServiceFee:      order.ServiceFee,
		DeliveryFee:     order.DeliveryFee,
		Total:           order.Total,
		PaidAt:          order.PaidAt,
		DeliveredAt:     order.DeliveredAt,
		CancelledAt:     order.CancelledAt,
		Items:           items,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}
