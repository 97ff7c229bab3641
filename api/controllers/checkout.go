package controllers

import (
	"net/http"
	"time"

	"github.com/karimsaleh/freshbasket-backend/api/responses"
	"github.com/karimsaleh/freshbasket-backend/api/validators"
	ordersvc "github.com/karimsaleh/freshbasket-backend/internal/orders"
	"github.com/karimsaleh/freshbasket-backend/internal/payments"
	"github.com/karimsaleh/freshbasket-backend/internal/staging"
	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
	pkgerrors "github.com/karimsaleh/freshbasket-backend/pkg/errors"
	"github.com/karimsaleh/freshbasket-backend/pkg/logger"
	"github.com/karimsaleh/freshbasket-backend/pkg/types"
)

type quoteRequest struct {
	DeliveryMethod string `json:"delivery_method" validate:"required"`
}

// CheckoutQuote prices the current cart for a delivery method without
// staging anything.
func CheckoutQuote(svc staging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := ownerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParseDeliveryMethod(payload.DeliveryMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery method"))
			return
		}

		quote, err := svc.Quote(r.Context(), owner, method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quoteBreakdown{
			Subtotal:    quote.Subtotal.StringFixed(2),
			ServiceFee:  quote.ServiceFee.StringFixed(2),
			DeliveryFee: quote.DeliveryFee.StringFixed(2),
			Total:       quote.Total.StringFixed(2),
			Currency:    string(quote.Currency),
		})
	}
}

type stageCheckoutRequest struct {
	CustomerName    string                 `json:"customer_name" validate:"required"`
	Phone           string                 `json:"phone" validate:"required"`
	DeliveryMethod  string                 `json:"delivery_method" validate:"required"`
	ShippingAddress *types.ShippingAddress `json:"shipping_address,omitempty"`
	PickupLocation  *string                `json:"pickup_location,omitempty"`
}

type stagedCheckoutResponse struct {
	Token     string         `json:"token"`
	Quote     quoteBreakdown `json:"quote"`
	CreatedAt time.Time      `json:"created_at"`
}

type quoteBreakdown struct {
	Subtotal    string `json:"subtotal"`
	ServiceFee  string `json:"service_fee"`
	DeliveryFee string `json:"delivery_fee"`
	Total       string `json:"total"`
	Currency    string `json:"currency"`
}

// CheckoutStage snapshots the cart plus checkout form into the
// short-lived staging buffer. Nothing durable is created yet.
func CheckoutStage(svc staging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := ownerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload stageCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParseDeliveryMethod(payload.DeliveryMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery method"))
			return
		}

		record, err := svc.Stage(r.Context(), owner, staging.StageInput{
			CustomerName:    payload.CustomerName,
			Phone:           payload.Phone,
			DeliveryMethod:  method,
			ShippingAddress: payload.ShippingAddress,
			PickupLocation:  payload.PickupLocation,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, stagedCheckoutResponse{
			Token: record.Token,
			Quote: quoteBreakdown{
				Subtotal:    record.Subtotal.StringFixed(2),
				ServiceFee:  record.ServiceFee.StringFixed(2),
				DeliveryFee: record.DeliveryFee.StringFixed(2),
				Total:       record.Total.StringFixed(2),
				Currency:    string(record.Currency),
			},
			CreatedAt: record.CreatedAt,
		})
	}
}

type confirmCheckoutRequest struct {
	StagingToken  string `json:"staging_token" validate:"required"`
	TransactionID string `json:"transaction_id" validate:"required"`
}

// CheckoutConfirm turns a staged checkout into a durable order once
// its payment has settled. Safe to retry: a second confirmation of
// the same staging token returns the existing order.
func CheckoutConfirm(paySvc payments.Service, materializer *ordersvc.Materializer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if paySvc == nil || materializer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout confirmation unavailable"))
			return
		}

		var payload confirmCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := paySvc.GetTransaction(r.Context(), payload.TransactionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if txn.StagingToken != payload.StagingToken {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "transaction does not belong to this checkout"))
			return
		}
		if txn.Status != enums.PaymentStatusPaid {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "payment has not settled"))
			return
		}

		order, err := materializer.Materialize(r.Context(), payload.StagingToken, payload.TransactionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}
