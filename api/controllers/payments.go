package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/karimsaleh/freshbasket-backend/api/responses"
	"github.com/karimsaleh/freshbasket-backend/api/validators"
	"github.com/karimsaleh/freshbasket-backend/internal/payments"
	"github.com/karimsaleh/freshbasket-backend/internal/staging"
	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
	pkgerrors "github.com/karimsaleh/freshbasket-backend/pkg/errors"
	"github.com/karimsaleh/freshbasket-backend/pkg/logger"
)

type requestPaymentRequest struct {
	StagingToken string `json:"staging_token" validate:"required"`
}

type paymentCodeResponse struct {
	TransactionID string              `json:"transaction_id"`
	QRID          string              `json:"qr_id,omitempty"`
	QRImage       string              `json:"qr_image"`
	Amount        string              `json:"amount"`
	Currency      enums.Currency      `json:"currency"`
	Status        enums.PaymentStatus `json:"status"`
	IsMock        bool                `json:"is_mock"`
}

// PaymentRequestCode asks the processor for a QR code covering the
// staged checkout's total. The amount comes from the staged record,
// never from the client.
func PaymentRequestCode(paySvc payments.Service, stagingSvc staging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if paySvc == nil || stagingSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments unavailable"))
			return
		}

		var payload requestPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := stagingSvc.Retrieve(r.Context(), payload.StagingToken)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := paySvc.RequestPayment(r.Context(), record.Token, record.Total, record.Currency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, paymentCodeResponse{
			TransactionID: txn.TransactionID,
			QRID:          txn.QRID,
			QRImage:       txn.QRImage,
			Amount:        txn.Amount.StringFixed(2),
			Currency:      txn.Currency,
			Status:        txn.Status,
			IsMock:        txn.IsMock,
		})
	}
}

type paymentStatusResponse struct {
	TransactionID string              `json:"transaction_id"`
	Status        enums.PaymentStatus `json:"status"`
	Message       string              `json:"message,omitempty"`
}

// PaymentStatus polls the processor once for the transaction's state.
// The client calls this on its polling cadence.
func PaymentStatus(paySvc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if paySvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments unavailable"))
			return
		}

		transactionID := chi.URLParam(r, "transactionID")
		if transactionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "transactionID required"))
			return
		}

		result, err := paySvc.PollStatus(r.Context(), transactionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, paymentStatusResponse{
			TransactionID: transactionID,
			Status:        result.Status,
			Message:       result.Message,
		})
	}
}
