// Package gateway implements the HTTP client for the external QR
// payment processor. The processor exposes three calls: authenticate
// for a short-lived bearer token, create a scannable payment code, and
// check the status of an issued code.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/karimsaleh/freshbasket-backend/pkg/config"
	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
	apperrors "github.com/karimsaleh/freshbasket-backend/pkg/errors"
	"github.com/karimsaleh/freshbasket-backend/pkg/metrics"
)

// Client calls the external payment processor.
type Client interface {
	CreateCode(ctx context.Context, req CreateCodeRequest) (*CreateCodeResponse, error)
	CheckStatus(ctx context.Context, qrID string) (*StatusResponse, error)
	Configured() bool
}

// CreateCodeRequest asks the processor for a scannable payment code.
type CreateCodeRequest struct {
	Reference string
	Amount    decimal.Decimal
	Currency  enums.Currency
}

// CreateCodeResponse carries the issued code. QRImage is a data URI or
// hosted image URL depending on the processor plan.
type CreateCodeResponse struct {
	QRID      string
	QRImage   string
	ExpiresAt time.Time
}

// StatusResponse is the processor's view of a code, translated to the
// canonical payment status set.
type StatusResponse struct {
	Status  enums.PaymentStatus
	Message string
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type client struct {
	cfg  config.GatewayConfig
	http httpDoer
	mtx  *metrics.PaymentMetrics

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient builds the processor client. The metrics argument may be
// nil.
func NewClient(cfg config.GatewayConfig, mtx *metrics.PaymentMetrics) (Client, error) {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		mtx:  mtx,
	}, nil
}

// Configured reports whether live credentials are present.
func (c *client) Configured() bool {
	return c.cfg.Configured()
}

type authRequest struct {
	MerchantID string `json:"merchantId"`
	APIKey     string `json:"apiKey"`
}

type authResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
}

type createCodeRequest struct {
	Reference string `json:"reference"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
}

type createCodeResponse struct {
	QRID      string `json:"qrId"`
	QRImage   string `json:"qrImage"`
	ExpiresAt string `json:"expiresAt"`
	Error     *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CreateCode requests a scannable payment code for the given amount.
func (c *client) CreateCode(ctx context.Context, req CreateCodeRequest) (*CreateCodeResponse, error) {
	if !c.Configured() {
		return nil, apperrors.New(apperrors.CodeDependency, "payment gateway is not configured")
	}
	if req.Reference == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "payment reference is required")
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.New(apperrors.CodeValidation, "payment amount must be positive")
	}

	token, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var parsed createCodeResponse
	err = c.postJSON(ctx, "/v1/codes", token, createCodeRequest{
		Reference: req.Reference,
		Amount:    req.Amount.StringFixed(2),
		Currency:  req.Currency.String(),
	}, &parsed)
	c.mtx.ObserveGatewayRequest("create_code", time.Since(start))
	if err != nil {
		return nil, err
	}
	if parsed.Error != nil {
		return nil, apperrors.New(apperrors.CodeDependency,
			fmt.Sprintf("payment processor rejected code creation: %s", parsed.Error.Message))
	}
	if parsed.QRID == "" || parsed.QRImage == "" {
		return nil, apperrors.New(apperrors.CodeDependency, "payment processor returned an empty code")
	}

	expiresAt, err := time.Parse(time.RFC3339, parsed.ExpiresAt)
	if err != nil {
		expiresAt = time.Now().Add(c.cfg.CodeTTL)
	}

	return &CreateCodeResponse{
		QRID:      parsed.QRID,
		QRImage:   parsed.QRImage,
		ExpiresAt: expiresAt,
	}, nil
}

// CheckStatus asks the processor for the current state of a code.
// Safe to call repeatedly.
func (c *client) CheckStatus(ctx context.Context, qrID string) (*StatusResponse, error) {
	if !c.Configured() {
		return nil, apperrors.New(apperrors.CodeDependency, "payment gateway is not configured")
	}
	if qrID == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "qr id is required")
	}

	token, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var parsed statusResponse
	err = c.getJSON(ctx, "/v1/codes/"+qrID+"/status", token, &parsed)
	c.mtx.ObserveGatewayRequest("check_status", time.Since(start))
	if err != nil {
		return nil, err
	}

	return &StatusResponse{
		Status:  translateStatus(parsed.Status),
		Message: parsed.Message,
	}, nil
}

// authenticate returns a cached bearer token, refreshing when it is
// within a minute of expiry.
func (c *client) authenticate(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Until(c.tokenExpiry) > time.Minute {
		return c.token, nil
	}

	start := time.Now()
	var parsed authResponse
	err := c.postJSON(ctx, "/v1/auth/token", "", authRequest{
		MerchantID: c.cfg.MerchantID,
		APIKey:     c.cfg.APIKey,
	}, &parsed)
	c.mtx.ObserveGatewayRequest("authenticate", time.Since(start))
	if err != nil {
		return "", err
	}
	if parsed.Token == "" {
		return "", apperrors.New(apperrors.CodeDependency, "payment processor returned an empty auth token")
	}

	c.token = parsed.Token
	c.tokenExpiry = time.Now().Add(time.Duration(parsed.ExpiresIn) * time.Second)
	return c.token, nil
}

func (c *client) postJSON(ctx context.Context, path, token string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "encoding gateway request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "building gateway request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(req, token, out)
}

func (c *client) getJSON(ctx context.Context, path, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "building gateway request")
	}
	return c.send(req, token, out)
}

func (c *client) send(req *http.Request, token string, out any) error {
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "payment processor unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "reading gateway response")
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return apperrors.New(apperrors.CodeDependency, "payment processor rejected credentials")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.New(apperrors.CodeDependency,
			fmt.Sprintf("payment processor returned status %d", resp.StatusCode))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "decoding gateway response")
	}
	return nil
}

// translateStatus maps processor status codes to the canonical set.
// Unknown codes read as error so callers stop polling.
func translateStatus(raw string) enums.PaymentStatus {
	switch raw {
	case "PENDING", "CREATED", "SCANNED":
		return enums.PaymentStatusPending
	case "PAID", "SETTLED", "CAPTURED":
		return enums.PaymentStatusPaid
	case "EXPIRED", "TIMEOUT":
		return enums.PaymentStatusExpired
	default:
		return enums.PaymentStatusError
	}
}
