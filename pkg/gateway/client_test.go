package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karimsaleh/freshbasket-backend/pkg/config"
	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
	apperrors "github.com/karimsaleh/freshbasket-backend/pkg/errors"
)

func newTestServer(t *testing.T, statusValue string) (*httptest.Server, *int) {
	t.Helper()
	authCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/auth/token", func(w http.ResponseWriter, r *http.Request) {
		authCalls++
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["apiKey"] != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"token": "tok-1", "expiresIn": 3600})
	})
	mux.HandleFunc("/v1/codes", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"qrId":      "qr-42",
			"qrImage":   "https://codes.example/qr-42.png",
			"expiresAt": time.Now().Add(15 * time.Minute).Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/v1/codes/qr-42/status", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": statusValue})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &authCalls
}

func testGatewayConfig(baseURL string) config.GatewayConfig {
	return config.GatewayConfig{
		BaseURL:        baseURL,
		MerchantID:     "merchant-1",
		APIKey:         "test-key",
		RequestTimeout: 5 * time.Second,
		CodeTTL:        15 * time.Minute,
	}
}

func TestCreateCode(t *testing.T) {
	server, authCalls := newTestServer(t, "PENDING")
	client, err := NewClient(testGatewayConfig(server.URL), nil)
	require.NoError(t, err)

	resp, err := client.CreateCode(context.Background(), CreateCodeRequest{
		Reference: "stg-1",
		Amount:    decimal.NewFromInt(206),
		Currency:  enums.CurrencyEGP,
	})
	require.NoError(t, err)
	assert.Equal(t, "qr-42", resp.QRID)
	assert.Equal(t, "https://codes.example/qr-42.png", resp.QRImage)
	assert.True(t, resp.ExpiresAt.After(time.Now()))
	assert.Equal(t, 1, *authCalls)
}

func TestCheckStatusReusesToken(t *testing.T) {
	server, authCalls := newTestServer(t, "PAID")
	client, err := NewClient(testGatewayConfig(server.URL), nil)
	require.NoError(t, err)

	_, err = client.CreateCode(context.Background(), CreateCodeRequest{
		Reference: "stg-1",
		Amount:    decimal.NewFromInt(100),
		Currency:  enums.CurrencyEGP,
	})
	require.NoError(t, err)

	status, err := client.CheckStatus(context.Background(), "qr-42")
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, status.Status)
	assert.Equal(t, 1, *authCalls)
}

func TestCreateCodeRejectsInvalidAmount(t *testing.T) {
	server, _ := newTestServer(t, "PENDING")
	client, err := NewClient(testGatewayConfig(server.URL), nil)
	require.NoError(t, err)

	_, err = client.CreateCode(context.Background(), CreateCodeRequest{
		Reference: "stg-1",
		Amount:    decimal.Zero,
		Currency:  enums.CurrencyEGP,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.As(err).Code())
}

func TestUnconfiguredGatewayIsDependencyError(t *testing.T) {
	client, err := NewClient(config.GatewayConfig{}, nil)
	require.NoError(t, err)

	_, err = client.CreateCode(context.Background(), CreateCodeRequest{
		Reference: "stg-1",
		Amount:    decimal.NewFromInt(10),
		Currency:  enums.CurrencyEGP,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDependency, apperrors.As(err).Code())
	assert.False(t, client.Configured())
}

func TestBadCredentialsSurfaceAsDependencyError(t *testing.T) {
	server, _ := newTestServer(t, "PENDING")
	cfg := testGatewayConfig(server.URL)
	cfg.APIKey = "wrong"
	client, err := NewClient(cfg, nil)
	require.NoError(t, err)

	_, err = client.CheckStatus(context.Background(), "qr-42")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDependency, apperrors.As(err).Code())
}

func TestTranslateStatus(t *testing.T) {
	assert.Equal(t, enums.PaymentStatusPending, translateStatus("SCANNED"))
	assert.Equal(t, enums.PaymentStatusPaid, translateStatus("SETTLED"))
	assert.Equal(t, enums.PaymentStatusExpired, translateStatus("TIMEOUT"))
	assert.Equal(t, enums.PaymentStatusError, translateStatus("SOMETHING_ELSE"))
}
