package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgAuth "github.com/karimsaleh/freshbasket-backend/pkg/auth"
	"github.com/karimsaleh/freshbasket-backend/pkg/config"
	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
)

func middlewareJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "freshbasket",
		ExpirationMinutes: 30,
	}
}

func mintTestToken(t *testing.T, payload pkgAuth.AccessTokenPayload) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(middlewareJWTConfig(), time.Now(), payload)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthSeedsCustomerContext(t *testing.T) {
	userID := uuid.New()
	token := mintTestToken(t, pkgAuth.AccessTokenPayload{
		UserID: &userID,
		Role:   enums.MemberRoleCustomer,
		JTI:    uuid.NewString(),
	})

	var gotUser, gotRole string
	handler := Auth(middlewareJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotUser != userID.String() {
		t.Fatalf("expected user id %s got %s", userID, gotUser)
	}
	if gotRole != string(enums.MemberRoleCustomer) {
		t.Fatalf("expected customer role got %s", gotRole)
	}
}

func TestAuthAcceptsGuestToken(t *testing.T) {
	token := mintTestToken(t, pkgAuth.AccessTokenPayload{
		Role:         enums.MemberRoleCustomer,
		SessionToken: "guest-session-1",
		JTI:          uuid.NewString(),
	})

	var gotSession string
	handler := Auth(middlewareJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = SessionTokenFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotSession != "guest-session-1" {
		t.Fatalf("expected session token in context, got %q", gotSession)
	}
}

func TestAuthRejectsMissingAndGarbageTokens(t *testing.T) {
	handler := Auth(middlewareJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing token got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token got %d", resp.Code)
	}
}

func TestOptionalAuthAllowsAnonymous(t *testing.T) {
	called := false
	handler := OptionalAuth(middlewareJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if UserIDFromContext(r.Context()) != "" {
			t.Fatal("anonymous request should carry no user id")
		}
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/lookup", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if !called || resp.Code != http.StatusOK {
		t.Fatalf("expected anonymous passthrough, called=%v code=%d", called, resp.Code)
	}
}

func TestRequireAdminBlocksCustomers(t *testing.T) {
	userID := uuid.New()
	customerToken := mintTestToken(t, pkgAuth.AccessTokenPayload{
		UserID: &userID,
		Role:   enums.MemberRoleCustomer,
		JTI:    uuid.NewString(),
	})
	adminToken := mintTestToken(t, pkgAuth.AccessTokenPayload{
		UserID: &userID,
		Role:   enums.MemberRoleAdmin,
		JTI:    uuid.NewString(),
	})

	chain := Auth(middlewareJWTConfig(), nil)(RequireAdmin(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer "+customerToken)
	resp := httptest.NewRecorder()
	chain.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp = httptest.NewRecorder()
	chain.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for admin got %d", resp.Code)
	}
}
