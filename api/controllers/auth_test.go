package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	authsvc "github.com/karimsaleh/freshbasket-backend/internal/auth"
	pkgerrors "github.com/karimsaleh/freshbasket-backend/pkg/errors"
)

type stubAuthService struct {
	login   *authsvc.LoginResponse
	guest   *authsvc.GuestSessionResponse
	err     error
	lastReq authsvc.LoginRequest
}

func (s *stubAuthService) Login(ctx context.Context, req authsvc.LoginRequest) (*authsvc.LoginResponse, error) {
	s.lastReq = req
	return s.login, s.err
}

func (s *stubAuthService) AdminLogin(ctx context.Context, req authsvc.LoginRequest) (*authsvc.LoginResponse, error) {
	s.lastReq = req
	return s.login, s.err
}

func (s *stubAuthService) GuestSession(ctx context.Context) (*authsvc.GuestSessionResponse, error) {
	return s.guest, s.err
}

func TestLoginSuccess(t *testing.T) {
	svc := &stubAuthService{login: &authsvc.LoginResponse{AccessToken: "jwt-token"}}
	handler := Login(svc, nil)

	body := `{"phone":"01012345678","password":"secret-pass","session_token":"guest-session"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastReq.Phone != "01012345678" || svc.lastReq.SessionToken != "guest-session" {
		t.Fatalf("request not forwarded: %+v", svc.lastReq)
	}
}

func TestLoginRejectsMissingPassword(t *testing.T) {
	handler := Login(&stubAuthService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"phone":"01012345678"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without password got %d", resp.Code)
	}
}

func TestLoginSurfacesUnauthorized(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	handler := Login(svc, nil)

	body := `{"phone":"01012345678","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestGuestSessionCreated(t *testing.T) {
	svc := &stubAuthService{guest: &authsvc.GuestSessionResponse{
		AccessToken:  "jwt-token",
		SessionToken: "guest-session",
	}}
	handler := GuestSession(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/guest", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}

	var envelope struct {
		Data authsvc.GuestSessionResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.SessionToken != "guest-session" {
		t.Fatalf("unexpected session token %q", envelope.Data.SessionToken)
	}
}
