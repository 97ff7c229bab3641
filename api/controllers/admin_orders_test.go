package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
	pkgerrors "github.com/karimsaleh/freshbasket-backend/pkg/errors"
)

func adminOrderRequest(method, body string, orderID uuid.UUID, path string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderID", orderID.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestAdminOrdersListParsesFilters(t *testing.T) {
	svc := &stubOrderService{}
	handler := AdminOrdersList(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders?status=paid&phone=0101&limit=20&offset=40", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastFilter.Status == nil || *svc.lastFilter.Status != enums.OrderStatusPaid {
		t.Fatalf("status filter not forwarded: %+v", svc.lastFilter)
	}
	if svc.lastFilter.Phone != "0101" || svc.lastFilter.Limit != 20 || svc.lastFilter.Offset != 40 {
		t.Fatalf("unexpected filter: %+v", svc.lastFilter)
	}
}

func TestAdminOrdersListRejectsUnknownStatus(t *testing.T) {
	handler := AdminOrdersList(&stubOrderService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders?status=refunded", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status got %d", resp.Code)
	}
}

func TestAdminOrderUpdateStatus(t *testing.T) {
	order := sampleOrder()
	order.Status = enums.OrderStatusShipped
	svc := &stubOrderService{order: order}
	handler := AdminOrderUpdateStatus(svc, nil)

	req := adminOrderRequest(http.MethodPatch, `{"status":"shipped"}`, order.ID, "/api/v1/admin/orders/"+order.ID.String()+"/status")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastTransition != enums.OrderStatusShipped {
		t.Fatalf("expected shipped transition got %s", svc.lastTransition)
	}
}

func TestAdminOrderUpdateStatusRejectsUnknown(t *testing.T) {
	handler := AdminOrderUpdateStatus(&stubOrderService{}, nil)

	orderID := uuid.New()
	req := adminOrderRequest(http.MethodPatch, `{"status":"refunded"}`, orderID, "/api/v1/admin/orders/"+orderID.String()+"/status")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status got %d", resp.Code)
	}
}

func TestAdminOrderUpdateStatusSurfacesStateConflict(t *testing.T) {
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "cannot move order from shipped to cancelled")}
	handler := AdminOrderUpdateStatus(svc, nil)

	orderID := uuid.New()
	req := adminOrderRequest(http.MethodPatch, `{"status":"cancelled"}`, orderID, "/api/v1/admin/orders/"+orderID.String()+"/status")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for graph violation got %d", resp.Code)
	}
}
