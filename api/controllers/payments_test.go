package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/reventa-uy/reventa-backend/api/middleware"
	"github.com/reventa-uy/reventa-backend/internal/payments"
	pkgerrors "github.com/reventa-uy/reventa-backend/pkg/errors"
)

type testPaymentsService struct {
	createFn func(ctx context.Context, input payments.CreatePaymentInput) (*payments.PaymentDTO, error)
	listFn   func(ctx context.Context, orderID, requesterUserID uuid.UUID) ([]payments.PaymentDTO, error)
}

func (s *testPaymentsService) CreatePayment(ctx context.Context, input payments.CreatePaymentInput) (*payments.PaymentDTO, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return &payments.PaymentDTO{}, nil
}

func (s *testPaymentsService) ListOrderPayments(ctx context.Context, orderID, requesterUserID uuid.UUID) ([]payments.PaymentDTO, error) {
	if s.listFn != nil {
		return s.listFn(ctx, orderID, requesterUserID)
	}
	return nil, nil
}

func TestCreatePaymentHappyPath(t *testing.T) {
	buyer := uuid.New()
	orderID := uuid.New()
	checkout := "https://pay.example.com/mp-42"
	var got payments.CreatePaymentInput
	svc := &testPaymentsService{
		createFn: func(ctx context.Context, input payments.CreatePaymentInput) (*payments.PaymentDTO, error) {
			got = input
			return &payments.PaymentDTO{
				ID:                uuid.New(),
				OrderID:           input.OrderID,
				ProviderPaymentID: "mp-42",
				CheckoutURL:       &checkout,
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/payments", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), buyer.String()))
	req = addRouteParam(req, "orderId", orderID.String())
	resp := httptest.NewRecorder()
	CreatePayment(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if got.OrderID != orderID || got.BuyerUserID != buyer {
		t.Fatalf("unexpected input %+v", got)
	}

	var envelope struct {
		Data payments.PaymentDTO `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.CheckoutURL == nil || *envelope.Data.CheckoutURL != checkout {
		t.Fatalf("unexpected checkout url %+v", envelope.Data.CheckoutURL)
	}
}

func TestCreatePaymentMissingUser(t *testing.T) {
	orderID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/payments", nil)
	req = addRouteParam(req, "orderId", orderID.String())
	resp := httptest.NewRecorder()
	CreatePayment(&testPaymentsService{}, testControllerLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCreatePaymentRejectsInvalidOrderID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/nope/payments", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	req = addRouteParam(req, "orderId", "nope")
	resp := httptest.NewRecorder()
	CreatePayment(&testPaymentsService{}, testControllerLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreatePaymentSurfacesStateConflict(t *testing.T) {
	orderID := uuid.New()
	svc := &testPaymentsService{
		createFn: func(ctx context.Context, input payments.CreatePaymentInput) (*payments.PaymentDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not payable")
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/payments", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	req = addRouteParam(req, "orderId", orderID.String())
	resp := httptest.NewRecorder()
	CreatePayment(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestListOrderPaymentsScopesToRequester(t *testing.T) {
	buyer := uuid.New()
	orderID := uuid.New()
	var gotOrder, gotBuyer uuid.UUID
	svc := &testPaymentsService{
		listFn: func(ctx context.Context, oid, userID uuid.UUID) ([]payments.PaymentDTO, error) {
			gotOrder, gotBuyer = oid, userID
			return []payments.PaymentDTO{{ID: uuid.New(), OrderID: oid}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String()+"/payments", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), buyer.String()))
	req = addRouteParam(req, "orderId", orderID.String())
	resp := httptest.NewRecorder()
	ListOrderPayments(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if gotOrder != orderID || gotBuyer != buyer {
		t.Fatalf("unexpected ids order=%s buyer=%s", gotOrder, gotBuyer)
	}

	var envelope struct {
		Data struct {
			Payments []payments.PaymentDTO `json:"payments"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Payments) != 1 {
		t.Fatalf("unexpected payments %+v", envelope.Data.Payments)
	}
}
