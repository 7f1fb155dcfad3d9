package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/reventa-uy/reventa-backend/api/middleware"
	"github.com/reventa-uy/reventa-backend/internal/earnings"
	"github.com/reventa-uy/reventa-backend/pkg/db/models"
)

type testEarningsService struct {
	listFn    func(ctx context.Context, sellerUserID uuid.UUID) ([]models.SellerEarnings, error)
	requestFn func(ctx context.Context, input earnings.RequestPayoutInput) (*models.Payout, error)
	settleFn  func(ctx context.Context, input earnings.SettlePayoutInput) error
}

func (s *testEarningsService) CheckHoldPeriods(ctx context.Context, batchSize int) (earnings.HoldSweepResult, error) {
	return earnings.HoldSweepResult{}, nil
}

func (s *testEarningsService) ListForSeller(ctx context.Context, sellerUserID uuid.UUID) ([]models.SellerEarnings, error) {
	if s.listFn != nil {
		return s.listFn(ctx, sellerUserID)
	}
	return nil, nil
}

func (s *testEarningsService) RequestPayout(ctx context.Context, input earnings.RequestPayoutInput) (*models.Payout, error) {
	if s.requestFn != nil {
		return s.requestFn(ctx, input)
	}
	return &models.Payout{}, nil
}

func (s *testEarningsService) SettlePayout(ctx context.Context, input earnings.SettlePayoutInput) error {
	if s.settleFn != nil {
		return s.settleFn(ctx, input)
	}
	return nil
}

func TestListEarningsScopesToRequester(t *testing.T) {
	seller := uuid.New()
	var got uuid.UUID
	svc := &testEarningsService{
		listFn: func(ctx context.Context, sellerUserID uuid.UUID) ([]models.SellerEarnings, error) {
			got = sellerUserID
			return []models.SellerEarnings{{SellerUserID: sellerUserID, AmountCents: 4500}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/earnings", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), seller.String()))
	resp := httptest.NewRecorder()
	ListEarnings(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if got != seller {
		t.Fatalf("expected seller %s got %s", seller, got)
	}
}

func TestListEarningsMissingUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/earnings", nil)
	resp := httptest.NewRecorder()
	ListEarnings(&testEarningsService{}, testControllerLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRequestPayoutHappyPath(t *testing.T) {
	seller := uuid.New()
	method := uuid.New()
	var got earnings.RequestPayoutInput
	svc := &testEarningsService{
		requestFn: func(ctx context.Context, input earnings.RequestPayoutInput) (*models.Payout, error) {
			got = input
			return &models.Payout{ID: uuid.New(), SellerUserID: input.SellerUserID, AmountCents: 12000}, nil
		},
	}

	body := strings.NewReader(`{"payout_method_id":"` + method.String() + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payouts", body)
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), seller.String()))
	resp := httptest.NewRecorder()
	RequestPayout(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if got.SellerUserID != seller || got.PayoutMethodID != method {
		t.Fatalf("unexpected input %+v", got)
	}

	var envelope struct {
		Data models.Payout `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AmountCents != 12000 {
		t.Fatalf("unexpected amount %d", envelope.Data.AmountCents)
	}
}

func TestRequestPayoutRejectsBadMethodID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payouts", strings.NewReader(`{"payout_method_id":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()
	RequestPayout(&testEarningsService{}, testControllerLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestSettlePayoutForwardsOutcome(t *testing.T) {
	payoutID := uuid.New()
	var got earnings.SettlePayoutInput
	svc := &testEarningsService{
		settleFn: func(ctx context.Context, input earnings.SettlePayoutInput) error {
			got = input
			return nil
		},
	}

	reason := "bank rejected the transfer"
	body := strings.NewReader(`{"succeeded":false,"failure_reason":"` + reason + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/payouts/"+payoutID.String()+"/settle", body)
	req.Header.Set("Content-Type", "application/json")
	req = addRouteParam(req, "payoutId", payoutID.String())
	resp := httptest.NewRecorder()
	SettlePayout(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if got.PayoutID != payoutID || got.Succeeded || got.FailureReason == nil || *got.FailureReason != reason {
		t.Fatalf("unexpected input %+v", got)
	}
}

func TestSettlePayoutRequiresFailureReason(t *testing.T) {
	payoutID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/payouts/"+payoutID.String()+"/settle", strings.NewReader(`{"succeeded":false}`))
	req.Header.Set("Content-Type", "application/json")
	req = addRouteParam(req, "payoutId", payoutID.String())
	resp := httptest.NewRecorder()
	SettlePayout(&testEarningsService{}, testControllerLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestSettlePayoutRejectsInvalidID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/payouts/nope/settle", strings.NewReader(`{"succeeded":true}`))
	req.Header.Set("Content-Type", "application/json")
	req = addRouteParam(req, "payoutId", "nope")
	resp := httptest.NewRecorder()
	SettlePayout(&testEarningsService{}, testControllerLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
