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
	"github.com/reventa-uy/reventa-backend/internal/inventory"
)

type testInventoryService struct {
	createFn   func(ctx context.Context, input inventory.CreateListingInput) (*inventory.ListingDTO, error)
	getFn      func(ctx context.Context, listingID, requesterUserID uuid.UUID) (*inventory.ListingDTO, error)
	listMineFn func(ctx context.Context, sellerUserID uuid.UUID) ([]inventory.ListingDTO, error)
	cancelFn   func(ctx context.Context, listingID, sellerUserID uuid.UUID) error
}

func (s *testInventoryService) Create(ctx context.Context, input inventory.CreateListingInput) (*inventory.ListingDTO, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return &inventory.ListingDTO{}, nil
}

func (s *testInventoryService) Get(ctx context.Context, listingID, requesterUserID uuid.UUID) (*inventory.ListingDTO, error) {
	if s.getFn != nil {
		return s.getFn(ctx, listingID, requesterUserID)
	}
	return &inventory.ListingDTO{}, nil
}

func (s *testInventoryService) ListMine(ctx context.Context, sellerUserID uuid.UUID) ([]inventory.ListingDTO, error) {
	if s.listMineFn != nil {
		return s.listMineFn(ctx, sellerUserID)
	}
	return nil, nil
}

func (s *testInventoryService) Cancel(ctx context.Context, listingID, sellerUserID uuid.UUID) error {
	if s.cancelFn != nil {
		return s.cancelFn(ctx, listingID, sellerUserID)
	}
	return nil
}

func TestCreateListingHappyPath(t *testing.T) {
	seller := uuid.New()
	wave := uuid.New()
	var got inventory.CreateListingInput
	svc := &testInventoryService{
		createFn: func(ctx context.Context, input inventory.CreateListingInput) (*inventory.ListingDTO, error) {
			got = input
			return &inventory.ListingDTO{ID: uuid.New(), SellerUserID: input.SellerUserID, TicketWaveID: input.TicketWaveID}, nil
		},
	}

	body := strings.NewReader(`{"ticket_wave_id":"` + wave.String() + `","ticket_numbers":[11,12],"price_cents":250000}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", body)
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), seller.String()))
	resp := httptest.NewRecorder()
	CreateListing(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if got.SellerUserID != seller || got.TicketWaveID != wave {
		t.Fatalf("unexpected input %+v", got)
	}
	if len(got.TicketNumbers) != 2 || got.TicketNumbers[0] != 11 {
		t.Fatalf("unexpected ticket numbers %v", got.TicketNumbers)
	}
	if got.PriceCents != 250000 {
		t.Fatalf("unexpected price %d", got.PriceCents)
	}
}

func TestCreateListingRejectsEmptyTickets(t *testing.T) {
	wave := uuid.New()
	body := strings.NewReader(`{"ticket_wave_id":"` + wave.String() + `","ticket_numbers":[],"price_cents":1000}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", body)
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()
	CreateListing(&testInventoryService{}, testControllerLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateListingMissingUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	CreateListing(&testInventoryService{}, testControllerLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestGetListingParsesID(t *testing.T) {
	listingID := uuid.New()
	requester := uuid.New()
	var gotListing, gotRequester uuid.UUID
	svc := &testInventoryService{
		getFn: func(ctx context.Context, id, userID uuid.UUID) (*inventory.ListingDTO, error) {
			gotListing, gotRequester = id, userID
			return &inventory.ListingDTO{ID: id}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/"+listingID.String(), nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), requester.String()))
	req = addRouteParam(req, "listingId", listingID.String())
	resp := httptest.NewRecorder()
	GetListing(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if gotListing != listingID || gotRequester != requester {
		t.Fatalf("unexpected ids listing=%s requester=%s", gotListing, gotRequester)
	}
}

func TestGetListingRejectsInvalidID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/nope", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	req = addRouteParam(req, "listingId", "nope")
	resp := httptest.NewRecorder()
	GetListing(&testInventoryService{}, testControllerLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListMyListingsScopesToRequester(t *testing.T) {
	seller := uuid.New()
	svc := &testInventoryService{
		listMineFn: func(ctx context.Context, sellerUserID uuid.UUID) ([]inventory.ListingDTO, error) {
			return []inventory.ListingDTO{{ID: uuid.New(), SellerUserID: sellerUserID}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), seller.String()))
	resp := httptest.NewRecorder()
	ListMyListings(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}

	var envelope struct {
		Data struct {
			Listings []inventory.ListingDTO `json:"listings"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Listings) != 1 || envelope.Data.Listings[0].SellerUserID != seller {
		t.Fatalf("unexpected listings %+v", envelope.Data.Listings)
	}
}

func TestCancelListingForwardsIDs(t *testing.T) {
	listingID := uuid.New()
	seller := uuid.New()
	var gotListing, gotSeller uuid.UUID
	svc := &testInventoryService{
		cancelFn: func(ctx context.Context, id, sellerUserID uuid.UUID) error {
			gotListing, gotSeller = id, sellerUserID
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/"+listingID.String()+"/cancel", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), seller.String()))
	req = addRouteParam(req, "listingId", listingID.String())
	resp := httptest.NewRecorder()
	CancelListing(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if gotListing != listingID || gotSeller != seller {
		t.Fatalf("unexpected ids listing=%s seller=%s", gotListing, gotSeller)
	}
}
