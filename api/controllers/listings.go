package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/reventa-uy/reventa-backend/api/responses"
	"github.com/reventa-uy/reventa-backend/api/validators"
	"github.com/reventa-uy/reventa-backend/internal/inventory"
	pkgerrors "github.com/reventa-uy/reventa-backend/pkg/errors"
	"github.com/reventa-uy/reventa-backend/pkg/logger"
)

type createListingRequest struct {
	TicketWaveID  string `json:"ticket_wave_id" validate:"required,uuid4"`
	TicketNumbers []int  `json:"ticket_numbers" validate:"required,min=1,dive,gt=0"`
	PriceCents    int64  `json:"price_cents" validate:"required,gt=0"`
}

// CreateListing publishes a seller's tickets for resale.
func CreateListing(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		sellerID, err := requesterID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createListingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		waveID, err := uuid.Parse(strings.TrimSpace(payload.TicketWaveID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ticket wave id"))
			return
		}

		listing, err := svc.Create(r.Context(), inventory.CreateListingInput{
			SellerUserID:  sellerID,
			TicketWaveID:  waveID,
			TicketNumbers: payload.TicketNumbers,
			PriceCents:    payload.PriceCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, listing)
	}
}

// GetListing returns one listing with its per-ticket states.
func GetListing(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		userID, err := requesterID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listingID, err := parseListingID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.Get(r.Context(), listingID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

// ListMyListings returns the authenticated seller's listings.
func ListMyListings(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		sellerID, err := requesterID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listings, err := svc.ListMine(r.Context(), sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"listings": listings})
	}
}

// CancelListing withdraws the available tickets of a listing from sale.
func CancelListing(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		sellerID, err := requesterID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listingID, err := parseListingID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Cancel(r.Context(), listingID, sellerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"cancelled": true})
	}
}

func parseListingID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "listingId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing id")
	}
	return parsed, nil
}
