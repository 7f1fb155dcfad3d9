package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/reventa-uy/reventa-backend/api/responses"
	"github.com/reventa-uy/reventa-backend/api/validators"
	"github.com/reventa-uy/reventa-backend/internal/earnings"
	pkgerrors "github.com/reventa-uy/reventa-backend/pkg/errors"
	"github.com/reventa-uy/reventa-backend/pkg/logger"
)

// ListEarnings returns the authenticated seller's per-ticket earnings.
func ListEarnings(svc earnings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "earnings service unavailable"))
			return
		}

		sellerID, err := requesterID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListForSeller(r.Context(), sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"earnings": rows})
	}
}

type requestPayoutRequest struct {
	PayoutMethodID string `json:"payout_method_id" validate:"required,uuid4"`
}

// RequestPayout groups the seller's available earnings into one payout.
func RequestPayout(svc earnings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "earnings service unavailable"))
			return
		}

		sellerID, err := requesterID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload requestPayoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		methodID, err := uuid.Parse(strings.TrimSpace(payload.PayoutMethodID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payout method id"))
			return
		}

		payout, err := svc.RequestPayout(r.Context(), earnings.RequestPayoutInput{
			SellerUserID:   sellerID,
			PayoutMethodID: methodID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payout)
	}
}

type settlePayoutRequest struct {
	Succeeded     bool    `json:"succeeded"`
	FailureReason *string `json:"failure_reason" validate:"omitempty,max=255"`
}

// SettlePayout records the terminal outcome of a payout transfer. Admin only.
func SettlePayout(svc earnings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "earnings service unavailable"))
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "payoutId"))
		payoutID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payout id"))
			return
		}

		var payload settlePayoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if !payload.Succeeded && (payload.FailureReason == nil || strings.TrimSpace(*payload.FailureReason) == "") {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "failure_reason is required when succeeded is false"))
			return
		}

		if err := svc.SettlePayout(r.Context(), earnings.SettlePayoutInput{
			PayoutID:      payoutID,
			Succeeded:     payload.Succeeded,
			FailureReason: payload.FailureReason,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"settled": true})
	}
}
