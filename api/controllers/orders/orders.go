package orders

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/reventa-uy/reventa-backend/api/middleware"
	"github.com/reventa-uy/reventa-backend/api/responses"
	"github.com/reventa-uy/reventa-backend/api/validators"
	checkoutsvc "github.com/reventa-uy/reventa-backend/internal/checkout"
	"github.com/reventa-uy/reventa-backend/internal/checkout/helpers"
	internalorders "github.com/reventa-uy/reventa-backend/internal/orders"
	"github.com/reventa-uy/reventa-backend/pkg/enums"
	pkgerrors "github.com/reventa-uy/reventa-backend/pkg/errors"
	"github.com/reventa-uy/reventa-backend/pkg/logger"
	"github.com/reventa-uy/reventa-backend/pkg/pagination"
)

type orderItemRequest struct {
	TicketWaveID string `json:"ticket_wave_id" validate:"required,uuid4"`
	PriceCents   int64  `json:"price_cents" validate:"required,gt=0"`
	Quantity     int    `json:"quantity" validate:"required,gt=0"`
}

type createOrderRequest struct {
	Items []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=255"`
}

// Create opens a pending order, reserving the requested tickets.
func Create(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		buyerID, err := parseRequester(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]helpers.ItemGroup, 0, len(payload.Items))
		for _, item := range payload.Items {
			waveID, err := uuid.Parse(strings.TrimSpace(item.TicketWaveID))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ticket wave id"))
				return
			}
			items = append(items, helpers.ItemGroup{
				TicketWaveID: waveID,
				PriceCents:   item.PriceCents,
				Quantity:     item.Quantity,
			})
		}

		summary, err := svc.CreateOrder(r.Context(), checkoutsvc.CreateOrderInput{
			BuyerUserID: buyerID,
			Items:       items,
			ActorRole:   middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, summary)
	}
}

// Detail returns one order after checking the requester owns it.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		buyerID, err := parseRequester(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Get(r.Context(), orderID, buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// List returns the buyer's orders newest first.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		buyerID, err := parseRequester(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		filters, err := buildFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), buyerID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Cancel voids a pending order and releases its reserved tickets.
func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		buyerID, err := parseRequester(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cancelOrderRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		input := internalorders.CancelOrderInput{
			OrderID:     orderID,
			BuyerUserID: buyerID,
			Reason:      strings.TrimSpace(payload.Reason),
			ActorRole:   middleware.RoleFromContext(r.Context()),
		}
		if err := svc.Cancel(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

func parseRequester(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return parsed, nil
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return parsed, nil
}

func buildFilters(r *http.Request) (internalorders.BuyerOrderFilters, error) {
	var filters internalorders.BuyerOrderFilters

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid status %q", raw))
		}
		filters.Status = &status
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("event_id")); raw != "" {
		eventID, err := uuid.Parse(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid event_id")
		}
		filters.EventID = &eventID
	}

	dateFrom, err := parseDateParam(r.URL.Query().Get("date_from"), "date_from")
	if err != nil {
		return filters, err
	}
	filters.DateFrom = dateFrom

	dateTo, err := parseDateParam(r.URL.Query().Get("date_to"), "date_to")
	if err != nil {
		return filters, err
	}
	filters.DateTo = dateTo

	return filters, nil
}

func parseDateParam(value, field string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		t, err = time.Parse(time.RFC3339, value)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid %s", field))
		}
	}
	return &t, nil
}
