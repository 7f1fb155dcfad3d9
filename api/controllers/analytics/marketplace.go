package analytics

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/reventa-uy/reventa-backend/api/middleware"
	"github.com/reventa-uy/reventa-backend/api/responses"
	"github.com/reventa-uy/reventa-backend/internal/analytics"
	"github.com/reventa-uy/reventa-backend/internal/analytics/types"
	pkgerrors "github.com/reventa-uy/reventa-backend/pkg/errors"
	"github.com/reventa-uy/reventa-backend/pkg/logger"
)

// MarketplaceAnalytics serves the sales dashboard. Sellers always see
// their own numbers; admins see the whole marketplace and may narrow to
// one seller with ?seller_id=.
func MarketplaceAnalytics(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if service == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(ctx)
		if userID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		start, end, err := resolveAnalyticsRange(r, timeNowUTC())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		req := types.MarketplaceQueryRequest{
			SellerUserID: userID,
			Start:        start,
			End:          end,
		}

		if middleware.RoleFromContext(ctx) == "admin" {
			req.SellerUserID = ""
			if seller := strings.TrimSpace(r.URL.Query().Get("seller_id")); seller != "" {
				if _, err := uuid.Parse(seller); err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seller id"))
					return
				}
				req.SellerUserID = seller
			}
		}

		result, err := service.Query(ctx, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
