package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reventa-uy/reventa-backend/pkg/db/models"
	"github.com/reventa-uy/reventa-backend/pkg/enums"
	"github.com/reventa-uy/reventa-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their ticket holds.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListBuyerOrders(ctx context.Context, buyerUserID uuid.UUID, params pagination.Params, filters BuyerOrderFilters) (*BuyerOrderList, error)
	FindExpiredPendingIDs(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
	// TransitionFromPending performs a compare-and-set on the status column
	// and reports whether this call won the transition.
	TransitionFromPending(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus) (bool, error)
	SetCancelledAt(ctx context.Context, orderID uuid.UUID, at time.Time) error
	ReleaseTicketHolds(ctx context.Context, orderID uuid.UUID, releasedAt time.Time) (int64, error)
	MarkTicketsSold(ctx context.Context, orderID uuid.UUID, soldAt time.Time) error
	MarkListingsSold(ctx context.Context, orderID uuid.UUID, soldAt time.Time) error
	FindSoldTicketRefs(ctx context.Context, orderID uuid.UUID) ([]SoldTicketRef, error)
}
