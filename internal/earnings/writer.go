package earnings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reventa-uy/reventa-backend/internal/orders"
	"github.com/reventa-uy/reventa-backend/pkg/db/models"
	"github.com/reventa-uy/reventa-backend/pkg/enums"
	pkgerrors "github.com/reventa-uy/reventa-backend/pkg/errors"
)

// Writer fans an order confirmation out into one earnings row per ticket.
// It satisfies the orders confirmation hook and runs inside its transaction.
type Writer struct {
	repo         Repository
	holdDuration time.Duration
}

// NewWriter builds the confirmation-time earnings writer.
func NewWriter(repo Repository, holdDuration time.Duration) (*Writer, error) {
	if repo == nil {
		return nil, fmt.Errorf("earnings repository required")
	}
	if holdDuration <= 0 {
		return nil, fmt.Errorf("hold duration must be positive")
	}
	return &Writer{repo: repo, holdDuration: holdDuration}, nil
}

// CreateForSale writes one pending earnings row per sold ticket. The hold
// runs from the event's end, not from the sale, so buyers keep a dispute
// window after attending.
func (w *Writer) CreateForSale(ctx context.Context, tx *gorm.DB, order *models.Order, tickets []orders.SoldTicketRef) ([]models.SellerEarnings, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order is required")
	}
	if len(tickets) == 0 {
		return nil, nil
	}

	repo := w.repo.WithTx(tx)
	endsAt, err := repo.FindEventEndsAt(ctx, order.EventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event end")
	}
	holdUntil := endsAt.Add(w.holdDuration)

	rows := make([]models.SellerEarnings, 0, len(tickets))
	for _, ticket := range tickets {
		rows = append(rows, models.SellerEarnings{
			ID:              uuid.New(),
			SellerUserID:    ticket.SellerUserID,
			OrderID:         order.ID,
			ListingTicketID: ticket.ListingTicketID,
			AmountCents:     ticket.PriceCents,
			Currency:        order.Currency,
			Status:          enums.EarningsStatusPending,
			HoldUntil:       holdUntil,
		})
	}
	if err := repo.CreateBatch(ctx, rows); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create seller earnings")
	}
	return rows, nil
}
