package reservation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/reventa-uy/reventa-backend/pkg/db"
	"github.com/reventa-uy/reventa-backend/pkg/db/models"
	pkgerrors "github.com/reventa-uy/reventa-backend/pkg/errors"
)

const uniqueActiveTicketConstraint = "ux_order_tickets_active_ticket"

// defaultMaxAttempts bounds re-selection when concurrent buyers grab the
// same candidate tickets.
const defaultMaxAttempts = 3

// Request describes one reservation demand: qty tickets of a wave at an
// exact price, held for orderID until ReservedUntil.
type Request struct {
	OrderID         uuid.UUID
	TicketWaveID    uuid.UUID
	PriceCents      int64
	Quantity        int
	ReservedUntil   time.Time
	ExcludeSellerID uuid.UUID
	MaxAttempts     int
}

// ReserveTickets selects the oldest available tickets matching the request
// and inserts a hold row per ticket, all inside the caller's transaction.
//
// Availability is decided by the partial unique index on
// order_tickets(listing_ticket_id) WHERE deleted_at IS NULL: a concurrent
// buyer who wins the same ticket makes our insert fail, and we re-select.
// After MaxAttempts losses, or when fewer tickets exist than requested, the
// caller gets INSUFFICIENT_INVENTORY and the transaction rolls back.
func ReserveTickets(ctx context.Context, tx *gorm.DB, req Request) ([]models.OrderTicket, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction is required")
	}
	if req.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if req.TicketWaveID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket wave id is required")
	}
	if req.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be at least 1, got %d", req.Quantity))
	}
	if req.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if req.ReservedUntil.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation deadline is required")
	}

	attempts := req.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		candidates, err := selectCandidates(ctx, tx, req)
		if err != nil {
			return nil, err
		}
		if len(candidates) < req.Quantity {
			return nil, insufficient(req.Quantity, len(candidates))
		}

		holds := make([]models.OrderTicket, 0, req.Quantity)
		for _, ticket := range candidates {
			holds = append(holds, models.OrderTicket{
				ID:              uuid.New(),
				OrderID:         req.OrderID,
				ListingTicketID: ticket.ID,
				PriceCents:      ticket.PriceCents,
				ReservedUntil:   req.ReservedUntil,
			})
		}

		// Each insert runs under its own savepoint: on Postgres a failed
		// statement aborts the transaction, so without the rollback-to the
		// re-selection below would fail with 25P02.
		savepoint := fmt.Sprintf("reserve_holds_%d", attempt)
		if err := tx.SavePoint(savepoint).Error; err != nil {
			return nil, err
		}

		err = tx.WithContext(ctx).Create(&holds).Error
		if err == nil {
			return holds, nil
		}
		if !dbpkg.IsUniqueViolation(err, uniqueActiveTicketConstraint) &&
			!dbpkg.IsUniqueViolation(err, "") {
			return nil, err
		}
		if err := tx.RollbackTo(savepoint).Error; err != nil {
			return nil, err
		}
		// Lost the race for at least one candidate; try a fresh selection.
		lastErr = err
	}

	return nil, pkgerrors.Wrap(pkgerrors.CodeInsufficientInventory, lastErr,
		fmt.Sprintf("could not secure %d ticket(s) after %d attempts", req.Quantity, attempts))
}

// selectCandidates returns the oldest sellable tickets for the wave at the
// exact price, skipping anything under a live hold. Holds that expired but
// have not been swept still block; the expiration sweeper is the only
// release path.
func selectCandidates(ctx context.Context, tx *gorm.DB, req Request) ([]models.ListingTicket, error) {
	query := tx.WithContext(ctx).
		Table("listing_tickets").
		Select("listing_tickets.*").
		Joins("JOIN listings ON listings.id = listing_tickets.listing_id").
		Where("listings.ticket_wave_id = ?", req.TicketWaveID).
		Where("listings.deleted_at IS NULL").
		Where("listing_tickets.price_cents = ?", req.PriceCents).
		Where("listing_tickets.sold_at IS NULL").
		Where("listing_tickets.cancelled_at IS NULL").
		Where("listing_tickets.deleted_at IS NULL").
		Where("NOT EXISTS (SELECT 1 FROM order_tickets WHERE order_tickets.listing_ticket_id = listing_tickets.id AND order_tickets.deleted_at IS NULL)")

	if req.ExcludeSellerID != uuid.Nil {
		query = query.Where("listings.seller_user_id <> ?", req.ExcludeSellerID)
	}

	var candidates []models.ListingTicket
	err := query.
		Order("listing_tickets.created_at ASC").
		Order("listing_tickets.id ASC").
		Limit(req.Quantity).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

func insufficient(requested, available int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientInventory,
		fmt.Sprintf("requested %d ticket(s), %d available", requested, available)).
		WithDetails(map[string]any{
			"requested": requested,
			"available": available,
		})
}
